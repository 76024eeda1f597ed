package train

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/railbot/train-linebot-go/internal/ctxutil"
	apperrors "github.com/railbot/train-linebot-go/internal/errors"
	"github.com/railbot/train-linebot-go/internal/logger"
	"github.com/railbot/train-linebot-go/internal/session"
	"github.com/railbot/train-linebot-go/internal/storage"
	"github.com/railbot/train-linebot-go/internal/ticket"
)

type fakeQuerier struct {
	trains []ticket.Train
	err    error
	calls  int
}

func (f *fakeQuerier) QueryTickets(_ context.Context, _ ticket.Query) ([]ticket.Train, error) {
	f.calls++
	return f.trains, f.err
}

type fakeHistory struct {
	records []*storage.QueryRecord
}

func (f *fakeHistory) SaveQuery(_ context.Context, rec *storage.QueryRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func sampleTrains(n int) []ticket.Train {
	trains := make([]ticket.Train, n)
	numbers := []string{"G101", "G103", "G105", "G107", "G109", "G111", "G113", "G115", "G117", "G119"}
	for i := range trains {
		trains[i] = ticket.Train{
			TrainNumber: numbers[i],
			TrainType:   "高铁",
			Depart:      "北京南",
			Dest:        "上海虹桥",
			DepartTime:  "06:44",
			DestTime:    "12:31",
			TotalTime:   "05:47",
			Seats:       []ticket.Seat{{Name: "二等座", Status: "充足", Price: "553"}},
		}
	}
	return trains
}

func newTestHandler(q Querier, sessions *session.Store, history HistoryStore) *Handler {
	return NewHandler(Config{
		Querier:          q,
		Sessions:         sessions,
		History:          history,
		Logger:           logger.NewWithWriter("error", io.Discard),
		DefaultTrainType: "高铁",
		MaxDisplayed:     8,
	})
}

func userCtx(t *testing.T, userID string) context.Context {
	t.Helper()
	return ctxutil.WithUserID(context.Background(), userID)
}

func textOf(t *testing.T, msg messaging_api.MessageInterface) string {
	t.Helper()

	textMsg, ok := msg.(*messaging_api.TextMessage)
	if !ok {
		t.Fatalf("message is %T, want *TextMessage", msg)
	}
	return textMsg.Text
}

func TestCanHandle(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeQuerier{}, session.NewStore(), nil)

	for _, text := range []string{"火车票 北京 上海", "火车票", "1", "8", "9"} {
		if !h.CanHandle(text) {
			t.Errorf("CanHandle(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"10", "0", "你好", "票"} {
		if h.CanHandle(text) {
			t.Errorf("CanHandle(%q) = true, want false", text)
		}
	}
}

func TestQueryInsufficientArgumentsSkipsNetwork(t *testing.T) {
	t.Parallel()

	querier := &fakeQuerier{trains: sampleTrains(3)}
	h := newTestHandler(querier, session.NewStore(), nil)

	for _, text := range []string{"火车票", "火车票 北京"} {
		msgs := h.HandleMessage(userCtx(t, "U1"), text)
		if len(msgs) != 1 {
			t.Fatalf("HandleMessage(%q) returned %d messages, want 1", text, len(msgs))
		}
		if !strings.Contains(textOf(t, msgs[0]), "参数不足") {
			t.Errorf("reply should mention missing arguments, got %q", textOf(t, msgs[0]))
		}
	}

	if querier.calls != 0 {
		t.Errorf("querier called %d times, want 0", querier.calls)
	}
}

func TestQuerySuccess(t *testing.T) {
	t.Parallel()

	sessions := session.NewStore()
	history := &fakeHistory{}
	h := newTestHandler(&fakeQuerier{trains: sampleTrains(3)}, sessions, history)

	msgs := h.HandleMessage(userCtx(t, "U1"), "火车票 北京 上海 2023-12-25 高铁")
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want ack + list + prompt", len(msgs))
	}

	if !strings.Contains(textOf(t, msgs[0]), "正在搜索") {
		t.Error("first message should be the search ack")
	}

	list := textOf(t, msgs[1])
	for _, want := range []string{"1. G101", "2. G103", "3. G105"} {
		if !strings.Contains(list, want) {
			t.Errorf("list missing %q:\n%s", want, list)
		}
	}

	prompt := msgs[2].(*messaging_api.TextMessage)
	if !strings.Contains(prompt.Text, "1-3") {
		t.Errorf("prompt should advertise range 1-3, got %q", prompt.Text)
	}
	if prompt.QuickReply == nil || len(prompt.QuickReply.Items) != 3 {
		t.Error("prompt should carry one quick-reply button per shown train")
	}

	sess, ok := sessions.Get("U1")
	if !ok || len(sess.Trains) != 3 {
		t.Fatal("session should cache all returned trains")
	}

	if len(history.records) != 1 || history.records[0].ResultCount != 3 {
		t.Error("query should be recorded in history")
	}
}

func TestQueryCachesAllRowsDisplaysEight(t *testing.T) {
	t.Parallel()

	sessions := session.NewStore()
	h := newTestHandler(&fakeQuerier{trains: sampleTrains(10)}, sessions, nil)

	msgs := h.HandleMessage(userCtx(t, "U1"), "火车票 北京 上海")
	list := textOf(t, msgs[1])

	if strings.Contains(list, "9. ") {
		t.Error("list should display at most 8 entries")
	}

	sess, _ := sessions.Get("U1")
	if len(sess.Trains) != 10 {
		t.Errorf("session caches %d trains, want all 10", len(sess.Trains))
	}
}

func TestQueryNoResults(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeQuerier{err: apperrors.ErrNoResults}, session.NewStore(), nil)

	msgs := h.HandleMessage(userCtx(t, "U1"), "火车票 北京 漠河")
	last := textOf(t, msgs[len(msgs)-1])
	if !strings.Contains(last, "未找到") {
		t.Errorf("no-results reply = %q", last)
	}
}

func TestQueryUpstreamError(t *testing.T) {
	t.Parallel()

	upstreamErr := apperrors.NewUpstreamError("http://example.com", 502, "", apperrors.ErrUpstreamStatus)
	h := newTestHandler(&fakeQuerier{err: upstreamErr}, session.NewStore(), nil)

	msgs := h.HandleMessage(userCtx(t, "U1"), "火车票 北京 上海")
	last := textOf(t, msgs[len(msgs)-1])
	if !strings.Contains(last, "服务暂时不可用") {
		t.Errorf("upstream failure should get the generic error reply, got %q", last)
	}
}

func TestSelectionWithoutSession(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeQuerier{}, session.NewStore(), nil)

	for _, digit := range []string{"1", "5", "8"} {
		msgs := h.HandleMessage(userCtx(t, "U1"), digit)
		if len(msgs) != 1 || !strings.Contains(textOf(t, msgs[0]), "会话已过期") {
			t.Errorf("selection %q without session should report expiry", digit)
		}
	}
}

func TestSelectionOutOfRange(t *testing.T) {
	t.Parallel()

	sessions := session.NewStore()
	sessions.Put("U1", sampleTrains(3))
	h := newTestHandler(&fakeQuerier{}, sessions, nil)

	for _, digit := range []string{"4", "8", "9"} {
		msgs := h.HandleMessage(userCtx(t, "U1"), digit)
		if len(msgs) != 1 {
			t.Fatalf("selection %q returned %d messages, want 1", digit, len(msgs))
		}
		if !strings.Contains(textOf(t, msgs[0]), "无效的序号") {
			t.Errorf("selection %q should be rejected, got %q", digit, textOf(t, msgs[0]))
		}
	}
}

func TestQueryThenSelectRoundTrip(t *testing.T) {
	t.Parallel()

	sessions := session.NewStore()
	h := newTestHandler(&fakeQuerier{trains: sampleTrains(3)}, sessions, nil)

	ctx := userCtx(t, "U1")
	h.HandleMessage(ctx, "火车票 北京 上海 2023-12-25 高铁")

	msgs := h.HandleMessage(ctx, "2")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}

	detail := textOf(t, msgs[0])
	for _, want := range []string{
		"G103", "高铁",
		"06:44 → 12:31", "历时05:47",
		"北京南 → 上海虹桥",
		"二等座",
	} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail missing %q:\n%s", want, detail)
		}
	}
}

func TestSelectionIsolatedPerUser(t *testing.T) {
	t.Parallel()

	sessions := session.NewStore()
	h := newTestHandler(&fakeQuerier{trains: sampleTrains(2)}, sessions, nil)

	h.HandleMessage(userCtx(t, "U1"), "火车票 北京 上海")

	msgs := h.HandleMessage(userCtx(t, "U2"), "1")
	if !strings.Contains(textOf(t, msgs[0]), "会话已过期") {
		t.Error("another user's session should not be visible")
	}
}

var _ Querier = (*ticket.Client)(nil)

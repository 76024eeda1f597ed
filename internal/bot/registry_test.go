package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/railbot/train-linebot-go/internal/lineutil"
)

type stubHandler struct {
	name    string
	keyword string
	calls   int
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) CanHandle(text string) bool {
	return strings.HasPrefix(text, h.keyword)
}

func (h *stubHandler) HandleMessage(_ context.Context, _ string) []messaging_api.MessageInterface {
	h.calls++
	return []messaging_api.MessageInterface{lineutil.NewTextMessage(h.name)}
}

func TestDispatchMessage(t *testing.T) {
	t.Parallel()

	first := &stubHandler{name: "first", keyword: "火车票"}
	second := &stubHandler{name: "second", keyword: "火车"}

	r := NewRegistry()
	r.Register(first)
	r.Register(second)

	msgs := r.DispatchMessage(context.Background(), "火车票 北京 上海")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if first.calls != 1 || second.calls != 0 {
		t.Error("dispatch should stop at the first matching handler")
	}
}

func TestDispatchMessageNoMatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubHandler{name: "ticket", keyword: "火车票"})

	if msgs := r.DispatchMessage(context.Background(), "天气怎么样"); msgs != nil {
		t.Errorf("got %v, want nil for unmatched text", msgs)
	}
}

func TestGetHandler(t *testing.T) {
	t.Parallel()

	h := &stubHandler{name: "ticket", keyword: "火车票"}
	r := NewRegistry()
	r.Register(h)

	if got := r.GetHandler("ticket"); got != h {
		t.Error("GetHandler should return the registered handler")
	}
	if got := r.GetHandler("missing"); got != nil {
		t.Error("GetHandler should return nil for unknown names")
	}
}

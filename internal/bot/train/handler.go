// Package train implements the ticket-query bot module. It answers
// 火车票 commands with a numbered candidate list and bare digit
// replies with the details of the selected train.
package train

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/railbot/train-linebot-go/internal/ctxutil"
	apperrors "github.com/railbot/train-linebot-go/internal/errors"
	"github.com/railbot/train-linebot-go/internal/lineutil"
	"github.com/railbot/train-linebot-go/internal/logger"
	"github.com/railbot/train-linebot-go/internal/metrics"
	"github.com/railbot/train-linebot-go/internal/session"
	"github.com/railbot/train-linebot-go/internal/storage"
	"github.com/railbot/train-linebot-go/internal/ticket"
)

const (
	moduleName = "train"
	senderName = "火车票小助手"

	queryKeyword = "火车票"
)

// digitRegex gates the selection flow on a single-digit reply.
// Out-of-range digits still match so they get an explicit rejection
// instead of silence.
var digitRegex = regexp.MustCompile(`^[1-9]$`)

// Querier fetches candidate trains. *ticket.Client implements it.
type Querier interface {
	QueryTickets(ctx context.Context, q ticket.Query) ([]ticket.Train, error)
}

// HistoryStore records completed lookups. *storage.DB implements it.
type HistoryStore interface {
	SaveQuery(ctx context.Context, rec *storage.QueryRecord) error
}

// Handler handles train ticket queries and selections.
type Handler struct {
	querier          Querier
	sessions         *session.Store
	history          HistoryStore
	metrics          *metrics.Metrics
	logger           *logger.Logger
	defaultTrainType string
	maxDisplayed     int
}

// Config holds dependencies for creating a Handler.
type Config struct {
	Querier          Querier
	Sessions         *session.Store
	History          HistoryStore
	Metrics          *metrics.Metrics
	Logger           *logger.Logger
	DefaultTrainType string
	MaxDisplayed     int
}

// NewHandler creates a new train ticket handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		querier:          cfg.Querier,
		sessions:         cfg.Sessions,
		history:          cfg.History,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		defaultTrainType: cfg.DefaultTrainType,
		maxDisplayed:     cfg.MaxDisplayed,
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return moduleName
}

// CanHandle checks if the message is a ticket query or a selection reply.
func (h *Handler) CanHandle(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, queryKeyword) || digitRegex.MatchString(text)
}

// HandleMessage handles text messages for the train module.
func (h *Handler) HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	text = strings.TrimSpace(text)
	userID := ctxutil.GetUserID(ctx)
	sender := lineutil.GetSender(senderName)

	if digitRegex.MatchString(text) {
		return h.handleSelection(ctx, userID, text, sender)
	}
	return h.handleQuery(ctx, userID, text, sender)
}

func (h *Handler) handleQuery(ctx context.Context, userID, text string, sender *messaging_api.Sender) []messaging_api.MessageInterface {
	log := h.logger.WithModule(moduleName)

	q, err := ticket.ParseQueryText(text, h.defaultTrainType, time.Now())
	if err != nil {
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithSender(
				"❌ 参数不足\n\n格式：火车票 出发地 到达地 [日期] [车型]\n例如：火车票 北京 上海 2023-12-25 高铁", sender),
		}
	}

	log.InfoContext(ctx, "Querying tickets",
		"departure", q.Departure, "arrival", q.Arrival, "date", q.Date, "train_type", q.TrainType)

	// The reply carries the ack alongside the results; LINE only
	// allows one reply per token.
	ackMsg := lineutil.NewTextMessageWithSender("🔍 正在搜索车票信息，请稍候…", sender)

	trains, err := h.querier.QueryTickets(ctx, q)
	if err != nil {
		return append([]messaging_api.MessageInterface{ackMsg}, h.queryErrorMessage(ctx, q, err, sender))
	}

	if h.sessions != nil {
		h.sessions.Put(userID, trains)
	}
	h.recordHistory(ctx, userID, q, len(trains))

	shown := min(len(trains), h.maxDisplayed)

	listMsg := lineutil.NewTextMessageWithSender(buildListText(q, trains, h.maxDisplayed), sender)
	promptMsg := lineutil.NewTextMessageWithSender(buildSelectionPrompt(shown), sender)

	msgs := []messaging_api.MessageInterface{ackMsg, listMsg, promptMsg}
	lineutil.AttachQuickReply(msgs, h.digitQuickReply(shown))
	return msgs
}

func (h *Handler) handleSelection(ctx context.Context, userID, text string, sender *messaging_api.Sender) []messaging_api.MessageInterface {
	log := h.logger.WithModule(moduleName)

	if h.sessions == nil {
		return nil
	}

	sess, ok := h.sessions.Get(userID)
	if !ok {
		if h.metrics != nil {
			h.metrics.RecordSessionMiss()
		}
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithSender("⏰ 会话已过期\n\n请重新查询，例如：火车票 北京 上海", sender),
		}
	}
	if h.metrics != nil {
		h.metrics.RecordSessionHit()
	}

	index, _ := strconv.Atoi(text)
	selectable := min(len(sess.Trains), h.maxDisplayed)
	if index < 1 || index > selectable {
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithSender(
				"❌ 无效的序号\n\n请回复 1-"+strconv.Itoa(selectable)+" 之间的数字", sender),
		}
	}

	log.InfoContext(ctx, "Replying train detail", "index", index)

	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithSender(buildDetailText(sess.Trains[index-1]), sender),
	}
}

func (h *Handler) queryErrorMessage(ctx context.Context, q ticket.Query, err error, sender *messaging_api.Sender) messaging_api.MessageInterface {
	log := h.logger.WithModule(moduleName)

	if errors.Is(err, apperrors.ErrNoResults) {
		return lineutil.NewTextMessageWithSender(
			"😔 未找到符合条件的车次\n\n请检查出发地、到达地和日期后重试", sender)
	}

	log.WithError(err).ErrorContext(ctx, "Ticket query failed",
		"departure", q.Departure, "arrival", q.Arrival, "date", q.Date)
	return lineutil.ErrorMessageWithSender(sender)
}

func (h *Handler) recordHistory(ctx context.Context, userID string, q ticket.Query, resultCount int) {
	if h.history == nil {
		return
	}

	err := h.history.SaveQuery(ctx, &storage.QueryRecord{
		UserID:      userID,
		Departure:   q.Departure,
		Arrival:     q.Arrival,
		TravelDate:  q.Date,
		TrainType:   q.TrainType,
		ResultCount: resultCount,
	})
	if h.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		h.metrics.RecordHistoryWrite(status)
	}
	if err != nil {
		h.logger.WithModule(moduleName).WithError(err).Warn("Failed to record query history")
	}
}

func (h *Handler) digitQuickReply(shown int) *messaging_api.QuickReply {
	if shown < 1 {
		return nil
	}

	items := make([]lineutil.QuickReplyItem, shown)
	for i := 0; i < shown; i++ {
		label := strconv.Itoa(i + 1)
		items[i] = lineutil.QuickReplyItem{Action: lineutil.NewMessageAction(label, label)}
	}
	return lineutil.NewQuickReply(items)
}

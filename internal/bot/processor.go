package bot

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/railbot/train-linebot-go/internal/config"
	"github.com/railbot/train-linebot-go/internal/ctxutil"
	"github.com/railbot/train-linebot-go/internal/lineutil"
	"github.com/railbot/train-linebot-go/internal/logger"
	"github.com/railbot/train-linebot-go/internal/metrics"
	"github.com/railbot/train-linebot-go/internal/ratelimit"
)

// helpKeywords are the keywords that trigger the help message.
var helpKeywords = []string{"使用说明", "帮助", "help"}

const systemSenderName = "系统小助手"

// Processor handles the core logic of processing LINE events.
// It orchestrates per-user rate limiting, input sanitization, and
// dispatching to handlers.
type Processor struct {
	registry    *Registry
	userLimiter *ratelimit.PerKeyLimiter
	logger      *logger.Logger
	metrics     *metrics.Metrics

	webhookTimeout time.Duration
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Registry    *Registry
	UserLimiter *ratelimit.PerKeyLimiter
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	BotConfig   *config.BotConfig
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		registry:       cfg.Registry,
		userLimiter:    cfg.UserLimiter,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		webhookTimeout: cfg.BotConfig.WebhookTimeout,
	}
}

// ProcessMessage handles a text message event.
func (p *Processor) ProcessMessage(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error) {
	chatID := GetChatID(event.Source)
	userID := GetUserID(event.Source)

	// Inject context values for downstream handlers
	ctx = ctxutil.WithChatID(ctx, chatID)
	ctx = ctxutil.WithUserID(ctx, userID)

	// Check rate limit early to avoid unnecessary processing
	if allowed, rateLimitMsg := p.checkUserRateLimit(event.Source, chatID); !allowed {
		return rateLimitMsg, nil
	}

	// Only handle text messages
	if event.Message.GetType() != "text" {
		return nil, nil
	}

	textMsg, ok := event.Message.(webhook.TextMessageContent)
	if !ok {
		return nil, errors.New("failed to cast message to text")
	}

	text := normalizeWhitespace(textMsg.Text)
	if text == "" {
		return nil, nil
	}

	if slices.ContainsFunc(helpKeywords, func(k string) bool {
		return strings.EqualFold(text, k)
	}) {
		p.logger.Info("User requested help")
		return p.helpMessages(), nil
	}

	processCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), p.webhookTimeout)
	defer cancel()

	if msgs := p.registry.DispatchMessage(processCtx, text); len(msgs) > 0 {
		return msgs, nil
	}

	// No handler matched. Stay quiet in group chats; nudge toward
	// the help text in personal chats.
	if !IsPersonalChat(event.Source) {
		return nil, nil
	}
	return p.helpMessages(), nil
}

// ProcessFollow handles a follow event.
func (p *Processor) ProcessFollow(event webhook.FollowEvent) ([]messaging_api.MessageInterface, error) {
	p.logger.Info("New user followed the bot")

	sender := lineutil.GetSender(systemSenderName)
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithSender("你好~我是火车票查询小助手 🚄", sender),
		lineutil.NewTextMessageWithSender("发送「火车票 出发地 到达地 [日期] [车型]」即可查询余票\n输入「使用说明」查看完整说明", sender),
	}, nil
}

func (p *Processor) helpMessages() []messaging_api.MessageInterface {
	sender := lineutil.GetSender(systemSenderName)
	help := strings.Join([]string{
		"🚄 火车票查询使用说明",
		"",
		"查询余票：",
		"火车票 出发地 到达地 [日期] [车型]",
		"例如：火车票 北京 上海 2023-12-25 高铁",
		"",
		"日期缺省为今天，车型缺省为高铁。",
		"查询后回复数字 1-8 查看对应车次的详细信息。",
	}, "\n")

	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithSender(help, sender),
	}
}

// checkUserRateLimit checks if the chat has exceeded its rate limit.
func (p *Processor) checkUserRateLimit(source webhook.SourceInterface, chatID string) (bool, []messaging_api.MessageInterface) {
	if chatID == "" || p.userLimiter == nil {
		return true, nil
	}

	if p.userLimiter.Allow(chatID) {
		return true, nil
	}

	logChatID := chatID
	if len(chatID) > 8 {
		logChatID = chatID[:8] + "..."
	}
	p.logger.WithField("chat_id", logChatID).Warn("User rate limit exceeded")
	if p.metrics != nil {
		p.metrics.RecordRateLimiterDrop("user")
	}

	if IsPersonalChat(source) {
		sender := lineutil.GetSender(systemSenderName)
		return false, []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithSender("⏳ 消息过于频繁，请稍后再试", sender),
		}
	}

	return false, nil
}

// normalizeWhitespace collapses runs of whitespace, including
// fullwidth spaces, into single ASCII spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package lineutil provides utility functions for building LINE messages and actions.
package lineutil

import (
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   Action
}

// NewTextMessage creates a simple text message.
// LINE API limits: max 5000 characters per text message.
func NewTextMessage(text string) *messaging_api.TextMessage {
	if utf8.RuneCountInString(text) > 5000 {
		text = TruncateRunes(text, 4997) + "..."
	}

	return &messaging_api.TextMessage{
		Text: text,
	}
}

// NewMessageAction creates a message action that sends a message when clicked.
// The label is displayed on the button, and text is the message that will be sent.
func NewMessageAction(label, text string) Action {
	return &messaging_api.MessageAction{
		Label: label,
		Text:  text,
	}
}

// NewQuickReply creates a quick reply component that can be attached to
// text messages.
// LINE API limits: max 13 items.
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > 13 {
		items = items[:13]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		qrItem := messaging_api.QuickReplyItem{
			Action: item.Action,
		}
		if item.ImageURL != "" {
			qrItem.ImageUrl = item.ImageURL
		}
		quickReplyItems[i] = qrItem
	}

	return &messaging_api.QuickReply{
		Items: quickReplyItems,
	}
}

// AttachQuickReply sets a quick reply on the last text message in msgs.
// Quick replies only display on the final message of a reply, so
// attaching anywhere else is wasted.
func AttachQuickReply(msgs []messaging_api.MessageInterface, qr *messaging_api.QuickReply) {
	if qr == nil || len(msgs) == 0 {
		return
	}
	if m, ok := msgs[len(msgs)-1].(*messaging_api.TextMessage); ok {
		m.QuickReply = qr
	}
}

// GetSender creates a sender used on all messages of one reply so the
// avatar stays consistent within the reply.
func GetSender(name string) *messaging_api.Sender {
	return &messaging_api.Sender{
		Name: name,
	}
}

// NewTextMessageWithSender creates a text message using a pre-created sender.
// LINE API limits: max 5000 characters per text message.
func NewTextMessageWithSender(text string, sender *messaging_api.Sender) *messaging_api.TextMessage {
	msg := NewTextMessage(text)
	msg.Sender = sender
	return msg
}

// ErrorMessageWithSender creates the generic service-unavailable reply.
func ErrorMessageWithSender(sender *messaging_api.Sender) messaging_api.MessageInterface {
	return NewTextMessageWithSender("❌ 服务暂时不可用，请稍后再试。", sender)
}

// TruncateRunes truncates s to at most n runes, never splitting a
// multi-byte character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

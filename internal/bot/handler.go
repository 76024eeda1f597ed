// Package bot provides the handler interface and event processing for
// LINE bot modules. Each module implements Handler to process user
// messages; the Processor sanitizes input, enforces rate limits, and
// dispatches to the registry.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Handler defines the interface that all bot modules must implement.
type Handler interface {
	// Name returns the module name for registry lookup and logging.
	Name() string

	// CanHandle checks if this handler can process the given text message.
	// Returns true if the handler recognizes keywords or patterns in the text.
	CanHandle(text string) bool

	// HandleMessage processes a text message and returns LINE message responses.
	// The invoking user's ID is available via ctxutil.GetUserID(ctx).
	// Returns a slice of LINE messages (max 5 messages per reply).
	HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface
}

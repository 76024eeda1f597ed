// Package config provides centralized timeout constants for the application.
//
// These values are tuned around two external constraints:
//   - LINE Messaging API timing (reply tokens should be used quickly,
//     webhook acknowledgment must be immediate)
//   - the upstream train ticket API, which is a single HTTP GET with a
//     hard 15 second budget and no retry
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook event.
	// This covers bot message handling, the one upstream ticket API call,
	// and the history write. The ticket call alone may take up to
	// TicketRequest, so leave headroom for formatting and storage.
	WebhookProcessing = 30 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Should be short since LINE sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	// Should accommodate WebhookProcessing + response serialization.
	WebhookHTTPWrite = 35 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Upstream ticket API timeouts
const (
	// TicketRequest is the total timeout for one request to the train
	// ticket API, covering connect, TLS, and body read. The upstream
	// contract allows a single attempt with a 15 second budget.
	TicketRequest = 15 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Handles write contention between webhook workers and the pruner.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	// Prevents stale connections and allows connection pool refresh.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// SessionSweepInterval is how often idle session entries are swept.
	SessionSweepInterval = 5 * time.Minute

	// HistoryPruneInterval is how often expired history rows are deleted.
	HistoryPruneInterval = 12 * time.Hour

	// HistoryPruneInitialDelay is the delay before the first history prune.
	// Allows the server to stabilize before running maintenance.
	HistoryPruneInitialDelay = 5 * time.Minute

	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)

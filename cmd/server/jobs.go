// Package main provides the train ticket LINE bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/railbot/train-linebot-go/internal/config"
	"github.com/railbot/train-linebot-go/internal/logger"
	"github.com/railbot/train-linebot-go/internal/metrics"
	"github.com/railbot/train-linebot-go/internal/session"
	"github.com/railbot/train-linebot-go/internal/storage"
)

// sweepSessions periodically removes idle sessions and keeps the
// session gauge fresh. A zero ttl disables expiry; the gauge still
// updates.
func sweepSessions(ctx context.Context, sessions *session.Store, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(config.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := sessions.Sweep(ttl)
			if removed > 0 {
				m.RecordSessionSwept(removed)
				log.WithField("removed", removed).Debug("Swept idle sessions")
			}
			m.SetSessionEntries(sessions.Len())
		}
	}
}

// pruneHistory periodically deletes query history older than retention.
func pruneHistory(ctx context.Context, db *storage.DB, retention time.Duration, m *metrics.Metrics, log *logger.Logger) {
	// Initial prune after a short delay to let the server stabilize
	select {
	case <-ctx.Done():
		return
	case <-time.After(config.HistoryPruneInitialDelay):
		performHistoryPrune(ctx, db, retention, m, log)
	}

	ticker := time.NewTicker(config.HistoryPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performHistoryPrune(ctx, db, retention, m, log)
		}
	}
}

func performHistoryPrune(ctx context.Context, db *storage.DB, retention time.Duration, m *metrics.Metrics, log *logger.Logger) {
	pruned, err := db.PruneOlderThan(ctx, retention)
	if err != nil {
		log.WithError(err).Error("Failed to prune query history")
		return
	}

	if pruned > 0 {
		m.RecordHistoryPruned(pruned)
		remaining, _ := db.CountQueries(ctx)
		log.WithField("pruned", pruned).
			WithField("remaining", remaining).
			Info("Query history pruned")
	}
}

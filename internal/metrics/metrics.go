package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ticket API metrics
	TicketRequestsTotal   *prometheus.CounterVec
	TicketDurationSeconds prometheus.Histogram

	// Session metrics
	SessionHitsTotal   prometheus.Counter
	SessionMissesTotal prometheus.Counter
	SessionEntries     prometheus.Gauge
	SessionSweptTotal  prometheus.Counter

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal prometheus.Counter

	// History metrics
	HistoryWritesTotal *prometheus.CounterVec
	HistoryPrunedTotal prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TicketRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "railbot_ticket_requests_total",
				Help: "Total number of ticket API requests by status",
			},
			[]string{"status"}, // status: success, empty, upstream_error, transport_error, timeout
		),

		TicketDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "railbot_ticket_duration_seconds",
				Help:    "Ticket API request duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15}, // Matches 15s request budget
			},
		),

		SessionHitsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "railbot_session_hits_total",
				Help: "Total number of digit replies that found a cached result list",
			},
		),

		SessionMissesTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "railbot_session_misses_total",
				Help: "Total number of digit replies with no session entry",
			},
		),

		SessionEntries: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "railbot_session_entries",
				Help: "Current number of cached per-user result lists",
			},
		),

		SessionSweptTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "railbot_session_swept_total",
				Help: "Total number of idle session entries removed by the janitor",
			},
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "railbot_webhook_duration_seconds",
				Help:    "Webhook processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15, 30},
			},
			[]string{"event_type"}, // event_type: message, postback, follow
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "railbot_webhook_requests_total",
				Help: "Total number of webhook requests by event type and status",
			},
			[]string{"event_type", "status"}, // status: received, success, error, reply_error
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "railbot_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, global
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "railbot_singleflight_dedup_total",
				Help: "Total number of ticket queries deduplicated by singleflight",
			},
		),

		HistoryWritesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "railbot_history_writes_total",
				Help: "Total number of query history writes by status",
			},
			[]string{"status"}, // status: success, error
		),

		HistoryPrunedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "railbot_history_pruned_total",
				Help: "Total number of query history rows pruned by retention",
			},
		),
	}

	return m
}

// RecordTicketRequest records a ticket API request with status
func (m *Metrics) RecordTicketRequest(status string, duration float64) {
	m.TicketRequestsTotal.WithLabelValues(status).Inc()
	m.TicketDurationSeconds.Observe(duration)
}

// RecordSessionHit records a digit reply that resolved a cached list
func (m *Metrics) RecordSessionHit() {
	m.SessionHitsTotal.Inc()
}

// RecordSessionMiss records a digit reply with no session entry
func (m *Metrics) RecordSessionMiss() {
	m.SessionMissesTotal.Inc()
}

// SetSessionEntries updates the session store size gauge
func (m *Metrics) SetSessionEntries(n int) {
	m.SessionEntries.Set(float64(n))
}

// RecordSessionSwept records idle entries removed by the janitor
func (m *Metrics) RecordSessionSwept(n int) {
	m.SessionSweptTotal.Add(float64(n))
}

// RecordWebhook records a webhook request
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordSingleflightDedup records a deduplicated ticket query
func (m *Metrics) RecordSingleflightDedup() {
	m.SingleflightDedupTotal.Inc()
}

// RecordHistoryWrite records a query history write
func (m *Metrics) RecordHistoryWrite(status string) {
	m.HistoryWritesTotal.WithLabelValues(status).Inc()
}

// RecordHistoryPruned records pruned history rows
func (m *Metrics) RecordHistoryPruned(n int64) {
	m.HistoryPrunedTotal.Add(float64(n))
}

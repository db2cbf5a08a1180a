package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebridge_webhook_events_total",
			Help: "Total number of webhook events dispatched, by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	WebhookVerifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebridge_webhook_verify_failures_total",
			Help: "Total number of webhook signature verification failures, by reason",
		},
		[]string{"reason"},
	)

	// Relay endpoint metrics
	RelayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebridge_relay_requests_total",
			Help: "Total number of relay requests, by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// Upstream call metrics
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicebridge_upstream_duration_seconds",
			Help:    "Duration of outbound provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebridge_upstream_errors_total",
			Help: "Total number of failed outbound provider calls",
		},
		[]string{"provider", "operation"},
	)

	// Journal metrics
	JournalPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voicebridge_journal_publish_errors_total",
			Help: "Total number of failed event journal publishes",
		},
	)
)

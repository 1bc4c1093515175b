package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiers_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// EmailsSent counts outbound emails by kind (verification|password_reset|contact).
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiers_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"kind", "result"},
	)

	// EventRegistrations counts event registration decisions (pending|approved|rejected|cancelled).
	EventRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiers_event_registrations_total",
			Help: "Total number of event registration transitions",
		},
		[]string{"status"},
	)

	// ActiveRefreshTokens tracks refresh tokens that are neither expired nor revoked.
	ActiveRefreshTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentiers_active_refresh_tokens",
			Help: "Number of active refresh tokens",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentiers_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

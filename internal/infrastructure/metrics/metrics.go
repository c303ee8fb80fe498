package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chat",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	ChatsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "gateway",
			Name:      "chats_created_total",
			Help:      "Total chats attributed after successful creation",
		},
		[]string{"identity_class"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "gateway",
			Name:      "rate_limited_total",
			Help:      "Total requests denied by the quota check",
		},
		[]string{"identity_class"},
	)

	GenerationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "gateway",
			Name:      "generation_errors_total",
			Help:      "Total generation service call failures",
		},
		[]string{"operation"},
	)

	StreamRelaysActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chat",
			Subsystem: "gateway",
			Name:      "stream_relays_active",
			Help:      "Streaming relays currently held open",
		},
	)
)

// RecordRequest records one completed HTTP request.
func RecordRequest(method, endpoint, status string, seconds float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(seconds)
}

// RecordChatCreated records a successful attribution.
func RecordChatCreated(identityClass string) {
	ChatsCreatedTotal.WithLabelValues(identityClass).Inc()
}

// RecordRateLimited records a quota denial.
func RecordRateLimited(identityClass string) {
	RateLimitedTotal.WithLabelValues(identityClass).Inc()
}

// RecordGenerationError records an upstream call failure.
func RecordGenerationError(operation string) {
	GenerationErrorsTotal.WithLabelValues(operation).Inc()
}

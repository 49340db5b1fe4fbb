package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forum_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// InvalidDocumentsTotal counts documents dropped from query results after
	// failing schema validation.
	InvalidDocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_invalid_documents_total",
		Help: "Total number of documents dropped for failing schema validation",
	}, []string{"collection"})

	// InteractionTogglesTotal counts like/forward toggles by kind and direction.
	InteractionTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_interaction_toggles_total",
		Help: "Total number of interaction toggles by kind and resulting state",
	}, []string{"kind", "state"})

	// EmailsSentTotal counts outbound registration emails by outcome.
	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_emails_sent_total",
		Help: "Total number of outbound emails by outcome",
	}, []string{"outcome"})

	// ImageUploadsTotal counts image uploads by detected format.
	ImageUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_image_uploads_total",
		Help: "Total number of image uploads by detected format",
	}, []string{"format"})
)

// DatabaseMetrics records query latency for a collection-backed store.
type DatabaseMetrics struct{}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, collection string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, collection).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, collection, start)
	}
}

// RecordToggle increments the interaction toggle counter.
func RecordToggle(kind string, active bool) {
	state := "removed"
	if active {
		state = "added"
	}
	InteractionTogglesTotal.WithLabelValues(kind, state).Inc()
}

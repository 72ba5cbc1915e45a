// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidnest_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryDuration records database statement latency.
	DatabaseQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidnest_database_query_duration_seconds",
		Help:    "Database statement latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DatabaseErrors counts failed database statements.
	DatabaseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidnest_database_errors_total",
		Help: "Total number of failed database statements",
	})

	// CacheLookups counts cache-aside lookups by cache and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidnest_cache_lookups_total",
		Help: "Cache-aside lookups by cache and result",
	}, []string{"cache", "result"})

	// ToggleTotal counts like/subscribe toggles by kind and resulting state.
	ToggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidnest_toggles_total",
		Help: "Two-state toggles by kind and resulting state",
	}, []string{"kind", "state"})

	// CascadeFailures counts dependent cleanup steps that failed after a primary delete.
	CascadeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidnest_cascade_failures_total",
		Help: "Cascade delete steps that failed after the primary row was removed",
	}, []string{"entity", "step"})

	// ThreadNodes records how many comment nodes one thread assembly produced.
	ThreadNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidnest_thread_nodes",
		Help:    "Comment nodes assembled per thread request",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	// NotificationStreams tracks open notification connections by transport (sse, websocket).
	NotificationStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vidnest_notification_streams",
		Help: "Open notification streams by transport",
	}, []string{"transport"})

	// MediaOperations counts media store calls by backend, operation and outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidnest_media_operations_total",
		Help: "Media store operations by backend, operation and outcome",
	}, []string{"backend", "operation", "outcome"})
)

// ToggleState labels a toggle result.
func ToggleState(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}

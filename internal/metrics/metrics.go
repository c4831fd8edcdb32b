// Package metrics provides Prometheus metrics for the reader.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BackendRequestsTotal counts backend calls by operation and outcome.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laune",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total number of backend API calls",
		},
		[]string{"operation", "outcome"},
	)

	// BackendRequestDuration measures backend call latency.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laune",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend API calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// CoordinatorTransitionsTotal counts bulk fetch status changes.
	CoordinatorTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laune",
			Subsystem: "bulkfetch",
			Name:      "transitions_total",
			Help:      "Total number of bulk fetch coordinator transitions by target status",
		},
		[]string{"status"},
	)

	// BulkFetchPageSize observes the number of articles returned per page.
	BulkFetchPageSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "laune",
			Subsystem: "bulkfetch",
			Name:      "page_articles",
			Help:      "Distribution of articles returned per bulk fetch page",
			Buckets:   []float64{0, 10, 25, 50, 100, 200},
		},
	)

	// CacheLookupsTotal counts query cache lookups by result (hit, miss, shared).
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laune",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of query cache lookups",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks the number of browser sessions holding a coordinator.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "laune",
			Name:      "active_sessions",
			Help:      "Number of browser sessions with a bulk fetch coordinator",
		},
	)
)

// RecordBackendCall records one backend call.
func RecordBackendCall(operation, outcome string, duration time.Duration) {
	BackendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTransition records a coordinator entering status.
func RecordTransition(status string) {
	CoordinatorTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordCacheLookup records a query cache lookup.
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

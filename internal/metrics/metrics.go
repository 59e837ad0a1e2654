package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// once guards registration; the default registry panics on duplicates.
var once sync.Once

var (
	// HTTPRequestsTotal counts finished requests by route template, not raw path.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// CacheOperations counts redirect cache lookups by result: hit, miss, error.
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_cache_operations_total",
			Help: "Redirect cache operations by result.",
		},
		[]string{"result"},
	)

	// ShortCodeCollisions counts generated codes rejected by the existence check or the unique index.
	ShortCodeCollisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "short_code_collisions_total",
			Help: "Short code collisions by detection stage.",
		},
		[]string{"stage"},
	)
)

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			CacheOperations,
			ShortCodeCollisions,
		)
	})
}

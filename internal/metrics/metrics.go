// Package metrics defines Prometheus metrics for finder.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_searches_total",
			Help: "Total keyword searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finder_search_duration_seconds",
			Help:    "Duration of a multi-entity search in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BucketItems = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finder_bucket_total_items",
			Help:    "Matching rows per entity bucket",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"entity"},
	)

	SearchLogWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_search_log_writes_total",
			Help: "Audit log appends by outcome",
		},
		[]string{"outcome"},
	)

	SearchLogsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "finder_search_logs_pruned_total",
			Help: "Audit rows removed by retention",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		SearchesTotal, SearchDuration, BucketItems,
		SearchLogWrites, SearchLogsPruned,
	)
}

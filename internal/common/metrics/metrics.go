// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_engine_queries_total",
			Help: "Total number of queries processed, by intent",
		},
		[]string{"intent"},
	)

	QueriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_engine_queries_failed_total",
			Help: "Total number of queries that failed, by intent and error code",
		},
		[]string{"intent", "error_code"},
	)

	BackendSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_engine_backend_selected_total",
			Help: "Routing decisions by backend and whether it was the primary source",
		},
		[]string{"source", "primary"},
	)

	BackendQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "query_engine_backend_query_duration_seconds",
			Help: "Duration of backend query execution in seconds",
		},
		[]string{"source"},
	)

	BackendQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_engine_backend_query_errors_total",
			Help: "Backend query failures absorbed by partial-result handling",
		},
		[]string{"source"},
	)

	MergeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "query_engine_merge_duration_seconds",
			Help: "Duration of result merging in seconds",
		},
		[]string{"intent"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_engine_cache_hits_total",
			Help: "Total number of result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_engine_cache_misses_total",
			Help: "Total number of result cache misses",
		},
	)
)

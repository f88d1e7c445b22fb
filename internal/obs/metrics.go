package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments exported by the graph core and
// its orchestrator, registered via promauto the same way the teacher
// registers its own.
type Metrics struct {
	NodeInserts   prometheus.Counter
	SearchQueries prometheus.Counter
	SearchErrors  prometheus.Counter
	SearchLatency prometheus.Histogram
	// DiversityReject and DiversityAccept are registered but not yet wired
	// to neighbor.DiversityFilter — that filter lives under internal/graph/
	// neighbor, which doesn't currently take a *Metrics. TODO: thread one
	// through once a filter call site needs per-candidate accept/reject
	// counts.
	DiversityReject prometheus.Counter
	DiversityAccept prometheus.Counter
	// CASRetries is registered but not yet incremented. TODO: increment from
	// neighbor.Set's CAS retry loop once Set takes a *Metrics.
	CASRetries prometheus.Counter
	// MergeResultSize is registered but not yet observed. TODO: observe from
	// neighbor.Array's merge step once it takes a *Metrics.
	MergeResultSize prometheus.Histogram
	// SetEvictionDepth is registered but not yet observed. TODO: observe from
	// the diversity filter's eviction pass once it takes a *Metrics.
	SetEvictionDepth prometheus.Histogram
}

// NewMetrics creates and registers a fresh Metrics instance against
// prometheus.DefaultRegisterer. Call at most once per process (promauto
// panics on duplicate registration) — callers that need an isolated
// registry, such as tests that construct more than one Metrics in the same
// binary, should use NewMetricsFor instead.
func NewMetrics() *Metrics {
	return NewMetricsFor(prometheus.DefaultRegisterer)
}

// NewMetricsFor creates and registers a fresh Metrics instance against reg.
func NewMetricsFor(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NodeInserts: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswcore_node_inserts_total",
			Help: "Total nodes inserted into the graph",
		}),
		SearchQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswcore_search_queries_total",
			Help: "Total search queries served",
		}),
		SearchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswcore_search_errors_total",
			Help: "Total search queries that returned an error",
		}),
		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswcore_search_latency_seconds",
			Help:    "Search query latency",
			Buckets: prometheus.DefBuckets,
		}),
		DiversityReject: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswcore_diversity_filter_rejected_total",
			Help: "Total candidates rejected by the RNG diversity filter",
		}),
		DiversityAccept: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswcore_diversity_filter_accepted_total",
			Help: "Total candidates accepted by the RNG diversity filter",
		}),
		CASRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswcore_set_cas_retries_total",
			Help: "Total compare-and-swap retries across all neighbor sets",
		}),
		MergeResultSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswcore_merge_result_size",
			Help:    "Size of the result of a neighbor-array merge",
			Buckets: prometheus.LinearBuckets(0, 8, 16),
		}),
		SetEvictionDepth: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswcore_set_eviction_depth",
			Help:    "Number of neighbors evicted by a single diversity re-pass",
			Buckets: prometheus.LinearBuckets(0, 4, 8),
		}),
	}
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Loader Prometheus metrics.
var (
	LoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocatalog",
			Name:      "loads_total",
			Help:      "Total number of group loads",
		},
		[]string{"kind", "status"}, // "ok" / "error" / "cancelled"
	)

	LoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geocatalog",
			Name:      "load_duration_seconds",
			Help:      "Group load duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocatalog",
			Name:      "records_total",
			Help:      "Search records processed, by outcome (item or skip reason)",
		},
		[]string{"kind", "outcome"},
	)

	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocatalog",
			Name:      "probes_total",
			Help:      "Total number of asset existence probes",
		},
		[]string{"result"}, // "present" / "absent" / "error"
	)

	ProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "geocatalog",
			Name:      "probe_duration_seconds",
			Help:      "Asset existence probe duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocatalog",
			Name:      "search_requests_total",
			Help:      "Total number of remote search requests",
		},
		[]string{"kind", "status"},
	)

	ProbeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocatalog",
			Name:      "probe_cache_total",
			Help:      "Probe cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var loaderMetricsRegistered bool

// RegisterLoaderMetrics registers Prometheus loader metrics. Must be called once from main.
func RegisterLoaderMetrics() {
	if loaderMetricsRegistered {
		return
	}
	prometheus.MustRegister(LoadsTotal)
	prometheus.MustRegister(LoadDuration)
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(ProbesTotal)
	prometheus.MustRegister(ProbeDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(ProbeCacheTotal)
	loaderMetricsRegistered = true
}

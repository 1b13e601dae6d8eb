package metrics

import "github.com/prometheus/client_golang/prometheus"

// Catalog Prometheus metrics.
var (
	IndexSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "index_submissions_total",
			Help:      "Total documents submitted to the search index",
		},
		[]string{"kind"},
	)

	IndexRemovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "index_removals_total",
			Help:      "Total documents removed from the search index",
		},
		[]string{"kind"},
	)

	ImportRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "import_rows_total",
			Help:      "Total import rows processed",
		},
		[]string{"source", "result"}, // result: "ok" / "error"
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "search_requests_total",
			Help:      "Total book search requests",
		},
		[]string{"result"}, // "ok" / "parse_error" / "unavailable"
	)
)

var catalogMetricsRegistered bool

// RegisterCatalogMetrics registers catalog Prometheus metrics. Must be called once from main.
func RegisterCatalogMetrics() {
	if catalogMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexSubmissionsTotal)
	prometheus.MustRegister(IndexRemovalsTotal)
	prometheus.MustRegister(ImportRowsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	catalogMetricsRegistered = true
}

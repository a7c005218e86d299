package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Prometheus для API и фоновых задач
var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RelationToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_toggles_total",
			Help: "Total number of relation add/remove operations",
		},
		[]string{"kind", "operation", "result"},
	)

	ShoppingListBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_builds_total",
			Help: "Total number of shopping list aggregations",
		},
		[]string{"result"},
	)

	ShoppingListExports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_exports_total",
			Help: "Total number of processed shopping list export jobs",
		},
		[]string{"result"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Result переводит ошибку в метку результата
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

package aggregate

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookupsTotal *prometheus.CounterVec
	generatedTotal    *prometheus.CounterVec

	metricsOnce sync.Once
)

// initMetrics registers the Prometheus collectors for the aggregation
// pipeline. It is safe to call multiple times.
func initMetrics() {
	metricsOnce.Do(func() {
		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musigraph_aggregation_cache_lookups_total",
				Help: "Total aggregation cache lookups, labeled by type and result.",
			},
			[]string{"type", "result"},
		)

		generatedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musigraph_aggregations_generated_total",
				Help: "Total aggregations generated, labeled by type and normalization.",
			},
			[]string{"type", "normalized"},
		)
	})
}

func observeCacheLookup(typ Type, hit bool) {
	initMetrics()
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(string(typ), result).Inc()
}

func observeGenerated(typ Type, normalized bool) {
	initMetrics()
	generatedTotal.WithLabelValues(string(typ), strconv.FormatBool(normalized)).Inc()
}

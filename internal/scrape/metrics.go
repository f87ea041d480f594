package scrape

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/musigraph/crawler/internal/store"
)

const (
	outcomeScraped  = "scraped"
	outcomeStoreHit = "store_hit"
)

var (
	entitiesScrapedTotal        *prometheus.CounterVec
	extractionDegradationsTotal *prometheus.CounterVec
	fetchErrorsTotal            *prometheus.CounterVec

	metricsOnce sync.Once
)

// initMetrics registers the Prometheus collectors for the scrape pipeline.
// It is safe to call multiple times.
func initMetrics() {
	metricsOnce.Do(func() {
		entitiesScrapedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musigraph_entities_scraped_total",
				Help: "Total entity scrapes completed, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		extractionDegradationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musigraph_extraction_degradations_total",
				Help: "Total per-field extraction degradations, labeled by kind and field.",
			},
			[]string{"kind", "field"},
		)

		fetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musigraph_fetch_errors_total",
				Help: "Total fatal page fetch errors, labeled by kind.",
			},
			[]string{"kind"},
		)
	})
}

func observeScrape(kind store.Kind, outcome string) {
	initMetrics()
	entitiesScrapedTotal.WithLabelValues(string(kind), outcome).Inc()
}

func observeDegradation(kind store.Kind, field string) {
	initMetrics()
	extractionDegradationsTotal.WithLabelValues(string(kind), field).Inc()
}

func observeFetchError(kind store.Kind) {
	initMetrics()
	fetchErrorsTotal.WithLabelValues(string(kind)).Inc()
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// extraction engine.
type Metrics struct {
	ExtractionsTotal prometheus.Counter
	SitesExtracted   prometheus.Counter
	SiteFailures     *prometheus.CounterVec // labels: reason={no_neighbour,correction}
	ExtractionActive prometheus.Gauge

	ExtractionDuration prometheus.Histogram
	GridCells          prometheus.Histogram

	// Grid index metrics.
	IndexBuilds prometheus.Counter
	IndexCache  *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all extraction metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ExtractionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spot_extract",
			Name:      "extractions_total",
			Help:      "Total diagnostic extraction runs.",
		}),
		SitesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spot_extract",
			Name:      "sites_extracted_total",
			Help:      "Total sites successfully extracted across all runs.",
		}),
		SiteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spot_extract",
			Name:      "site_failures_total",
			Help:      "Per-site extraction failures by reason.",
		}, []string{"reason"}),
		ExtractionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spot_extract",
			Name:      "extraction_active",
			Help:      "1 while an extraction run is in progress, 0 otherwise.",
		}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spot_extract",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of one complete diagnostic extraction run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		GridCells: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spot_extract",
			Name:      "grid_cells",
			Help:      "Number of cells in grids submitted for extraction.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
		}),
		IndexBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spot_extract",
			Name:      "index_builds_total",
			Help:      "Total KD-tree index builds.",
		}),
		IndexCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spot_extract",
			Name:      "index_cache_total",
			Help:      "Grid index cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.ExtractionsTotal,
		m.SitesExtracted,
		m.SiteFailures,
		m.ExtractionActive,
		m.ExtractionDuration,
		m.GridCells,
		m.IndexBuilds,
		m.IndexCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ExtractionsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "spot_extract", Name: "extractions_total"}),
		SitesExtracted:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "spot_extract", Name: "sites_extracted_total"}),
		SiteFailures:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "spot_extract", Name: "site_failures_total"}, []string{"reason"}),
		ExtractionActive:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "spot_extract", Name: "extraction_active"}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "spot_extract", Name: "extraction_duration_seconds"}),
		GridCells:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "spot_extract", Name: "grid_cells"}),
		IndexBuilds:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "spot_extract", Name: "index_builds_total"}),
		IndexCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "spot_extract", Name: "index_cache_total"}, []string{"result"}),
	}
}

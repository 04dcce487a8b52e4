package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "soilgen"

// Metrics holds the Prometheus counters, histograms, and gauges for a soil generation run.
type Metrics struct {
	ComponentsProcessed prometheus.Counter
	ComponentsFailed    prometheus.Counter
	FilesWritten        prometheus.Counter
	RunInProgress       prometheus.Gauge

	// FieldDefaults counts default substitutions. labels: field={sandtotal_r,claytotal_r,...}
	FieldDefaults *prometheus.CounterVec

	ComponentDuration prometheus.Histogram

	// Horizon cache lookups. labels: result={hit,miss}
	HorizonCache *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ComponentsProcessed,
		m.ComponentsFailed,
		m.FilesWritten,
		m.RunInProgress,
		m.FieldDefaults,
		m.ComponentDuration,
		m.HorizonCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ComponentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_processed_total",
			Help:      "Total components whose soil files were written.",
		}),
		ComponentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_failed_total",
			Help:      "Total components that failed to generate.",
		}),
		FilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Total .sol files written to the sink.",
		}),
		RunInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_in_progress",
			Help:      "1 while a batch is being processed, 0 otherwise.",
		}),
		FieldDefaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_defaults_total",
			Help:      "Horizon fields replaced by their default value, by field.",
		}, []string{"field"}),
		ComponentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "component_duration_seconds",
			Help:      "Time to query, generate and write one component.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		HorizonCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "horizon_cache_total",
			Help:      "Horizon cache lookups by result.",
		}, []string{"result"}),
	}
}

package vector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricIndexEmbedRuns     = "index_embed_runs_total"
	MetricIndexEmbedErrors   = "index_embed_errors_total"
	MetricIndexEmbedDuration = "index_embed_duration_seconds"
	MetricIndexEmbedded      = "index_embedded_reviews_total"
	MetricIndexEmbedFailures = "index_embed_review_failures_total"
	MetricIndexLastPlanned   = "index_last_embed_planned"
)

// Metrics contains Prometheus metrics for the embedding coordinator.
// All operations are thread-safe.
type Metrics struct {
	runsTotal      prometheus.Counter
	runErrors      prometheus.Counter
	runDuration    prometheus.Histogram
	embeddedTotal  prometheus.Counter
	embedFailures  prometheus.Counter
	lastRunPlanned prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricIndexEmbedRuns,
			Help: "Total number of embedding coordinator runs",
		}),
		runErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricIndexEmbedErrors,
			Help: "Total number of failed embedding coordinator runs",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricIndexEmbedDuration,
			Help:    "Histogram of embedding run duration in seconds",
			Buckets: []float64{0.5, 1.0, 5.0, 15.0, 60.0, 300.0, 900.0},
		}),
		embeddedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricIndexEmbedded,
			Help: "Total reviews successfully embedded into the index",
		}),
		embedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricIndexEmbedFailures,
			Help: "Total per-review embedding failures, skipped not fatal",
		}),
		lastRunPlanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricIndexLastPlanned,
			Help: "Number of reviews the last run planned to embed",
		}),
	}
}

// Collectors returns all metric collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runErrors,
		m.runDuration,
		m.embeddedTotal,
		m.embedFailures,
		m.lastRunPlanned,
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRunsTotal increments the total run counter.
func (m *Metrics) IncRunsTotal() { m.runsTotal.Inc() }

// IncRunErrors increments the failed run counter.
func (m *Metrics) IncRunErrors() { m.runErrors.Inc() }

// ObserveRunDuration records the duration of a run in seconds.
func (m *Metrics) ObserveRunDuration(seconds float64) { m.runDuration.Observe(seconds) }

// AddEmbedded records successfully embedded reviews.
func (m *Metrics) AddEmbedded(n float64) { m.embeddedTotal.Add(n) }

// IncEmbedFailures increments the per-review failure counter.
func (m *Metrics) IncEmbedFailures() { m.embedFailures.Inc() }

// SetLastRunPlanned records how many reviews the last run planned.
func (m *Metrics) SetLastRunPlanned(n float64) { m.lastRunPlanned.Set(n) }

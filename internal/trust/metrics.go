package trust

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricTrustRecomputeTotal              = "trust_recompute_total"
	MetricTrustRecomputeErrors             = "trust_recompute_errors_total"
	MetricTrustRecomputeDuration           = "trust_recompute_duration_seconds"
	MetricTrustLastRecomputeTimestamp      = "trust_last_recompute_timestamp"
	MetricTrustLastRecomputeReviewCount    = "trust_last_recompute_review_count"
	MetricTrustLastRecomputeRestaurantCnt  = "trust_last_recompute_restaurant_count"
)

// Metrics contains Prometheus metrics for trust recomputation.
// All operations are thread-safe.
type Metrics struct {
	runsTotal               prometheus.Counter
	runErrors               prometheus.Counter
	runDuration             prometheus.Histogram
	lastRunTimestamp        prometheus.Gauge
	lastRunReviewCount      prometheus.Gauge
	lastRunRestaurantCount  prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTrustRecomputeTotal,
			Help: "Total number of trust recompute runs",
		}),
		runErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTrustRecomputeErrors,
			Help: "Total number of failed trust recompute runs",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricTrustRecomputeDuration,
			Help:    "Histogram of trust recompute duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrustLastRecomputeTimestamp,
			Help: "Unix timestamp of the last successful trust recompute",
		}),
		lastRunReviewCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrustLastRecomputeReviewCount,
			Help: "Number of reviews scored in the last trust recompute",
		}),
		lastRunRestaurantCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrustLastRecomputeRestaurantCnt,
			Help: "Number of restaurants aggregated in the last trust recompute",
		}),
	}
}

// Collectors returns all metric collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runErrors,
		m.runDuration,
		m.lastRunTimestamp,
		m.lastRunReviewCount,
		m.lastRunRestaurantCount,
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

// SetLastRunTimestamp records the completion time of the last run.
func (m *Metrics) SetLastRunTimestamp(ts float64) { m.lastRunTimestamp.Set(ts) }

// SetLastRunReviewCount records how many reviews the last run scored.
func (m *Metrics) SetLastRunReviewCount(n float64) { m.lastRunReviewCount.Set(n) }

// SetLastRunRestaurantCount records how many restaurants the last run aggregated.
func (m *Metrics) SetLastRunRestaurantCount(n float64) { m.lastRunRestaurantCount.Set(n) }

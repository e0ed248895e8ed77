package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricIngestEvents         = "ingest_events_total"
	MetricIngestDecodeFailures = "ingest_decode_failures_total"
	MetricIngestFailedEntities = "ingest_failed_entities_total"
)

// Metrics contains Prometheus metrics for stream ingestion.
// All operations are thread-safe.
type Metrics struct {
	events         *prometheus.CounterVec
	decodeFailures prometheus.Counter
	failedEntities prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricIngestEvents,
			Help: "Stream events processed, by kind and outcome",
		}, []string{"kind", "status"}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricIngestDecodeFailures,
			Help: "Stream frames dropped because they could not be decoded",
		}),
		failedEntities: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricIngestFailedEntities,
			Help: "Entities marked failed after exhausting the write-failure cap",
		}),
	}
}

// Collectors returns all metric collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.events,
		m.decodeFailures,
		m.failedEntities,
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

// IncEvents increments the event counter for a kind and outcome.
func (m *Metrics) IncEvents(kind, status string) { m.events.WithLabelValues(kind, status).Inc() }

// IncDecodeFailures increments the decode failure counter.
func (m *Metrics) IncDecodeFailures() { m.decodeFailures.Inc() }

// IncFailedEntities increments the failed entity counter.
func (m *Metrics) IncFailedEntities() { m.failedEntities.Inc() }

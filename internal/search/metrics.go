package search

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for the query path.
type Metrics struct {
	SearchesTotal       *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	OracleFailuresTotal *prometheus.CounterVec
	ResultsReturned     prometheus.Histogram
}

// NewMetrics creates the search metric set. Call Register to attach it
// to a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_requests_total",
				Help: "Search requests by retrieval mode.",
			},
			[]string{"mode"},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_duration_seconds",
				Help:    "End-to-end search latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		OracleFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_oracle_failures_total",
				Help: "Retrieval oracle failures by oracle name.",
			},
			[]string{"oracle"},
		),
		ResultsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_returned",
				Help:    "Number of restaurants returned per search.",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
	}
}

// Collectors returns all collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SearchesTotal,
		m.SearchDuration,
		m.OracleFailuresTotal,
		m.ResultsReturned,
	}
}

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "incident_reports"

// Metrics holds the Prometheus counters and histograms for the report service.
type Metrics struct {
	// Submission metrics.
	ReportsSubmitted *prometheus.CounterVec // labels: outcome={stored,unauthorized,invalid,error}
	EnrichmentSteps  *prometheus.CounterVec // labels: step, outcome={success,failure,skipped}
	EventsPublished  *prometheus.CounterVec // labels: outcome={success,error}

	// Query metrics.
	Queries      *prometheus.CounterVec // labels: format, outcome={success,invalid,error}
	RowsReturned prometheus.Histogram

	// External service metrics.
	ExternalDuration *prometheus.HistogramVec // labels: service
	GeocodeCache     *prometheus.CounterVec   // labels: result={hit,miss}
	WeatherCache     *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.EnrichmentSteps,
		m.EventsPublished,
		m.Queries,
		m.RowsReturned,
		m.ExternalDuration,
		m.GeocodeCache,
		m.WeatherCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can construct as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submitted_total",
			Help:      "Report submissions by outcome.",
		}, []string{"outcome"}),
		EnrichmentSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_total",
			Help:      "Enrichment step executions by step and outcome.",
		}, []string{"step", "outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Report events written to Kafka by outcome.",
		}, []string{"outcome"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Report queries by output format and outcome.",
		}, []string{"format", "outcome"}),
		RowsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_rows",
			Help:      "Rows returned per report query.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		ExternalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "External API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the enrichment job and read API.
type Metrics struct {
	// Upstream weather API.
	WeatherRequests *prometheus.CounterVec   // labels: endpoint={current,historical}, outcome={success,error}
	WeatherDuration *prometheus.HistogramVec // labels: endpoint

	// Enrichment runs.
	CitiesProcessed  *prometheus.CounterVec // labels: outcome={success,failure}
	RunDuration      prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	LastRunFailures  prometheus.Gauge

	// Read API.
	PayloadCache *prometheus.CounterVec // labels: payload, result={hit,miss}
}

// collectors lists every collector so registries and pushers see the same set.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.WeatherRequests,
		m.WeatherDuration,
		m.CitiesProcessed,
		m.RunDuration,
		m.LastRunTimestamp,
		m.LastRunFailures,
		m.PayloadCache,
	}
}

func newMetrics() *Metrics {
	return &Metrics{
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlas",
			Name:      "weather_requests_total",
			Help:      "Open-Meteo requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		WeatherDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atlas",
			Name:      "weather_request_duration_seconds",
			Help:      "Open-Meteo request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		CitiesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlas",
			Name:      "cities_processed_total",
			Help:      "Cities processed by the climate enrichment job by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "atlas",
			Name:      "enrichment_run_duration_seconds",
			Help:      "Duration of a complete climate enrichment run.",
			Buckets:   []float64{5, 10, 20, 30, 60, 120, 300},
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atlas",
			Name:      "enrichment_last_run_timestamp_seconds",
			Help:      "Unix time at which the last enrichment run finished.",
		}),
		LastRunFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atlas",
			Name:      "enrichment_last_run_failures",
			Help:      "Number of cities that failed in the last enrichment run.",
		}),
		PayloadCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlas",
			Name:      "payload_cache_total",
			Help:      "Read API cache lookups by payload and result.",
		}, []string{"payload", "result"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

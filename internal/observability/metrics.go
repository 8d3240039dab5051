package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the dashboard core.
type Metrics struct {
	WeatherFetches  *prometheus.CounterVec // label: outcome={success,failure,stale}
	FireSpotFetches *prometheus.CounterVec // label: outcome={success,failure}
	FetchDuration   prometheus.Histogram
	ActiveSessions  prometheus.Gauge
}

// NewMetrics creates and registers all instruments with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.WeatherFetches,
		m.FireSpotFetches,
		m.FetchDuration,
		m.ActiveSessions,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firewatch",
			Name:      "weather_fetches_total",
			Help:      "Weather fetches by outcome; stale means a superseded response was discarded.",
		}, []string{"outcome"}),
		FireSpotFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firewatch",
			Name:      "firespot_fetches_total",
			Help:      "Fire spot fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "firewatch",
			Name:      "weather_fetch_duration_seconds",
			Help:      "Duration of upstream weather requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "firewatch",
			Name:      "active_sessions",
			Help:      "Number of live dashboard sessions.",
		}),
	}
}

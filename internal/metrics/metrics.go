package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the client.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	SearchesTotal     *prometheus.CounterVec
	SecondaryFailures *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buysmart_api_requests_total",
			Help: "Total API calls issued by the client, by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "buysmart_api_request_duration_seconds",
			Help: "API call latency by operation.",
			// live scraping runs into the tens of seconds
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
		},
		[]string{"op"},
	)
	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buysmart_searches_total",
			Help: "Searches by terminal outcome (succeeded, failed, superseded).",
		},
		[]string{"outcome"},
	)
	secondary := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buysmart_secondary_failures_total",
			Help: "Best-effort calls that failed and were ignored.",
		},
		[]string{"op"},
	)

	registry.MustRegister(requests, duration, searches, secondary)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   duration,
		SearchesTotal:     searches,
		SecondaryFailures: secondary,
	}
}

// ObserveRequest records one API call.
func (m *Metrics) ObserveRequest(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, outcome).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncSearch increments the searches counter for an outcome.
func (m *Metrics) IncSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
}

// IncSecondaryFailure increments the ignored-failure counter.
func (m *Metrics) IncSecondaryFailure(op string) {
	if m == nil {
		return
	}
	m.SecondaryFailures.WithLabelValues(op).Inc()
}

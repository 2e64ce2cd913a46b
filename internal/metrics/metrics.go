// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trimetric"

// Factor update outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the service collectors around one registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	FactorUpdates   *prometheus.CounterVec
	LiveSubscribers prometheus.Gauge
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time spent serving HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		FactorUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "factor_updates_total",
				Help:      "Factor update attempts by outcome.",
			},
			[]string{"outcome"},
		),
		LiveSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_subscribers",
				Help:      "Open websocket score subscriptions.",
			},
		),
	}
	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.FactorUpdates,
		m.LiveSubscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveFactorUpdate counts one update attempt.
func (m *Metrics) ObserveFactorUpdate(outcome string) {
	if m == nil {
		return
	}
	m.FactorUpdates.WithLabelValues(outcome).Inc()
}

// Package metrics exposes Prometheus instrumentation for the policy engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Decision metrics
	DecisionsTotal *prometheus.CounterVec

	// Store metrics
	StoreErrors prometheus.Counter

	// Host metrics
	NavigationsIntercepted prometheus.Counter
	RedirectFailures       prometheus.Counter
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		DecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabfence_decisions_total",
				Help: "Total number of navigation decisions",
			},
			[]string{"outcome", "reason"},
		),
		StoreErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabfence_store_errors_total",
				Help: "Total number of settings store failures",
			},
		),
		NavigationsIntercepted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabfence_navigations_intercepted_total",
				Help: "Total number of top-level navigations inspected",
			},
		),
		RedirectFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabfence_redirect_failures_total",
				Help: "Total number of confirmation redirects that could not be issued",
			},
		),
	}
}

// RecordDecision counts one decision by outcome and reason.
func (m *Metrics) RecordDecision(outcome, reason string) {
	m.DecisionsTotal.WithLabelValues(outcome, reason).Inc()
}

// ObserveChannels publishes the UI channel count as a gauge. The callback is
// polled at scrape time.
func (m *Metrics) ObserveChannels(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tabfence_ui_channels",
			Help: "Number of attached dashboard channels",
		},
		func() float64 { return float64(count()) },
	))
}

// ObserveTabs publishes the tracked tab count as a gauge.
func (m *Metrics) ObserveTabs(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tabfence_tabs_tracked",
			Help: "Number of tabs currently tracked",
		},
		func() float64 { return float64(count()) },
	))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

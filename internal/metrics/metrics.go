// Package metrics exposes Prometheus counters for the trip workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	gates       *prometheus.CounterVec
	published   *prometheus.CounterVec
}

// New registers the workflow counters and the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripdesk",
			Name:      "trip_transitions_total",
			Help:      "Trip status transitions, by source and target status.",
		}, []string{"from", "to"}),
		gates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripdesk",
			Name:      "trip_gate_failures_total",
			Help:      "Operations stopped by a business rule, by gate.",
		}, []string{"gate"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripdesk",
			Name:      "notifications_total",
			Help:      "Notifications stored, by type and publish outcome.",
		}, []string{"type", "outcome"}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.gates,
		m.published,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Transition counts a status change. A new trip reports from as "new".
func (m *Metrics) Transition(from, to string) {
	if from == "" {
		from = "new"
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// GateFailure counts an operation blocked by gate.
func (m *Metrics) GateFailure(gate string) {
	m.gates.WithLabelValues(gate).Inc()
}

// Notification counts a stored notification; published reports whether the
// realtime fan-out succeeded.
func (m *Metrics) Notification(typ string, published bool) {
	outcome := "published"
	if !published {
		outcome = "publish_failed"
	}
	m.published.WithLabelValues(typ, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

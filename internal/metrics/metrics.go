// Package metrics exposes Prometheus metrics for the guard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lds.li/preflight"
)

// Metrics holds the guard's Prometheus collectors, on their own registry.
type Metrics struct {
	decisions *prometheus.CounterVec
	registry  *prometheus.Registry
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preflight_guard_decisions_total",
				Help: "Requests to protected paths, by path and whether they were passed through or rejected",
			},
			[]string{"path", "decision"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.decisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveDecision counts a classified request. It has the signature of
// preflight.Config.OnDecision. Only protected paths are classified, so the
// path label is bounded by the config.
func (m *Metrics) ObserveDecision(r *http.Request, d preflight.Decision) {
	m.decisions.WithLabelValues(r.URL.Path, d.String()).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

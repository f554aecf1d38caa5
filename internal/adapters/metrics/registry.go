package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ComponentRegistry owns a private prometheus registry and names every metric
// under one namespace and subsystem.
type ComponentRegistry struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry
	factory   promauto.Factory
}

// NewComponentRegistry creates a registry for a component
func NewComponentRegistry(namespace, subsystem string) *ComponentRegistry {
	registry := prometheus.NewRegistry()
	return &ComponentRegistry{
		namespace: namespace,
		subsystem: subsystem,
		registry:  registry,
		factory:   promauto.With(registry),
	}
}

// NewCounterVec creates a new counter vector with proper naming
func (r *ComponentRegistry) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	opts.Namespace = r.namespace
	opts.Subsystem = r.subsystem
	return r.factory.NewCounterVec(opts, labelNames)
}

// NewGauge creates a new gauge with proper naming
func (r *ComponentRegistry) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace = r.namespace
	opts.Subsystem = r.subsystem
	return r.factory.NewGauge(opts)
}

// NewHistogramVec creates a new histogram vector with proper naming
func (r *ComponentRegistry) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string,
) *prometheus.HistogramVec {
	opts.Namespace = r.namespace
	opts.Subsystem = r.subsystem
	return r.factory.NewHistogramVec(opts, labelNames)
}

// Handler serves the registry in the prometheus exposition format
func (r *ComponentRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry
func (r *ComponentRegistry) Gatherer() prometheus.Gatherer {
	return r.registry
}

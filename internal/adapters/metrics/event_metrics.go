package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trebuchet-org/treb-safe/internal/events"
)

const (
	namespace = "treb_safe"
	subsystem = "pipeline"
)

// EventMetrics turns lifecycle events into prometheus series
type EventMetrics struct {
	registry *ComponentRegistry
	log      *slog.Logger
	now      func() time.Time

	events   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge

	mu      sync.Mutex
	started map[string]time.Time
	unsub   func()
}

// NewEventMetrics creates the collectors on a fresh registry
func NewEventMetrics(log *slog.Logger) *EventMetrics {
	registry := NewComponentRegistry(namespace, subsystem)
	return &EventMetrics{
		registry: registry,
		log:      log.With("component", "metrics"),
		now:      time.Now,
		events: registry.NewCounterVec(prometheus.CounterOpts{
			Name: "events_total",
			Help: "Lifecycle events published, by kind",
		}, []string{"kind"}),
		latency: registry.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "confirmation_seconds",
			Help:    "Time from submission to a final outcome",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"outcome"}),
		inFlight: registry.NewGauge(prometheus.GaugeOpts{
			Name: "in_flight",
			Help: "Transactions submitted and not yet final",
		}),
		started: make(map[string]time.Time),
	}
}

// Attach subscribes to every event kind on bus
func (m *EventMetrics) Attach(bus *events.Bus) {
	m.Detach()
	unsub := bus.SubscribeAll(m.observe)
	m.mu.Lock()
	m.unsub = unsub
	m.mu.Unlock()
}

// Detach stops observing
func (m *EventMetrics) Detach() {
	m.mu.Lock()
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (m *EventMetrics) observe(event events.Event) {
	m.events.WithLabelValues(string(event.Kind)).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case event.Kind == events.KindExecuting:
		if _, ok := m.started[event.TxID]; !ok {
			m.started[event.TxID] = m.now()
			m.inFlight.Inc()
		}
	case event.Kind.IsTerminal():
		start, ok := m.started[event.TxID]
		if !ok {
			return
		}
		delete(m.started, event.TxID)
		m.inFlight.Dec()
		m.latency.WithLabelValues(string(event.Kind)).Observe(m.now().Sub(start).Seconds())
	}
}

// Handler serves the collected metrics
func (m *EventMetrics) Handler() http.Handler {
	return m.registry.Handler()
}

// Serve exposes the metrics on addr until ctx is done
func (m *EventMetrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	m.log.Info("serving metrics", "addr", listener.Addr().String())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

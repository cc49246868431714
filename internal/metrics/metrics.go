// Package metrics records journal operation outcomes on a private
// Prometheus registry.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements journal.Recorder.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	persists   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

var _ journal.Recorder = (*Metrics)(nil)

// New registers the journal collectors plus Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epistles_operations_total",
			Help: "Journal operations by name and result.",
		}, []string{"op", "result"}),
		persists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epistles_persist_writes_total",
			Help: "Writes of the journal document to storage by result.",
		}, []string{"result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epistles_operation_duration_seconds",
			Help:    "Time spent applying a journal operation, including the storage write.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.operations,
		m.persists,
		m.durations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe counts one operation.
func (m *Metrics) Observe(op string, err error, d time.Duration) {
	m.operations.WithLabelValues(op, result(err)).Inc()
	m.durations.WithLabelValues(op).Observe(d.Seconds())
}

// PersistResult counts one storage write.
func (m *Metrics) PersistResult(err error) {
	if err != nil {
		m.persists.WithLabelValues("error").Inc()
		return
	}
	m.persists.WithLabelValues("ok").Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, journal.ErrProjectLimit),
		errors.Is(err, journal.ErrBlankIdea),
		errors.Is(err, journal.ErrInvalidImport),
		errors.Is(err, journal.ErrInvalidDay),
		errors.Is(err, journal.ErrInvalidMonth):
		return "rejected"
	default:
		return "error"
	}
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomeRejected     = "rejected"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	hashDuration *prometheus.HistogramVec
	hashInFlight prometheus.Gauge
}

// New registers collectors on a fresh registry, so tests can build as many as
// they like without clashing on the global default.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "auth_operations_total",
			Help:      "Auth operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gophauth",
			Name:      "password_hash_seconds",
			Help:      "Time spent in Argon2id hash and verify.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		hashInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gophauth",
			Name:      "password_hash_in_flight",
			Help:      "Hash jobs currently holding a worker slot.",
		}),
	}

	reg.MustRegister(
		m.operations,
		m.hashDuration,
		m.hashInFlight,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation is nil-safe so components can run without metrics.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveHash(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) HashStarted() {
	if m == nil {
		return
	}
	m.hashInFlight.Inc()
}

func (m *Metrics) HashFinished() {
	if m == nil {
		return
	}
	m.hashInFlight.Dec()
}

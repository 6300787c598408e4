package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics tracks session loads and saves per backend.
type SessionMetrics struct {
	OpsTotal   *prometheus.CounterVec
	OpDuration *prometheus.HistogramVec
	Created    *prometheus.CounterVec
}

func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Session loads and saves, by backend, operation and result.",
		}, []string{"backend", "operation", "result"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Duration of session loads and saves in seconds.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		}, []string{"backend", "operation"}),
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Fresh sessions started, by backend.",
		}, []string{"backend"}),
	}

	reg.MustRegister(m.OpsTotal, m.OpDuration, m.Created)
	return m
}

// Observe records one load or save.
func (m *SessionMetrics) Observe(backend, operation string, started time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.OpsTotal.WithLabelValues(backend, operation, result).Inc()
	m.OpDuration.WithLabelValues(backend, operation).Observe(time.Since(started).Seconds())
}

// SessionCreated counts a visitor starting a new session.
func (m *SessionMetrics) SessionCreated(backend string) {
	m.Created.WithLabelValues(backend).Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// ListMetrics counts list manager operations by outcome. It satisfies
// app.OperationRecorder.
type ListMetrics struct {
	OperationsTotal *prometheus.CounterVec
}

func NewListMetrics(reg prometheus.Registerer) *ListMetrics {
	m := &ListMetrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lists",
			Name:      "operations_total",
			Help:      "List and todo operations, by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(m.OperationsTotal)
	return m
}

func (m *ListMetrics) RecordOperation(operation, outcome string) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

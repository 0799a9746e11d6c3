package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "medtransit/pkg/domain-errors"
)

// Metrics provides observability for the trip coordinator. A nil *Metrics
// records nothing.
type Metrics struct {
	// Operations by name and outcome ("ok" or the error code)
	Operations *prometheus.CounterVec

	// Status transitions by from/to status name
	Transitions *prometheus.CounterVec

	// Time spent inside the per-trip serialization point
	OperationLatency *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medtransit_trip_operations_total",
			Help: "Trip coordinator operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medtransit_trip_status_transitions_total",
			Help: "Committed trip status transitions",
		}, []string{"from", "to"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medtransit_trip_operation_duration_seconds",
			Help:    "Duration of trip coordinator operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"operation"}),
	}
}

// ObserveOperation records one operation's outcome and latency.
func (m *Metrics) ObserveOperation(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrementTransition records a committed status change.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

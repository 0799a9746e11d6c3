package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "medtransit/pkg/domain-errors"
)

// Metrics counts registry operations across the driver, vehicle and patient
// registries. A nil *Metrics records nothing.
type Metrics struct {
	Operations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "medtransit_registry_operations_total",
			Help: "Registry operations by registry, operation and outcome (ok or error code)",
		}, []string{"registry", "operation", "outcome"}),
	}
}

// Observe records one operation. The outcome label is "ok" or the error code.
func (m *Metrics) Observe(registry, operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	m.Operations.WithLabelValues(registry, operation, outcome).Inc()
}

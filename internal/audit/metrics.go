package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds audit trail and relay counters.
type Metrics struct {
	Emitted       *prometheus.CounterVec
	Relayed       prometheus.Counter
	RelayFailures prometheus.Counter
	BufferEvicted prometheus.Counter
	BufferDepth   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medtransit_audit_events_total",
			Help: "Audit events appended, by entity kind",
		}, []string{"kind"}),
		Relayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "medtransit_audit_relayed_total",
			Help: "Audit events delivered to the relay sink",
		}),
		RelayFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "medtransit_audit_relay_failures_total",
			Help: "Audit events lost because the relay sink rejected their batch",
		}),
		BufferEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "medtransit_audit_buffer_evicted_total",
			Help: "Audit events evicted from the relay buffer before delivery",
		}),
		BufferDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "medtransit_audit_buffer_depth",
			Help: "Audit events waiting in the relay buffer",
		}),
	}
}

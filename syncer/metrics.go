package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts sync outcomes. A nil *Metrics records nothing.
type Metrics struct {
	ops          *prometheus.CounterVec
	localRecords prometheus.Gauge
}

// NewMetrics creates and registers the sync collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opsreport",
			Subsystem: "sync",
			Name:      "operations_total",
			Help:      "Remote sync operations by op and outcome.",
		}, []string{"op", "outcome"}),
		localRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opsreport",
			Subsystem: "store",
			Name:      "local_records",
			Help:      "Records held by the local store after the last write.",
		}),
	}
	reg.MustRegister(m.ops, m.localRecords)
	return m
}

func (m *Metrics) observe(op Op, outcome string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(string(op), outcome).Inc()
}

func (m *Metrics) setLocal(n int) {
	if m == nil {
		return
	}
	m.localRecords.Set(float64(n))
}

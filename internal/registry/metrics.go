package registry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/registrar/internal/ir"
)

// Metrics records registry activity in Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	committed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	size      *prometheus.GaugeVec
	dropped   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registrar",
			Name:      "entries_committed_total",
			Help:      "Total number of committed registry mutations",
		}, []string{"registry", "op"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registrar",
			Name:      "operations_rejected_total",
			Help:      "Total number of mutations rejected before commit",
		}, []string{"registry", "op", "kind"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "registrar",
			Name:      "active_entries",
			Help:      "Current number of active values or records",
		}, []string{"registry"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registrar",
			Name:      "notifications_dropped_total",
			Help:      "Notifications of a registry's entries skipped because a subscriber was full",
		}, []string{"registry"}),
	}

	for _, c := range []prometheus.Collector{m.committed, m.rejected, m.size, m.dropped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCommit(registry string, op ir.Op, size int) {
	if m == nil {
		return
	}
	m.committed.WithLabelValues(registry, string(op)).Inc()
	m.size.WithLabelValues(registry).Set(float64(size))
}

func (m *Metrics) observeReject(registry string, op ir.Op, err error) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(registry, string(op), string(ir.KindOf(err))).Inc()
}

func (m *Metrics) observeSize(registry string, size int) {
	if m == nil {
		return
	}
	m.size.WithLabelValues(registry).Set(float64(size))
}

func (m *Metrics) observeDropped(registry string, missed int) {
	if m == nil || missed == 0 {
		return
	}
	m.dropped.WithLabelValues(registry).Add(float64(missed))
}

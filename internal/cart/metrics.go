package cart

import (
	"github.com/prometheus/client_golang/prometheus"

	"Jaryq/pkg/kit"
)

const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update"
	opClear  = "clear"

	opLoad = "load"
	opSave = "save"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	Discarded       prometheus.Counter
	ActiveCarts     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: kit.Namespace,
				Name:      "cart_mutations_total",
				Help:      "Cart mutations by operation",
			},
			[]string{"op"},
		),
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: kit.Namespace,
				Name:      "cart_persist_failures_total",
				Help:      "Swallowed cart load/save failures",
			},
			[]string{"op"},
		),
		Discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: kit.Namespace,
			Name:      "cart_discarded_total",
			Help:      "Persisted carts dropped as malformed",
		}),
		ActiveCarts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: kit.Namespace,
			Name:      "cart_active",
			Help:      "Carts held in memory",
		}),
	}

	reg.MustRegister(m.Mutations, m.PersistFailures, m.Discarded, m.ActiveCarts)
	return m
}

func (m *Metrics) mutated(op string) {
	if m != nil {
		m.Mutations.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) persistFailed(op string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) discarded() {
	if m != nil {
		m.Discarded.Inc()
	}
}

func (m *Metrics) activeCarts(n int) {
	if m != nil {
		m.ActiveCarts.Set(float64(n))
	}
}

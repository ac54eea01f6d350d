package experiment

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/hypertune/internal/optimization"
)

const namespace = "hypertune"

// Metrics holds the store's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	active  prometheus.Gauge
	created *prometheus.CounterVec
	asks    *prometheus.CounterVec
	tells   *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "experiments_active",
			Help:      "Number of experiments currently held by the store.",
		}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "experiments_created_total",
			Help:      "Experiments created, by strategy.",
		}, []string{"strategy"}),
		asks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Candidates handed out, by strategy.",
		}, []string{"strategy"}),
		tells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tells_total",
			Help:      "Evaluations recorded, by strategy.",
		}, []string{"strategy"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Rejected store operations, by operation and error kind.",
		}, []string{"operation", "kind"}),
	}

	for _, c := range []prometheus.Collector{m.active, m.created, m.asks, m.tells, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) experimentCreated(strategy string) {
	if m == nil {
		return
	}
	m.active.Inc()
	m.created.WithLabelValues(strategy).Inc()
}

func (m *Metrics) experimentDeleted() {
	if m == nil {
		return
	}
	m.active.Dec()
}

func (m *Metrics) asked(strategy string) {
	if m == nil {
		return
	}
	m.asks.WithLabelValues(strategy).Inc()
}

func (m *Metrics) told(strategy string) {
	if m == nil {
		return
	}
	m.tells.WithLabelValues(strategy).Inc()
}

func (m *Metrics) failed(op string, err error) {
	if m == nil {
		return
	}
	kind := string(optimization.KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	m.errors.WithLabelValues(op, kind).Inc()
}

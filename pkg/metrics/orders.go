package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks checkout outcomes and inventory movement.
type OrderMetrics struct {
	created     prometheus.Counter
	failed      *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	decremented *prometheus.CounterVec
	restocked   *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted with status pending.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Order transactions that did not persist an order, by reason.",
	}, []string{"reason"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_lines_skipped_total",
		Help: "Order lines whose item could not be found in the catalog.",
	}, []string{"kind"})
	decremented := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_units_decremented_total",
		Help: "Units removed from stock by orders.",
	}, []string{"kind"})
	restocked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_units_restocked_total",
		Help: "Units returned to stock after a failed order write.",
	}, []string{"kind"})
	reg.MustRegister(created, failed, skipped, decremented, restocked)
	return &OrderMetrics{
		created:     created,
		failed:      failed,
		skipped:     skipped,
		decremented: decremented,
		restocked:   restocked,
	}
}

func (o *OrderMetrics) IncCreated() {
	if o == nil || o.created == nil {
		return
	}
	o.created.Inc()
}

func (o *OrderMetrics) IncFailed(reason string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (o *OrderMetrics) IncSkipped(kind string) {
	if o == nil || o.skipped == nil {
		return
	}
	o.skipped.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (o *OrderMetrics) AddDecremented(kind string, units int) {
	if o == nil || o.decremented == nil || units <= 0 {
		return
	}
	o.decremented.WithLabelValues(normalizeLabel(kind)).Add(float64(units))
}

func (o *OrderMetrics) AddRestocked(kind string, units int) {
	if o == nil || o.restocked == nil || units <= 0 {
		return
	}
	o.restocked.WithLabelValues(normalizeLabel(kind)).Add(float64(units))
}

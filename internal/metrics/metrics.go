package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg                *prometheus.Registry
	ordersCreated      prometheus.Counter
	ordersPaid         prometheus.Counter
	validationFailures prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_created_total"})
	paid := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_paid_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_validation_failures_total"})

	r.MustRegister(created, paid, failed)
	return &Registry{
		reg:                r,
		ordersCreated:      created,
		ordersPaid:         paid,
		validationFailures: failed,
	}
}

func (r *Registry) OrderCreated()     { r.ordersCreated.Inc() }
func (r *Registry) OrderPaid()        { r.ordersPaid.Inc() }
func (r *Registry) ValidationFailed() { r.validationFailures.Inc() }

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

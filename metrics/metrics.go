package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the terminal's collectors. A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	StoreCalls   *prometheus.CounterVec
	StoreLatency *prometheus.HistogramVec
	PrintJobs    *prometheus.CounterVec
	Orders       prometheus.Counter
	OrderValue   prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	storeCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_store_calls_total",
		Help: "Remote store calls by action and outcome.",
	}, []string{"action", "outcome"})
	storeLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_store_call_seconds",
		Help:    "Remote store call latency by action.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	printJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_print_jobs_total",
		Help: "Receipt copies sent to the printer by copy label and outcome.",
	}, []string{"copy", "outcome"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_submitted_total",
		Help: "Orders accepted by the store.",
	})
	orderValue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_value_total",
		Help: "Sum of accepted order totals in pesos.",
	})

	r.MustRegister(storeCalls, storeLatency, printJobs, orders, orderValue)
	return &Registry{
		reg:          r,
		StoreCalls:   storeCalls,
		StoreLatency: storeLatency,
		PrintJobs:    printJobs,
		Orders:       orders,
		OrderValue:   orderValue,
	}
}

const (
	OutcomeOK      = "ok"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

func (r *Registry) ObserveStoreCall(action, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.StoreCalls.WithLabelValues(action, outcome).Inc()
	r.StoreLatency.WithLabelValues(action).Observe(took.Seconds())
}

func (r *Registry) ObservePrintJob(label, outcome string) {
	if r == nil {
		return
	}
	r.PrintJobs.WithLabelValues(label, outcome).Inc()
}

func (r *Registry) ObserveOrder(total int64) {
	if r == nil {
		return
	}
	r.Orders.Inc()
	r.OrderValue.Add(float64(total))
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

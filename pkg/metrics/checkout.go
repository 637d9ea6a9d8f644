package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records cart-to-order conversion outcomes.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	orders   *prometheus.CounterVec
	families prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	families := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_families_per_order",
		Help:    "Family sub-orders created per successful checkout.",
		Buckets: []float64{1, 2, 3, 5, 8, 13},
	})
	reg.MustRegister(duration, orders, families)
	return &CheckoutMetrics{
		duration: duration,
		orders:   orders,
		families: families,
	}
}

// ObserveCheckout records one attempt with its outcome label.
func (c *CheckoutMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
	c.orders.WithLabelValues(label).Inc()
}

// ObserveFamilies records how many sub-orders a successful checkout produced.
func (c *CheckoutMetrics) ObserveFamilies(count int) {
	if c == nil || c.families == nil {
		return
	}
	c.families.Observe(float64(count))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks order creation outcomes.
type CheckoutMetrics struct {
	created  *prometheus.CounterVec
	failures *prometheus.CounterVec
	retries  prometheus.Counter
}

// NewCheckoutMetrics registers checkout counters on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Orders created through checkout.",
	}, []string{"payment_method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_failures_total",
		Help: "Checkout attempts that failed, by error code.",
	}, []string{"code"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_order_number_retries_total",
		Help: "Checkout transactions retried after an order number collision.",
	})
	reg.MustRegister(created, failures, retries)
	return &CheckoutMetrics{created: created, failures: failures, retries: retries}
}

func (m *CheckoutMetrics) IncCreated(method string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(method)).Inc()
}

func (m *CheckoutMetrics) IncFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *CheckoutMetrics) IncRetry() {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Inc()
}

// RatingDriftMetrics reports products whose stored rating aggregate disagrees with their reviews.
type RatingDriftMetrics struct {
	detected prometheus.Counter
	current  prometheus.Gauge
}

// NewRatingDriftMetrics registers the reconciliation metrics on the provided registerer.
func NewRatingDriftMetrics(reg prometheus.Registerer) *RatingDriftMetrics {
	if reg == nil {
		return &RatingDriftMetrics{}
	}
	detected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_rating_drift_detected_total",
		Help: "Products found with a drifted rating aggregate.",
	})
	current := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_rating_drift_products",
		Help: "Products with a drifted rating aggregate in the last reconciliation run.",
	})
	reg.MustRegister(detected, current)
	return &RatingDriftMetrics{detected: detected, current: current}
}

// Record stores the drift count observed by one reconciliation run.
func (m *RatingDriftMetrics) Record(drifted int) {
	if m == nil || m.current == nil {
		return
	}
	m.current.Set(float64(drifted))
	if drifted > 0 {
		m.detected.Add(float64(drifted))
	}
}

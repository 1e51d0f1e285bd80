package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records order, coupon and notification activity.
type StoreMetrics struct {
	ordersPlaced       *prometheus.CounterVec
	couponsRedeemed    *prometheus.CounterVec
	notificationsPurge prometheus.Counter
	requestDuration    *prometheus.HistogramVec
}

// NewStoreMetrics registers the storefront metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed, labeled by payment method.",
	}, []string{"payment_method"})
	couponsRedeemed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupons_redeemed_total",
		Help: "Successful coupon redemptions, labeled by coupon kind.",
	}, []string{"kind"})
	notificationsPurge := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_purged_total",
		Help: "Notifications removed by the retention purge.",
	})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(ordersPlaced, couponsRedeemed, notificationsPurge, requestDuration)
	return &StoreMetrics{
		ordersPlaced:       ordersPlaced,
		couponsRedeemed:    couponsRedeemed,
		notificationsPurge: notificationsPurge,
		requestDuration:    requestDuration,
	}
}

// IncOrderPlaced increments the order counter for the payment method.
func (m *StoreMetrics) IncOrderPlaced(paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncCouponRedeemed increments the coupon counter for the given kind.
func (m *StoreMetrics) IncCouponRedeemed(kind string) {
	if m == nil || m.couponsRedeemed == nil {
		return
	}
	m.couponsRedeemed.WithLabelValues(normalizeLabel(kind)).Inc()
}

// AddNotificationsPurged records how many notifications a purge removed.
func (m *StoreMetrics) AddNotificationsPurged(count int64) {
	if m == nil || m.notificationsPurge == nil || count <= 0 {
		return
	}
	m.notificationsPurge.Add(float64(count))
}

// ObserveRequest records the duration of a completed HTTP request.
func (m *StoreMetrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(method), normalizeLabel(route), normalizeLabel(status)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

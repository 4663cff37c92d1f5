package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics tracks the payment flow. A nil receiver is a no-op.
type PaymentMetrics struct {
	attempts      *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	polls         *prometheus.CounterVec
	notifications *prometheus.CounterVec
	activeWatches prometheus.Gauge
	confirmTime   *prometheus.HistogramVec
}

var (
	paymentsOnce     sync.Once
	paymentsRegistry *PaymentMetrics
)

// Payments returns the process-wide payment metrics, registering them on first use.
func Payments() *PaymentMetrics {
	paymentsOnce.Do(func() {
		paymentsRegistry = &PaymentMetrics{
			attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "payments_attempts_total",
				Help: "Payment attempts started by method.",
			}, []string{"method"}),
			outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "payments_outcomes_total",
				Help: "Terminal payment outcomes by method and status.",
			}, []string{"method", "status"}),
			polls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "payments_monitor_polls_total",
				Help: "Chain monitor poll ticks by result.",
			}, []string{"result"}),
			notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "payments_backend_notifications_total",
				Help: "Backend confirmation calls by result.",
			}, []string{"result"}),
			activeWatches: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "payments_active_monitors",
				Help: "Chain monitors currently polling.",
			}),
			confirmTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "payments_time_to_confirm_seconds",
				Help:    "Time from attempt start to on-chain confirmation.",
				Buckets: []float64{1, 5, 10, 20, 30, 60, 90, 120, 180},
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			paymentsRegistry.attempts,
			paymentsRegistry.outcomes,
			paymentsRegistry.polls,
			paymentsRegistry.notifications,
			paymentsRegistry.activeWatches,
			paymentsRegistry.confirmTime,
		)
	})
	return paymentsRegistry
}

func (m *PaymentMetrics) AttemptStarted(method string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(method).Inc()
}

func (m *PaymentMetrics) AttemptResolved(method, status string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(method, status).Inc()
}

func (m *PaymentMetrics) Poll(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.polls.WithLabelValues(result).Inc()
}

func (m *PaymentMetrics) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *PaymentMetrics) WatchStarted() {
	if m == nil {
		return
	}
	m.activeWatches.Inc()
}

func (m *PaymentMetrics) WatchStopped() {
	if m == nil {
		return
	}
	m.activeWatches.Dec()
}

func (m *PaymentMetrics) Confirmed(method string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.confirmTime.WithLabelValues(method).Observe(elapsed.Seconds())
}

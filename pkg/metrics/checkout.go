package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the checkout and reconciliation counters.
type CheckoutMetrics struct {
	authorizations *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
	oversell       prometheus.Counter
	webhookLatency *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	authorizations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_authorizations_total",
		Help: "Payment authorizations created, labeled by checkout mode.",
	}, []string{"mode"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Processed payment webhook events by outcome and result.",
	}, []string{"outcome", "result"})
	oversell := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_oversell_total",
		Help: "Confirmed sales that exceeded available stock and were clamped.",
	})
	webhookLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_webhook_duration_seconds",
		Help:    "Duration of webhook reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(authorizations, webhookEvents, oversell, webhookLatency)
	return &CheckoutMetrics{
		authorizations: authorizations,
		webhookEvents:  webhookEvents,
		oversell:       oversell,
		webhookLatency: webhookLatency,
	}
}

// IncAuthorization counts a created authorization for the given mode.
func (m *CheckoutMetrics) IncAuthorization(mode string) {
	if m == nil || m.authorizations == nil {
		return
	}
	m.authorizations.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncWebhookEvent counts a processed webhook event.
func (m *CheckoutMetrics) IncWebhookEvent(outcome, result string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(outcome), normalizeLabel(result)).Inc()
}

// IncOversell counts a clamped inventory debit.
func (m *CheckoutMetrics) IncOversell() {
	if m == nil || m.oversell == nil {
		return
	}
	m.oversell.Inc()
}

// ObserveWebhookDuration records how long reconciliation took.
func (m *CheckoutMetrics) ObserveWebhookDuration(outcome string, duration time.Duration) {
	if m == nil || m.webhookLatency == nil {
		return
	}
	m.webhookLatency.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook outcomes.
const (
	OutcomeReconciled     = "reconciled"
	OutcomeIgnored        = "ignored"
	OutcomeDuplicate      = "duplicate"
	OutcomeNotFound       = "not_found"
	OutcomeAmountMismatch = "amount_mismatch"
	OutcomeInvalidPayload = "invalid_payload"
	OutcomeBadSignature   = "bad_signature"
	OutcomeMisconfigured  = "misconfigured"
	OutcomeError          = "error"
)

type BillingMetrics interface {
	IncWebhookEvent(outcome string)
	IncSubscriptionTransition(transition string)
	AddDowngraded(n int)
	IncProviderRequest(result string)
}

type billingMetrics struct {
	webhookEvents *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	downgraded    prometheus.Counter
	provider      *prometheus.CounterVec
}

func NewBillingMetrics(registry prometheus.Registerer) BillingMetrics {
	factory := promauto.With(registry)
	return &billingMetrics{
		webhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_webhook_events_total",
				Help: "Payment provider webhook deliveries by outcome",
			},
			[]string{"outcome"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_subscription_transitions_total",
				Help: "Subscription state machine transitions",
			},
			[]string{"transition"},
		),
		downgraded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "linkbio_subscriptions_downgraded_total",
				Help: "Subscriptions expired by the downgrade sweep",
			},
		),
		provider: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_provider_requests_total",
				Help: "Payment provider API calls by result",
			},
			[]string{"result"},
		),
	}
}

func (m *billingMetrics) IncWebhookEvent(outcome string) {
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

func (m *billingMetrics) IncSubscriptionTransition(transition string) {
	m.transitions.WithLabelValues(transition).Inc()
}

func (m *billingMetrics) AddDowngraded(n int) {
	m.downgraded.Add(float64(n))
}

func (m *billingMetrics) IncProviderRequest(result string) {
	m.provider.WithLabelValues(result).Inc()
}

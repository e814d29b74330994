package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBillingMetrics(reg).(*billingMetrics)

	m.IncWebhookEvent(OutcomeReconciled)
	m.IncWebhookEvent(OutcomeReconciled)
	m.IncWebhookEvent(OutcomeDuplicate)
	m.AddDowngraded(3)
	m.IncSubscriptionTransition("extend")
	m.IncProviderRequest("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues(OutcomeReconciled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.downgraded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("extend")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

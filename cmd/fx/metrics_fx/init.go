package metrics_fx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"linkbio/internal/metrics"
)

var Module = fx.Provide(
	provideRegistry,
	func(r *prometheus.Registry) prometheus.Gatherer { return r },
	func(r *prometheus.Registry) metrics.BillingMetrics { return metrics.NewBillingMetrics(r) },
)

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

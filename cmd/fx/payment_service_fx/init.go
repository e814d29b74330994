package payment_service_fx

import (
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"linkbio/internal/config"
	"linkbio/internal/infra"
	"linkbio/internal/services"
)

var Module = fx.Provide(
	providePaymentGateway,
	providePaymentConfig,
	services.NewEntitlementService,
	services.NewPaymentService,
	services.NewSubscriptionService,
	services.NewSweepService,
)

func providePaymentGateway(cfg *config.Config, log *zap.Logger) services.PaymentGateway {
	return infra.NewPaystackClient(infra.PaystackConfig{
		SecretKey: cfg.Paystack.SecretKey,
		BaseURL:   cfg.Paystack.BaseURL,
		Timeout:   cfg.Paystack.Timeout,
	}, log.Named("paystack"))
}

func providePaymentConfig(cfg *config.Config, log *zap.Logger) services.PaymentConfig {
	if cfg.Paystack.SecretKey == "" {
		log.Warn("PAYSTACK_SECRET_KEY not set, webhooks will be rejected with 500")
	}
	return services.PaymentConfig{
		SecretKey:   cfg.Paystack.SecretKey,
		CallbackURL: strings.TrimRight(cfg.App.BaseURL, "/") + "/accounts/me",
	}
}

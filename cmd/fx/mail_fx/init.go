package mail_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"linkbio/internal/config"
	"linkbio/internal/services"
)

var Module = fx.Provide(provideNotifier)

func provideNotifier(cfg *config.Config, log *zap.Logger) services.Notifier {
	return services.NewNotifier(services.SMTPConfig{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		Username:   cfg.SMTP.Username,
		Password:   cfg.SMTP.Password,
		From:       cfg.SMTP.From,
		AppName:    "linkbio",
		AppBaseURL: cfg.App.BaseURL,
	}, log.Named("mail"))
}

package events_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"linkbio/internal/config"
	"linkbio/internal/events"
)

var Module = fx.Provide(providePublisher)

func providePublisher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (events.Publisher, error) {
	if cfg.AMQP.URL == "" {
		log.Info("AMQP_URL not set, subscription events are not published")
		return events.NoopPublisher{}, nil
	}

	pub, err := events.NewRabbitMQPublisher(cfg.AMQP.URL, log.Named("events"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}

package db_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linkbio/internal/config"
	"linkbio/internal/infra"
	"linkbio/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	infra.NewUnitOfWork,
	repositories.NewUserRepository,
	repositories.NewPlanRepository,
	repositories.NewSubscriptionRepository,
	repositories.NewPaymentRepository,
	repositories.NewLinkRepository,
)

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitDatabase(cfg.Database.URL, log)
	if err != nil {
		return nil, err
	}
	if err := infra.Migrate(db); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			infra.CloseDatabase(db, log)
			return nil
		},
	})
	return db, nil
}

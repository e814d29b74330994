package account_fx

import (
	"go.uber.org/fx"

	"linkbio/internal/config"
	"linkbio/internal/services"
	"linkbio/pkg/utils"
)

var Module = fx.Provide(
	provideTokenIssuer,
	services.NewAccountService,
	services.NewPlanService,
)

func provideTokenIssuer(cfg *config.Config) *utils.TokenIssuer {
	return utils.NewTokenIssuer(cfg.Auth.JWTSecret)
}

package controllers_fx

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"linkbio/internal/api"
	"linkbio/internal/api/controllers"
	"linkbio/internal/config"
	"linkbio/pkg/utils"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewPlanController),
	fx.Provide(controllers.NewPaymentController),
	fx.Provide(controllers.NewLinkController),
	fx.Provide(controllers.NewAdminController),
	fx.Provide(provideRouter),
)

type routerParams struct {
	fx.In

	Account *controllers.AccountController
	Plan    *controllers.PlanController
	Payment *controllers.PaymentController
	Link    *controllers.LinkController
	Admin   *controllers.AdminController

	Config   *config.Config
	Tokens   *utils.TokenIssuer
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

func provideRouter(p routerParams) *gin.Engine {
	if p.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	return api.Router{
		Account:  p.Account,
		Plan:     p.Plan,
		Payment:  p.Payment,
		Link:     p.Link,
		Admin:    p.Admin,
		Tokens:   p.Tokens,
		Gatherer: p.Gatherer,
		Log:      p.Log.Named("http"),
	}.Engine()
}

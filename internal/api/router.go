package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"linkbio/internal/api/controllers"
	"linkbio/pkg/middleware"
	"linkbio/pkg/utils"
)

const (
	webhookRPS   = 100
	webhookBurst = 1000
)

type Router struct {
	Account *controllers.AccountController
	Plan    *controllers.PlanController
	Payment *controllers.PaymentController
	Link    *controllers.LinkController
	Admin   *controllers.AdminController

	Tokens   *utils.TokenIssuer
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

func (rt Router) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(rt.Log))

	RegisterRoutes(r, rt)
	return r
}

func RegisterRoutes(r *gin.Engine, rt Router) {
	auth := middleware.JWTAuthMiddleware(rt.Tokens)
	publicLimit := middleware.NewIPRateLimiter(5, 20).Middleware()
	// Provider deliveries come from a handful of addresses and burst after an outage.
	webhookLimit := middleware.NewIPRateLimiter(webhookRPS, webhookBurst).Middleware()

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{})))

	accounts := r.Group("/accounts")
	accounts.POST("/register", rt.Account.Register)
	accounts.POST("/login", rt.Account.Login)
	accounts.POST("/forgot-password", publicLimit, rt.Account.ForgotPassword)
	accounts.POST("/reset-password", publicLimit, rt.Account.ResetPassword)
	accounts.GET("/me", auth, rt.Account.Me)
	accounts.PUT("/profile", auth, rt.Account.UpdateProfile)

	r.GET("/plans", rt.Plan.ListPlans)
	r.GET("/subscribe/:plan_id", auth, rt.Payment.Subscribe)
	r.GET("/subscription", auth, rt.Payment.ListSubscriptions)
	r.POST("/subscription/cancel", auth, rt.Payment.CancelSubscription)

	// Authenticated by signature, not by session.
	r.POST("/paystack-webhook", webhookLimit, rt.Payment.Webhook)

	links := r.Group("/links", auth)
	links.GET("", rt.Link.ListLinks)
	links.POST("", rt.Link.AddLink)
	links.DELETE("/:id", rt.Link.DeleteLink)

	r.GET("/u/:username", rt.Link.PublicProfile)
	r.GET("/redirect/:link_id", publicLimit, rt.Link.Redirect)

	admin := r.Group("/admin", auth, middleware.RoleMiddleware("admin"))
	admin.GET("/plans", rt.Plan.ListPlans)
	admin.POST("/plans", rt.Plan.CreatePlan)
	admin.PUT("/plans/:id", rt.Plan.UpdatePlan)
	admin.DELETE("/plans/:id", rt.Plan.DeletePlan)
	admin.GET("/users", rt.Admin.ListUsers)
	admin.DELETE("/users/:id", rt.Admin.DeleteUser)
}

package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkbio/internal/services"
	"linkbio/pkg/utils"
)

const (
	signatureHeader = "x-paystack-signature"
	maxWebhookBody  = 1 << 20
)

type PaymentController struct {
	paymentService      services.PaymentService
	subscriptionService services.SubscriptionService
}

func NewPaymentController(paymentService services.PaymentService, subscriptionService services.SubscriptionService) *PaymentController {
	return &PaymentController{
		paymentService:      paymentService,
		subscriptionService: subscriptionService,
	}
}

// Subscribe godoc
// @Summary Start a checkout for a plan and redirect to the provider
// @Tags Payments
// @Security BearerAuth
// @Param plan_id path string true "Plan ID"
// @Success 302
// @Failure 404 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /subscribe/{plan_id} [get]
func (p *PaymentController) Subscribe(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	session, err := p.paymentService.Subscribe(c.Request.Context(), principal, planID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.Redirect(http.StatusFound, session.AuthorizationURL)
}

// Webhook godoc
// @Summary Payment provider webhook
// @Description Verifies x-paystack-signature over the raw body and reconciles charge.success events.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /paystack-webhook [post]
func (p *PaymentController) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	err = p.paymentService.HandleWebhook(c.Request.Context(), body, c.GetHeader(signatureHeader))
	switch {
	case err == nil, services.IsAcknowledged(err):
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	case errors.Is(err, utils.ErrInvalidSignature):
		utils.RespondError(c, http.StatusBadRequest, "Invalid signature")
	default:
		_ = c.Error(err)
		utils.RespondError(c, http.StatusInternalServerError, "Webhook could not be processed")
	}
}

// CancelSubscription godoc
// @Summary Cancel the active subscription; access lasts until its end date
// @Tags Payments
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /subscription/cancel [post]
func (p *PaymentController) CancelSubscription(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	sub, err := p.subscriptionService.Cancel(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{
		"id":       sub.ID,
		"status":   sub.Status,
		"end_date": utils.FormatRFC3339(utils.FromUnixSeconds(derefInt64(sub.EndDate))),
	}, "Your subscription has been cancelled. You will retain premium access until the end of your current billing period.")
}

// ListSubscriptions godoc
// @Summary The caller's subscriptions in any status
// @Tags Payments
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse
// @Router /subscription [get]
func (p *PaymentController) ListSubscriptions(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	subs, err := p.subscriptionService.ListForUser(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toSubscriptionResponses(subs), "")
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

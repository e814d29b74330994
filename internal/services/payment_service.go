package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"linkbio/internal/events"
	"linkbio/internal/infra"
	"linkbio/internal/metrics"
	"linkbio/internal/models/db_models"
	"linkbio/internal/repositories"
	"linkbio/pkg/middleware"
	"linkbio/pkg/utils"
)

const EventChargeSuccess = "charge.success"

var checkoutChannels = []string{"card", "bank", "ussd", "qr"}

// PaymentGateway is the slice of the payment provider API used here.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, firstName string) (string, error)
	InitializeTransaction(ctx context.Context, req infra.InitializeRequest) (*infra.Checkout, error)
}

type PaymentConfig struct {
	SecretKey   string
	CallbackURL string
}

type CheckoutSession struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	Reference        string    `json:"reference"`
	Amount           int64     `json:"amount"`
	AuthorizationURL string    `json:"authorization_url"`
}

type PaymentService interface {
	Subscribe(ctx context.Context, principal middleware.Principal, planID uuid.UUID) (*CheckoutSession, error)
	// HandleWebhook verifies and reconciles one provider delivery. ErrPaymentNotFound,
	// ErrDuplicateEvent, ErrAmountMismatch and ErrInvalidPayload are acknowledged
	// outcomes; see IsAcknowledged.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

type webhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type chargeData struct {
	Reference string `json:"reference"`
	Amount    *int64 `json:"amount"`
	Customer  struct {
		Email        string `json:"email"`
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
	Plan *struct {
		PlanCode string `json:"plan_code"`
	} `json:"plan"`
	Subscription *struct {
		SubscriptionCode string `json:"subscription_code"`
	} `json:"subscription"`
}

type paymentService struct {
	cfg          PaymentConfig
	uow          infra.UnitOfWork
	users        repositories.UserRepository
	plans        repositories.PlanRepository
	payments     repositories.PaymentRepository
	subs         repositories.SubscriptionRepository
	gateway      PaymentGateway
	entitlements EntitlementService
	publisher    events.Publisher
	metrics      metrics.BillingMetrics
	log          *zap.Logger
	now          func() time.Time
}

func NewPaymentService(
	cfg PaymentConfig,
	uow infra.UnitOfWork,
	users repositories.UserRepository,
	plans repositories.PlanRepository,
	payments repositories.PaymentRepository,
	subs repositories.SubscriptionRepository,
	gateway PaymentGateway,
	entitlements EntitlementService,
	publisher events.Publisher,
	m metrics.BillingMetrics,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		cfg:          cfg,
		uow:          uow,
		users:        users,
		plans:        plans,
		payments:     payments,
		subs:         subs,
		gateway:      gateway,
		entitlements: entitlements,
		publisher:    publisher,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// IsAcknowledged reports whether a webhook error is answered with 200 so the provider
// stops redelivering it.
func IsAcknowledged(err error) bool {
	return errors.Is(err, utils.ErrPaymentNotFound) ||
		errors.Is(err, utils.ErrDuplicateEvent) ||
		errors.Is(err, utils.ErrAmountMismatch) ||
		errors.Is(err, utils.ErrInvalidPayload)
}

func newReference(userID uuid.UUID) (string, error) {
	token, err := utils.GenerateHexToken(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("user_%s_%s", userID, token), nil
}

func (p *paymentService) Subscribe(ctx context.Context, principal middleware.Principal, planID uuid.UUID) (*CheckoutSession, error) {
	plan, err := p.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}

	user, err := p.users.FindByID(ctx, principal.UserID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	if user.ProviderCustomerCode == "" {
		code, err := p.gateway.CreateCustomer(ctx, user.Email, user.Username)
		if err != nil {
			p.metrics.IncProviderRequest("error")
			p.log.Warn("create provider customer failed", zap.String("user_id", user.ID.String()), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", utils.ErrProviderUnavailable, err)
		}
		user.ProviderCustomerCode = code
		if err := p.users.Update(ctx, user); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	reference, err := newReference(user.ID)
	if err != nil {
		return nil, err
	}

	payment := &db_models.Payment{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Amount:    plan.Price,
		Status:    db_models.PaymentStatusPending,
		Reference: reference,
	}
	if err := p.payments.Create(ctx, payment); err != nil {
		p.log.Error("create pending payment failed", zap.String("reference", reference), zap.Error(err))
		return nil, utils.ErrDatabaseError
	}

	checkout, err := p.gateway.InitializeTransaction(ctx, infra.InitializeRequest{
		Email:       user.Email,
		Amount:      plan.Price,
		Reference:   reference,
		CallbackURL: p.cfg.CallbackURL,
		Channels:    checkoutChannels,
	})
	if err != nil {
		// The payment stays pending; a late webhook for this reference still reconciles.
		p.metrics.IncProviderRequest("error")
		p.log.Warn("initialize transaction failed", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", utils.ErrProviderUnavailable, err)
	}
	p.metrics.IncProviderRequest("ok")

	p.log.Info("checkout initialized",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", plan.Name),
		zap.String("reference", reference),
	)

	return &CheckoutSession{
		PaymentID:        payment.ID,
		Reference:        reference,
		Amount:           payment.Amount,
		AuthorizationURL: checkout.AuthorizationURL,
	}, nil
}

func (p *paymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if err := VerifyWebhookSignature(p.cfg.SecretKey, rawBody, signature); err != nil {
		if errors.Is(err, utils.ErrWebhookSecretMissing) {
			p.metrics.IncWebhookEvent(metrics.OutcomeMisconfigured)
			p.log.Error("webhook received but no provider secret is configured")
		} else {
			p.metrics.IncWebhookEvent(metrics.OutcomeBadSignature)
			p.log.Warn("webhook signature rejected")
		}
		return err
	}

	var evt webhookEvent
	if err := json.Unmarshal(rawBody, &evt); err != nil || evt.Event == "" {
		p.metrics.IncWebhookEvent(metrics.OutcomeInvalidPayload)
		p.log.Warn("webhook payload is not a provider event", zap.Error(err))
		return utils.ErrInvalidPayload
	}

	if evt.Event != EventChargeSuccess {
		p.metrics.IncWebhookEvent(metrics.OutcomeIgnored)
		p.log.Debug("webhook event ignored", zap.String("event", evt.Event))
		return nil
	}

	var data chargeData
	if err := json.Unmarshal(evt.Data, &data); err != nil || strings.TrimSpace(data.Reference) == "" {
		p.metrics.IncWebhookEvent(metrics.OutcomeInvalidPayload)
		p.log.Warn("charge event without a usable reference", zap.Error(err))
		return utils.ErrInvalidPayload
	}

	sub, transition, err := p.reconcile(ctx, data, datatypes.JSON(evt.Data))
	if err != nil {
		return p.recordFailure(data.Reference, err)
	}

	p.entitlements.Invalidate(ctx, sub.UserID)
	p.metrics.IncWebhookEvent(metrics.OutcomeReconciled)
	p.metrics.IncSubscriptionTransition(string(transition))
	publishSubscriptionEvent(ctx, p.publisher, p.log, events.SubscriptionActivated, sub, data.Reference, p.now())

	p.log.Info("payment reconciled",
		zap.String("reference", data.Reference),
		zap.String("user_id", sub.UserID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.String("transition", string(transition)),
	)
	return nil
}

// reconcile settles the payment and drives the subscription state machine in a single
// unit of work.
func (p *paymentService) reconcile(ctx context.Context, data chargeData, receipt datatypes.JSON) (*db_models.Subscription, Transition, error) {
	var (
		result     *db_models.Subscription
		transition Transition
	)

	err := p.uow.Do(ctx, func(tx *gorm.DB) error {
		payments := p.payments.WithTx(tx)
		subs := p.subs.WithTx(tx)

		payment, err := payments.FindByReference(ctx, data.Reference)
		if err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		if payment == nil {
			return utils.ErrPaymentNotFound
		}
		if payment.Status == db_models.PaymentStatusSuccess {
			return utils.ErrDuplicateEvent
		}
		if data.Amount != nil && *data.Amount != payment.Amount {
			return fmt.Errorf("%w: event %d, payment %d", utils.ErrAmountMismatch, *data.Amount, payment.Amount)
		}

		changed, err := payments.MarkSuccess(ctx, payment.ID, receipt)
		if err != nil {
			return fmt.Errorf("mark payment success: %w", err)
		}
		if changed == 0 {
			return utils.ErrDuplicateEvent
		}

		current, err := subs.FindByUserAndPlan(ctx, payment.UserID, payment.PlanID)
		if err != nil {
			return fmt.Errorf("load subscription: %w", err)
		}

		next, tr := ApplySuccessfulPayment(current, payment.UserID, payment.PlanID, p.now())
		if err := subs.Save(ctx, next); err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}

		result, transition = next, tr
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return result, transition, nil
}

func (p *paymentService) recordFailure(reference string, err error) error {
	fields := []zap.Field{zap.String("reference", reference), zap.Error(err)}

	switch {
	case errors.Is(err, utils.ErrPaymentNotFound):
		p.metrics.IncWebhookEvent(metrics.OutcomeNotFound)
		p.log.Warn("webhook for unknown payment reference", fields...)
		return err
	case errors.Is(err, utils.ErrDuplicateEvent):
		p.metrics.IncWebhookEvent(metrics.OutcomeDuplicate)
		p.log.Info("webhook replay ignored", fields...)
		return err
	case errors.Is(err, utils.ErrAmountMismatch):
		p.metrics.IncWebhookEvent(metrics.OutcomeAmountMismatch)
		p.log.Error("webhook amount does not match payment", fields...)
		return err
	default:
		p.metrics.IncWebhookEvent(metrics.OutcomeError)
		p.log.Error("webhook reconciliation failed", fields...)
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
}

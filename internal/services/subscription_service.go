package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linkbio/internal/events"
	"linkbio/internal/infra"
	"linkbio/internal/metrics"
	"linkbio/internal/models/db_models"
	"linkbio/internal/repositories"
	"linkbio/pkg/middleware"
	"linkbio/pkg/utils"
)

const RenewalPeriod = 30 * utils.Day

type Transition string

const (
	TransitionCreate     Transition = "create"
	TransitionExtend     Transition = "extend"
	TransitionReactivate Transition = "reactivate"
	TransitionCancel     Transition = "cancel"
	TransitionExpire     Transition = "expire"
)

// ApplySuccessfulPayment returns the subscription state after a successful payment for
// (userID, planID). current is the user's existing row for the plan, or nil. A running
// period is extended from its end date; anything else restarts at now.
func ApplySuccessfulPayment(current *db_models.Subscription, userID, planID uuid.UUID, now time.Time) (*db_models.Subscription, Transition) {
	if current == nil {
		return &db_models.Subscription{
			UserID:    userID,
			PlanID:    planID,
			Status:    db_models.SubStatusActive,
			StartDate: utils.UnixPtr(now),
			EndDate:   utils.UnixPtr(now.Add(RenewalPeriod)),
		}, TransitionCreate
	}

	next := *current
	end, hasEnd := current.EndTime()
	running := current.Status == db_models.SubStatusActive || current.Status == db_models.SubStatusCancelled

	if running && hasEnd && end.After(now) {
		next.Status = db_models.SubStatusActive
		next.EndDate = utils.UnixPtr(end.Add(RenewalPeriod))
		return &next, TransitionExtend
	}

	next.Status = db_models.SubStatusActive
	next.StartDate = utils.UnixPtr(now)
	next.EndDate = utils.UnixPtr(now.Add(RenewalPeriod))
	return &next, TransitionReactivate
}

type SubscriptionService interface {
	Cancel(ctx context.Context, principal middleware.Principal) (*db_models.Subscription, error)
	ListForUser(ctx context.Context, principal middleware.Principal) ([]db_models.Subscription, error)
}

type subscriptionService struct {
	uow          infra.UnitOfWork
	subs         repositories.SubscriptionRepository
	entitlements EntitlementService
	publisher    events.Publisher
	metrics      metrics.BillingMetrics
	log          *zap.Logger
	now          func() time.Time
}

func NewSubscriptionService(
	uow infra.UnitOfWork,
	subs repositories.SubscriptionRepository,
	entitlements EntitlementService,
	publisher events.Publisher,
	m metrics.BillingMetrics,
	log *zap.Logger,
) SubscriptionService {
	return &subscriptionService{
		uow:          uow,
		subs:         subs,
		entitlements: entitlements,
		publisher:    publisher,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// Cancel marks the caller's latest active subscription cancelled. Access is kept until
// its end date; the sweep expires it afterwards.
func (s *subscriptionService) Cancel(ctx context.Context, principal middleware.Principal) (*db_models.Subscription, error) {
	var cancelled *db_models.Subscription

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		sub, err := s.subs.WithTx(tx).FindLatestActive(ctx, principal.UserID)
		if err != nil {
			return fmt.Errorf("load active subscription: %w", err)
		}
		if sub == nil {
			return utils.ErrNoActiveSubscription
		}

		sub.Status = db_models.SubStatusCancelled
		if err := s.subs.WithTx(tx).Save(ctx, sub); err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}
		cancelled = sub
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrNoActiveSubscription) {
			return nil, err
		}
		s.log.Error("cancel subscription failed", zap.String("user_id", principal.UserID.String()), zap.Error(err))
		return nil, utils.ErrDatabaseError
	}

	s.entitlements.Invalidate(ctx, principal.UserID)
	s.metrics.IncSubscriptionTransition(string(TransitionCancel))
	publishSubscriptionEvent(ctx, s.publisher, s.log, events.SubscriptionCancelled, cancelled, "", s.now())

	s.log.Info("subscription cancelled",
		zap.String("user_id", principal.UserID.String()),
		zap.String("subscription_id", cancelled.ID.String()),
	)
	return cancelled, nil
}

func (s *subscriptionService) ListForUser(ctx context.Context, principal middleware.Principal) ([]db_models.Subscription, error) {
	subs, err := s.subs.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return subs, nil
}

// publishSubscriptionEvent is best effort: the state change is already committed.
func publishSubscriptionEvent(
	ctx context.Context,
	publisher events.Publisher,
	log *zap.Logger,
	routingKey string,
	sub *db_models.Subscription,
	reference string,
	now time.Time,
) {
	evt := events.SubscriptionEvent{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanID:         sub.PlanID,
		Status:         string(sub.Status),
		EndDate:        sub.EndDate,
		Reference:      reference,
		OccurredAt:     now.Unix(),
	}
	if err := publisher.Publish(ctx, routingKey, evt); err != nil {
		log.Warn("publish subscription event failed",
			zap.String("routing_key", routingKey),
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

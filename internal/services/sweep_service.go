package services

import (
	"context"
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
	"linkbio/pkg/utils"
)

type SweepService interface {
	// Sweep expires every active or cancelled subscription whose end date is more than
	// GracePeriod before now and returns how many were expired.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type sweepService struct {
	uow          infra.UnitOfWork
	subs         repositories.SubscriptionRepository
	users        repositories.UserRepository
	entitlements EntitlementService
	publisher    events.Publisher
	notifier     Notifier
	metrics      metrics.BillingMetrics
	log          *zap.Logger
}

func NewSweepService(
	uow infra.UnitOfWork,
	subs repositories.SubscriptionRepository,
	users repositories.UserRepository,
	entitlements EntitlementService,
	publisher events.Publisher,
	notifier Notifier,
	m metrics.BillingMetrics,
	log *zap.Logger,
) SweepService {
	return &sweepService{
		uow:          uow,
		subs:         subs,
		users:        users,
		entitlements: entitlements,
		publisher:    publisher,
		notifier:     notifier,
		metrics:      m,
		log:          log,
	}
}

func (s *sweepService) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-GracePeriod).Unix()
	var expired []db_models.Subscription

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		subs := s.subs.WithTx(tx)

		lapsed, err := subs.ListLapsedBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("list lapsed subscriptions: %w", err)
		}
		if len(lapsed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(lapsed))
		for _, sub := range lapsed {
			ids = append(ids, sub.ID)
		}
		n, err := subs.MarkExpired(ctx, ids, cutoff)
		if err != nil {
			return fmt.Errorf("mark subscriptions expired: %w", err)
		}
		if int(n) != len(lapsed) {
			return fmt.Errorf("expired %d of %d lapsed subscriptions, rows changed during sweep", n, len(lapsed))
		}

		expired = lapsed
		return nil
	})
	if err != nil {
		s.log.Error("downgrade sweep failed", zap.Error(err))
		return 0, utils.ErrDatabaseError
	}

	if len(expired) == 0 {
		s.log.Info("no expired subscriptions to downgrade")
		return 0, nil
	}

	for i := range expired {
		sub := &expired[i]
		sub.Status = db_models.SubStatusExpired

		s.entitlements.Invalidate(ctx, sub.UserID)
		publishSubscriptionEvent(ctx, s.publisher, s.log, events.SubscriptionExpired, sub, "", now)
		s.notify(ctx, sub)
	}

	s.metrics.AddDowngraded(len(expired))
	for range expired {
		s.metrics.IncSubscriptionTransition(string(TransitionExpire))
	}

	s.log.Info("downgraded expired subscriptions", zap.Int("count", len(expired)))
	return len(expired), nil
}

func (s *sweepService) notify(ctx context.Context, sub *db_models.Subscription) {
	user, err := s.users.FindByID(ctx, sub.UserID)
	if err != nil || user == nil {
		s.log.Warn("skip downgrade notice, user not loaded", zap.String("user_id", sub.UserID.String()), zap.Error(err))
		return
	}

	s.log.Info("downgrading user",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("subscription_id", sub.ID.String()),
	)
	if err := s.notifier.NotifyDowngrade(ctx, user, sub.Plan.Name); err != nil {
		s.log.Warn("downgrade notice failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

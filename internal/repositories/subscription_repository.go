package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkbio/internal/models/db_models"
)

type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	// FindByUserAndPlan returns the user's row for the plan in any status, locked for
	// update on Postgres.
	FindByUserAndPlan(ctx context.Context, userID, planID uuid.UUID) (*db_models.Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Subscription, error)
	FindLatestActive(ctx context.Context, userID uuid.UUID) (*db_models.Subscription, error)
	Save(ctx context.Context, sub *db_models.Subscription) error
	// ListLapsedBefore returns active or cancelled subscriptions whose end date is before
	// cutoff, locked for update on Postgres.
	ListLapsedBefore(ctx context.Context, cutoff int64) ([]db_models.Subscription, error)
	// MarkExpired expires the given rows that are still lapsed at cutoff; a row renewed
	// since it was listed is left alone.
	MarkExpired(ctx context.Context, ids []uuid.UUID, cutoff int64) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (s *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (s *subscriptionRepository) FindByUserAndPlan(ctx context.Context, userID, planID uuid.UUID) (*db_models.Subscription, error) {
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var sub db_models.Subscription
	err := q.Where("user_id = ? AND plan_id = ?", userID, planID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &sub, nil
}

func (s *subscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("end_date DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *subscriptionRepository) FindLatestActive(ctx context.Context, userID uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, db_models.SubStatusActive).
		Order("end_date DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionRepository) Save(ctx context.Context, sub *db_models.Subscription) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(sub).Error
}

func (s *subscriptionRepository) ListLapsedBefore(ctx context.Context, cutoff int64) ([]db_models.Subscription, error) {
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}})
	}

	var subs []db_models.Subscription
	err := q.
		Preload("Plan").
		Where("status IN ?", []db_models.SubscriptionStatus{db_models.SubStatusActive, db_models.SubStatusCancelled}).
		Where("end_date IS NOT NULL AND end_date < ?", cutoff).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *subscriptionRepository) MarkExpired(ctx context.Context, ids []uuid.UUID, cutoff int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id IN ?", ids).
		Where("status IN ?", []db_models.SubscriptionStatus{db_models.SubStatusActive, db_models.SubStatusCancelled}).
		Where("end_date < ?", cutoff).
		Update("status", db_models.SubStatusExpired)
	return res.RowsAffected, res.Error
}

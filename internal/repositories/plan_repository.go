package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linkbio/internal/models/db_models"
)

type PlanRepository interface {
	WithTx(tx *gorm.DB) PlanRepository
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Plan, error)
	FindByName(ctx context.Context, name string) (*db_models.Plan, error)
	List(ctx context.Context) ([]db_models.Plan, error)
	Create(ctx context.Context, plan *db_models.Plan) error
	Update(ctx context.Context, plan *db_models.Plan) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountReferences returns how many subscriptions and payments point at the plan.
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (p *planRepository) WithTx(tx *gorm.DB) PlanRepository {
	return &planRepository{db: tx}
}

func (p *planRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := p.db.WithContext(ctx).First(&plan, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &plan, nil
}

func (p *planRepository) FindByName(ctx context.Context, name string) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := p.db.WithContext(ctx).First(&plan, "name = ?", name).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &plan, nil
}

func (p *planRepository) List(ctx context.Context) ([]db_models.Plan, error) {
	var plans []db_models.Plan
	err := p.db.WithContext(ctx).Order("price ASC").Find(&plans).Error

	if err != nil {
		return nil, err
	}

	return plans, nil
}

func (p *planRepository) Create(ctx context.Context, plan *db_models.Plan) error {
	return p.db.WithContext(ctx).Create(plan).Error
}

func (p *planRepository) Update(ctx context.Context, plan *db_models.Plan) error {
	return p.db.WithContext(ctx).Save(plan).Error
}

func (p *planRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return p.db.WithContext(ctx).Delete(&db_models.Plan{}, "id = ?", id).Error
}

func (p *planRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var subs, payments int64
	db := p.db.WithContext(ctx)

	if err := db.Model(&db_models.Subscription{}).Where("plan_id = ?", id).Count(&subs).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&db_models.Payment{}).Where("plan_id = ?", id).Count(&payments).Error; err != nil {
		return 0, err
	}

	return subs + payments, nil
}

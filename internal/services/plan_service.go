package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkbio/internal/models/db_models"
	"linkbio/internal/models/request_models"
	"linkbio/internal/models/response_models"
	"linkbio/internal/repositories"
	"linkbio/pkg/utils"
)

type PlanServiceInterface interface {
	GetPlans(ctx context.Context) ([]response_models.PlanResponse, error)
	GetPlanInfoById(ctx context.Context, planID uuid.UUID) (response_models.PlanResponse, error)
	CreatePlan(ctx context.Context, request request_models.PlanRequest) (response_models.PlanResponse, error)
	UpdatePlan(ctx context.Context, planID uuid.UUID, request request_models.PlanRequest) (response_models.PlanResponse, error)
	DeletePlan(ctx context.Context, planID uuid.UUID) error
}

func NewPlanService(planRepo repositories.PlanRepository, log *zap.Logger) PlanServiceInterface {
	return &PlanService{
		planRepo: planRepo,
		log:      log,
	}
}

type PlanService struct {
	planRepo repositories.PlanRepository
	log      *zap.Logger
}

func toPlanResponse(plan *db_models.Plan) response_models.PlanResponse {
	features := []string(plan.Features)
	if features == nil {
		features = []string{}
	}
	return response_models.PlanResponse{
		ID:       plan.ID.String(),
		Name:     plan.Name,
		Price:    plan.Price,
		Features: features,
	}
}

func (p *PlanService) GetPlans(ctx context.Context) ([]response_models.PlanResponse, error) {
	plans, err := p.planRepo.List(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	result := make([]response_models.PlanResponse, 0, len(plans))
	for i := range plans {
		result = append(result, toPlanResponse(&plans[i]))
	}
	return result, nil
}

func (p *PlanService) GetPlanInfoById(ctx context.Context, planID uuid.UUID) (response_models.PlanResponse, error) {
	plan, err := p.planRepo.FindByID(ctx, planID)
	if err != nil {
		return response_models.PlanResponse{}, utils.ErrDatabaseError
	}
	if plan == nil {
		return response_models.PlanResponse{}, utils.ErrPlanNotFound
	}
	return toPlanResponse(plan), nil
}

func (p *PlanService) CreatePlan(ctx context.Context, request request_models.PlanRequest) (response_models.PlanResponse, error) {
	plan := &db_models.Plan{
		Name:     request.Name,
		Price:    request.Price,
		Features: db_models.FeatureList(request.Features),
	}
	if err := p.planRepo.Create(ctx, plan); err != nil {
		return response_models.PlanResponse{}, utils.ErrDatabaseError
	}

	p.log.Info("plan created", zap.String("plan_id", plan.ID.String()), zap.String("name", plan.Name))
	return toPlanResponse(plan), nil
}

func (p *PlanService) UpdatePlan(ctx context.Context, planID uuid.UUID, request request_models.PlanRequest) (response_models.PlanResponse, error) {
	plan, err := p.planRepo.FindByID(ctx, planID)
	if err != nil {
		return response_models.PlanResponse{}, utils.ErrDatabaseError
	}
	if plan == nil {
		return response_models.PlanResponse{}, utils.ErrPlanNotFound
	}

	plan.Name = request.Name
	plan.Price = request.Price
	plan.Features = db_models.FeatureList(request.Features)
	if err := p.planRepo.Update(ctx, plan); err != nil {
		return response_models.PlanResponse{}, utils.ErrDatabaseError
	}
	return toPlanResponse(plan), nil
}

// DeletePlan refuses plans that any subscription or payment still references.
func (p *PlanService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	plan, err := p.planRepo.FindByID(ctx, planID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if plan == nil {
		return utils.ErrPlanNotFound
	}

	refs, err := p.planRepo.CountReferences(ctx, planID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if refs > 0 {
		return utils.ErrPlanInUse
	}

	if err := p.planRepo.Delete(ctx, planID); err != nil {
		return utils.ErrDatabaseError
	}
	p.log.Info("plan deleted", zap.String("plan_id", planID.String()))
	return nil
}

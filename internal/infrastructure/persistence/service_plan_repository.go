package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/netbill/backend/internal/domain/billing"
	"github.com/netbill/backend/internal/domain/shared"
	"github.com/netbill/backend/internal/infrastructure/persistence/models"
)

// GormServicePlanRepository implements ServicePlanRepository using GORM
type GormServicePlanRepository struct {
	db *gorm.DB
}

// NewGormServicePlanRepository creates a new GormServicePlanRepository
func NewGormServicePlanRepository(db *gorm.DB) *GormServicePlanRepository {
	return &GormServicePlanRepository{db: db}
}

// FindByID finds a plan by its ID
func (r *GormServicePlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.ServicePlan, error) {
	var model models.ServicePlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTierID finds the plan mapped to a profile tier, if any
func (r *GormServicePlanRepository) FindByTierID(ctx context.Context, tenantID, tierID uuid.UUID) (*billing.ServicePlan, error) {
	var model models.ServicePlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND tier_id = ?", tenantID, tierID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all plans for a tenant
func (r *GormServicePlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]billing.ServicePlan, error) {
	var planModels []models.ServicePlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&planModels).Error; err != nil {
		return nil, err
	}

	plans := make([]billing.ServicePlan, len(planModels))
	for i, model := range planModels {
		plans[i] = *model.ToDomain()
	}
	return plans, nil
}

// Save creates or updates a plan
func (r *GormServicePlanRepository) Save(ctx context.Context, plan *billing.ServicePlan) error {
	model := &models.ServicePlanModel{}
	model.FromDomain(plan)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormServicePlanRepository implements ServicePlanRepository
var _ billing.ServicePlanRepository = (*GormServicePlanRepository)(nil)

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
	"github.com/netbill/backend/internal/infrastructure/persistence/models"
)

// GormProfileTierRepository implements ProfileTierRepository using GORM
type GormProfileTierRepository struct {
	db *gorm.DB
}

// NewGormProfileTierRepository creates a new GormProfileTierRepository
func NewGormProfileTierRepository(db *gorm.DB) *GormProfileTierRepository {
	return &GormProfileTierRepository{db: db}
}

// FindByID finds a tier by its ID
func (r *GormProfileTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*network.ProfileTier, error) {
	var model models.ProfileTierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a tier by exact name within a tenant and device
func (r *GormProfileTierRepository) FindByName(ctx context.Context, tenantID, deviceID uuid.UUID, name string) (*network.ProfileTier, error) {
	var model models.ProfileTierModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND device_id = ? AND name = ?", tenantID, deviceID, name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForDevice finds all tiers mirrored for a device
func (r *GormProfileTierRepository) FindAllForDevice(ctx context.Context, tenantID, deviceID uuid.UUID) ([]network.ProfileTier, error) {
	var tierModels []models.ProfileTierModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND device_id = ?", tenantID, deviceID).
		Order("name ASC").
		Find(&tierModels).Error; err != nil {
		return nil, err
	}

	tiers := make([]network.ProfileTier, len(tierModels))
	for i, model := range tierModels {
		tiers[i] = *model.ToDomain()
	}
	return tiers, nil
}

// Save creates or updates a tier
func (r *GormProfileTierRepository) Save(ctx context.Context, tier *network.ProfileTier) error {
	model := &models.ProfileTierModel{}
	model.FromDomain(tier)
	return r.db.WithContext(ctx).Save(model).Error
}

// ExistsByName checks whether a tier with the given name is already mirrored
func (r *GormProfileTierRepository) ExistsByName(ctx context.Context, tenantID, deviceID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProfileTierModel{}).
		Where("tenant_id = ? AND device_id = ? AND name = ?", tenantID, deviceID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormProfileTierRepository implements ProfileTierRepository
var _ network.ProfileTierRepository = (*GormProfileTierRepository)(nil)

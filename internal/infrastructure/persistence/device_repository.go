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

// GormDeviceRepository implements DeviceRepository using GORM
type GormDeviceRepository struct {
	db *gorm.DB
}

// NewGormDeviceRepository creates a new GormDeviceRepository
func NewGormDeviceRepository(db *gorm.DB) *GormDeviceRepository {
	return &GormDeviceRepository{db: db}
}

// FindByID finds a device by its ID
func (r *GormDeviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*network.Device, error) {
	var model models.DeviceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all devices for a tenant
func (r *GormDeviceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]network.Device, error) {
	var deviceModels []models.DeviceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&deviceModels).Error; err != nil {
		return nil, err
	}

	devices := make([]network.Device, len(deviceModels))
	for i, model := range deviceModels {
		devices[i] = *model.ToDomain()
	}
	return devices, nil
}

// Save creates or updates a device
func (r *GormDeviceRepository) Save(ctx context.Context, device *network.Device) error {
	model := &models.DeviceModel{}
	model.FromDomain(device)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormDeviceRepository implements DeviceRepository
var _ network.DeviceRepository = (*GormDeviceRepository)(nil)

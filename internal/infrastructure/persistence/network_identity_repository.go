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

// GormNetworkIdentityRepository implements NetworkIdentityRepository using GORM
type GormNetworkIdentityRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormNetworkIdentityRepository creates a new GormNetworkIdentityRepository
func NewGormNetworkIdentityRepository(db *gorm.DB) *GormNetworkIdentityRepository {
	return &GormNetworkIdentityRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormNetworkIdentityRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an identity by its ID
func (r *GormNetworkIdentityRepository) FindByID(ctx context.Context, id uuid.UUID) (*network.NetworkIdentity, error) {
	var model models.NetworkIdentityModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUsername finds an identity by username within a tenant and device
func (r *GormNetworkIdentityRepository) FindByUsername(ctx context.Context, tenantID, deviceID uuid.UUID, username string) (*network.NetworkIdentity, error) {
	var model models.NetworkIdentityModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND device_id = ? AND username = ?", tenantID, deviceID, username).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForDevice finds all identities mirrored for a device
func (r *GormNetworkIdentityRepository) FindAllForDevice(ctx context.Context, tenantID, deviceID uuid.UUID) ([]network.NetworkIdentity, error) {
	var identityModels []models.NetworkIdentityModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND device_id = ?", tenantID, deviceID).
		Order("username ASC").
		Find(&identityModels).Error; err != nil {
		return nil, err
	}

	identities := make([]network.NetworkIdentity, len(identityModels))
	for i, model := range identityModels {
		identities[i] = *model.ToDomain()
	}
	return identities, nil
}

// Save creates or updates an identity, persisting pending domain events to
// the outbox within the same transaction
func (r *GormNetworkIdentityRepository) Save(ctx context.Context, identity *network.NetworkIdentity) error {
	events := identity.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &models.NetworkIdentityModel{}
		model.FromDomain(identity)
		if err := tx.Save(model).Error; err != nil {
			return err
		}

		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	identity.ClearDomainEvents()
	return nil
}

// ExistsByUsername checks whether an identity with the username is already mirrored
func (r *GormNetworkIdentityRepository) ExistsByUsername(ctx context.Context, tenantID, deviceID uuid.UUID, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.NetworkIdentityModel{}).
		Where("tenant_id = ? AND device_id = ? AND username = ?", tenantID, deviceID, username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormNetworkIdentityRepository implements NetworkIdentityRepository
var _ network.NetworkIdentityRepository = (*GormNetworkIdentityRepository)(nil)

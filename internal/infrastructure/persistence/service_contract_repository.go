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

// GormServiceContractRepository implements ServiceContractRepository using GORM
type GormServiceContractRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormServiceContractRepository creates a new GormServiceContractRepository
func NewGormServiceContractRepository(db *gorm.DB) *GormServiceContractRepository {
	return &GormServiceContractRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormServiceContractRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a contract by its ID
func (r *GormServiceContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.ServiceContract, error) {
	var model models.ServiceContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNetworkIdentityID finds the contract linked to a network identity, if any
func (r *GormServiceContractRepository) FindByNetworkIdentityID(ctx context.Context, tenantID, identityID uuid.UUID) (*billing.ServiceContract, error) {
	var model models.ServiceContractModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND network_identity_id = ?", tenantID, identityID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus finds contracts by status within a tenant
func (r *GormServiceContractRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.ContractStatus) ([]billing.ServiceContract, error) {
	var contractModels []models.ServiceContractModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Find(&contractModels).Error; err != nil {
		return nil, err
	}

	contracts := make([]billing.ServiceContract, len(contractModels))
	for i, model := range contractModels {
		contracts[i] = *model.ToDomain()
	}
	return contracts, nil
}

// Save creates or updates a contract. Pending domain events are written to
// the outbox within the same transaction so that a status change and its
// event are committed atomically.
func (r *GormServiceContractRepository) Save(ctx context.Context, contract *billing.ServiceContract) error {
	events := contract.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &models.ServiceContractModel{}
		model.FromDomain(contract)
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

	contract.ClearDomainEvents()
	return nil
}

// ExistsForNetworkIdentity checks whether any contract links the given identity
func (r *GormServiceContractRepository) ExistsForNetworkIdentity(ctx context.Context, tenantID, identityID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ServiceContractModel{}).
		Where("tenant_id = ? AND network_identity_id = ?", tenantID, identityID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormServiceContractRepository implements ServiceContractRepository
var _ billing.ServiceContractRepository = (*GormServiceContractRepository)(nil)

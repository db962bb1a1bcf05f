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

// GormSubscriberRepository implements SubscriberRepository using GORM
type GormSubscriberRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormSubscriberRepository creates a new GormSubscriberRepository
func NewGormSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormSubscriberRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a subscriber by its ID
func (r *GormSubscriberRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Subscriber, error) {
	var model models.SubscriberModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a subscriber by exact name within a tenant
func (r *GormSubscriberRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*billing.Subscriber, error) {
	var model models.SubscriberModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all subscribers for a tenant
func (r *GormSubscriberRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]billing.Subscriber, error) {
	var subscriberModels []models.SubscriberModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&subscriberModels).Error; err != nil {
		return nil, err
	}

	subscribers := make([]billing.Subscriber, len(subscriberModels))
	for i, model := range subscriberModels {
		subscribers[i] = *model.ToDomain()
	}
	return subscribers, nil
}

// Save creates or updates a subscriber, persisting pending domain events to
// the outbox within the same transaction
func (r *GormSubscriberRepository) Save(ctx context.Context, subscriber *billing.Subscriber) error {
	events := subscriber.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &models.SubscriberModel{}
		model.FromDomain(subscriber)
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

	subscriber.ClearDomainEvents()
	return nil
}

// ExistsByName checks if a subscriber with the given name exists in the tenant
func (r *GormSubscriberRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriberModel{}).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormSubscriberRepository implements SubscriberRepository
var _ billing.SubscriberRepository = (*GormSubscriberRepository)(nil)

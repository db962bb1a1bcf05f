package provisioning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/network"
)

// OutcomeRecorder persists the local-side result of a successful device
// operation. Each method loads fresh state and saves in its own short
// transaction, after the device call has already completed.
type OutcomeRecorder struct {
	identities network.NetworkIdentityRepository
	logger     *zap.Logger
}

// NewOutcomeRecorder creates a new outcome recorder
func NewOutcomeRecorder(identities network.NetworkIdentityRepository, logger *zap.Logger) *OutcomeRecorder {
	return &OutcomeRecorder{
		identities: identities,
		logger:     logger,
	}
}

// RecordBlocked flips the identity to disabled and records the quarantine tier
func (r *OutcomeRecorder) RecordBlocked(ctx context.Context, identityID uuid.UUID, quarantineTier string) error {
	identity, err := r.identities.FindByID(ctx, identityID)
	if err != nil {
		return err
	}

	identity.Disable()
	identity.AssignTier(quarantineTier)
	identity.TouchSync(time.Now())

	if err := r.identities.Save(ctx, identity); err != nil {
		return err
	}

	r.logger.Info("identity blocked",
		zap.String("identity_id", identityID.String()),
		zap.String("tier", quarantineTier),
	)
	return nil
}

// RecordUnblocked flips the identity to enabled and records the restored tier
func (r *OutcomeRecorder) RecordUnblocked(ctx context.Context, identityID uuid.UUID, tierName string) error {
	identity, err := r.identities.FindByID(ctx, identityID)
	if err != nil {
		return err
	}

	identity.Enable()
	identity.AssignTier(tierName)
	identity.TouchSync(time.Now())

	if err := r.identities.Save(ctx, identity); err != nil {
		return err
	}

	r.logger.Info("identity unblocked",
		zap.String("identity_id", identityID.String()),
		zap.String("tier", tierName),
	)
	return nil
}

// RecordDeleted soft-deactivates the local mirror after device-side removal.
// The row is kept for audit; only the device loses the identity.
func (r *OutcomeRecorder) RecordDeleted(ctx context.Context, identityID uuid.UUID) error {
	identity, err := r.identities.FindByID(ctx, identityID)
	if err != nil {
		return err
	}

	identity.Deactivate()
	identity.TouchSync(time.Now())

	if err := r.identities.Save(ctx, identity); err != nil {
		return err
	}

	r.logger.Info("identity deactivated",
		zap.String("identity_id", identityID.String()),
	)
	return nil
}

// RecordTierChanged records a plan-driven tier reassignment
func (r *OutcomeRecorder) RecordTierChanged(ctx context.Context, identityID uuid.UUID, tierName string) error {
	identity, err := r.identities.FindByID(ctx, identityID)
	if err != nil {
		return err
	}

	identity.AssignTier(tierName)
	identity.TouchSync(time.Now())

	if err := r.identities.Save(ctx, identity); err != nil {
		return err
	}

	r.logger.Info("identity tier changed",
		zap.String("identity_id", identityID.String()),
		zap.String("tier", tierName),
	)
	return nil
}

package provisioning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/billing"
	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
	"github.com/netbill/backend/internal/infrastructure/event"
)

// PlanChangedHandler reacts to plan switches by reassigning the identity's
// device tier to the new plan's mapped tier.
type PlanChangedHandler struct {
	dispatcher TaskDispatcher
	retry      *RetryExecutor
	adapter    network.DeviceAdapter
	devices    network.DeviceRepository
	identities network.NetworkIdentityRepository
	plans      billing.ServicePlanRepository
	recorder   *OutcomeRecorder
	logger     *zap.Logger
}

// NewPlanChangedHandler creates a new plan changed handler
func NewPlanChangedHandler(
	dispatcher TaskDispatcher,
	retry *RetryExecutor,
	adapter network.DeviceAdapter,
	devices network.DeviceRepository,
	identities network.NetworkIdentityRepository,
	plans billing.ServicePlanRepository,
	recorder *OutcomeRecorder,
	logger *zap.Logger,
) *PlanChangedHandler {
	return &PlanChangedHandler{
		dispatcher: dispatcher,
		retry:      retry,
		adapter:    adapter,
		devices:    devices,
		identities: identities,
		plans:      plans,
		recorder:   recorder,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PlanChangedHandler) EventTypes() []string {
	return []string{billing.EventTypeContractPlanChanged}
}

// Handle enqueues the tier reassignment for the contract's identity
func (h *PlanChangedHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	evt, ok := e.(*billing.ContractPlanChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}

	if evt.NetworkIdentityID == nil {
		return nil
	}

	identityID := *evt.NetworkIdentityID
	newPlanID := evt.NewPlanID

	task := event.Task{
		Name: fmt.Sprintf("contract-plan-change-%s", evt.ContractID),
		Run: func(taskCtx context.Context) {
			h.applyPlanChange(taskCtx, identityID, newPlanID)
		},
	}

	if err := h.dispatcher.Submit(task); err != nil {
		h.logger.Error("failed to schedule tier reassignment",
			zap.String("contract_id", evt.ContractID.String()),
			zap.Error(err),
		)
	}
	return nil
}

// applyPlanChange reassigns the device tier and records the outcome
func (h *PlanChangedHandler) applyPlanChange(ctx context.Context, identityID, planID uuid.UUID) {
	plan, err := h.plans.FindByID(ctx, planID)
	if err != nil {
		h.logger.Error("plan not found for tier reassignment",
			zap.String("plan_id", planID.String()),
			zap.Error(err),
		)
		return
	}

	if !plan.HasTier() {
		// Permanent validation failure, not retried
		h.logger.Error("plan has no mapped tier, cannot reassign",
			zap.String("plan_id", planID.String()),
			zap.String("plan_name", plan.Name),
		)
		return
	}

	identity, err := h.identities.FindByID(ctx, identityID)
	if err != nil {
		h.logger.Error("identity not found for tier reassignment",
			zap.String("identity_id", identityID.String()),
			zap.Error(err),
		)
		return
	}

	device, err := h.devices.FindByID(ctx, identity.DeviceID)
	if err != nil {
		h.logger.Error("device not found for tier reassignment",
			zap.String("device_id", identity.DeviceID.String()),
			zap.Error(err),
		)
		return
	}

	target := device.Target()
	err = h.retry.Run(ctx, "change-tier", func(ctx context.Context) error {
		return h.adapter.ChangeIdentityTier(ctx, target, identity.Username, plan.TierName)
	})
	if err != nil {
		return
	}

	if err := h.recorder.RecordTierChanged(ctx, identity.ID, plan.TierName); err != nil {
		h.logger.Error("failed to record tier change outcome",
			zap.String("identity_id", identity.ID.String()),
			zap.Error(err),
		)
	}
}

// Ensure PlanChangedHandler implements EventHandler
var _ shared.EventHandler = (*PlanChangedHandler)(nil)

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

// TaskDispatcher schedules work on the bounded worker pool
type TaskDispatcher interface {
	Submit(task event.Task) error
}

// ContractStatusHandler reacts to contract status changes by applying the
// required device action asynchronously. The event delivery path only
// decides and enqueues; the device call, its retries and the outcome write
// all happen on a dispatcher worker.
type ContractStatusHandler struct {
	dispatcher TaskDispatcher
	retry      *RetryExecutor
	adapter    network.DeviceAdapter
	devices    network.DeviceRepository
	identities network.NetworkIdentityRepository
	plans      billing.ServicePlanRepository
	recorder   *OutcomeRecorder
	logger     *zap.Logger
}

// NewContractStatusHandler creates a new contract status handler
func NewContractStatusHandler(
	dispatcher TaskDispatcher,
	retry *RetryExecutor,
	adapter network.DeviceAdapter,
	devices network.DeviceRepository,
	identities network.NetworkIdentityRepository,
	plans billing.ServicePlanRepository,
	recorder *OutcomeRecorder,
	logger *zap.Logger,
) *ContractStatusHandler {
	return &ContractStatusHandler{
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
func (h *ContractStatusHandler) EventTypes() []string {
	return []string{billing.EventTypeContractStatusChanged}
}

// Handle decides the device action for a status change and enqueues it.
// It never blocks on the device: a saturated queue drops the task and logs,
// and the triggering request is never informed synchronously.
func (h *ContractStatusHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	evt, ok := e.(*billing.ContractStatusChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}

	action := billing.DecideDeviceAction(evt.PreviousStatus, evt.NewStatus)
	if action == billing.DeviceActionNone {
		return nil
	}

	if evt.NetworkIdentityID == nil {
		h.logger.Debug("contract has no network identity, skipping device action",
			zap.String("contract_id", evt.ContractID.String()),
			zap.String("action", string(action)),
		)
		return nil
	}

	identityID := *evt.NetworkIdentityID
	planID := evt.ServicePlanID

	task := event.Task{
		Name: fmt.Sprintf("contract-%s-%s", action, evt.ContractID),
		Run: func(taskCtx context.Context) {
			h.applyAction(taskCtx, action, identityID, planID)
		},
	}

	if err := h.dispatcher.Submit(task); err != nil {
		h.logger.Error("failed to schedule device action",
			zap.String("contract_id", evt.ContractID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
	return nil
}

// applyAction runs the device operation with retries and records the outcome
func (h *ContractStatusHandler) applyAction(ctx context.Context, action billing.DeviceAction, identityID, planID uuid.UUID) {
	identity, err := h.identities.FindByID(ctx, identityID)
	if err != nil {
		h.logger.Error("identity not found for device action",
			zap.String("identity_id", identityID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return
	}

	device, err := h.devices.FindByID(ctx, identity.DeviceID)
	if err != nil {
		h.logger.Error("device not found for device action",
			zap.String("device_id", identity.DeviceID.String()),
			zap.Error(err),
		)
		return
	}
	target := device.Target()

	switch action {
	case billing.DeviceActionBlock:
		h.block(ctx, target, identity, device.QuarantineTier)
	case billing.DeviceActionUnblock:
		h.unblock(ctx, target, identity, planID)
	case billing.DeviceActionDelete:
		h.delete(ctx, target, identity)
	}
}

// block moves the identity to the quarantine tier and drops its session
func (h *ContractStatusHandler) block(ctx context.Context, target network.DeviceTarget, identity *network.NetworkIdentity, quarantineTier string) {
	err := h.retry.Run(ctx, "change-tier", func(ctx context.Context) error {
		return h.adapter.ChangeIdentityTier(ctx, target, identity.Username, quarantineTier)
	})
	if err != nil {
		return
	}

	err = h.retry.Run(ctx, "disconnect", func(ctx context.Context) error {
		return h.adapter.DisconnectSession(ctx, target, identity.Username)
	})
	if err != nil {
		return
	}

	if err := h.recorder.RecordBlocked(ctx, identity.ID, quarantineTier); err != nil {
		h.logger.Error("failed to record block outcome",
			zap.String("identity_id", identity.ID.String()),
			zap.Error(err),
		)
	}
}

// unblock restores the identity to its plan's configured tier
func (h *ContractStatusHandler) unblock(ctx context.Context, target network.DeviceTarget, identity *network.NetworkIdentity, planID uuid.UUID) {
	plan, err := h.plans.FindByID(ctx, planID)
	if err != nil {
		h.logger.Error("plan not found for unblock",
			zap.String("plan_id", planID.String()),
			zap.Error(err),
		)
		return
	}

	if !plan.HasTier() {
		// Permanent validation failure, not retried
		h.logger.Error("plan has no mapped tier, cannot unblock",
			zap.String("plan_id", planID.String()),
			zap.String("plan_name", plan.Name),
			zap.String("identity_id", identity.ID.String()),
		)
		return
	}

	err = h.retry.Run(ctx, "change-tier", func(ctx context.Context) error {
		return h.adapter.ChangeIdentityTier(ctx, target, identity.Username, plan.TierName)
	})
	if err != nil {
		return
	}

	if err := h.recorder.RecordUnblocked(ctx, identity.ID, plan.TierName); err != nil {
		h.logger.Error("failed to record unblock outcome",
			zap.String("identity_id", identity.ID.String()),
			zap.Error(err),
		)
	}
}

// delete drops the session, removes the device-side identity and
// soft-deactivates the local mirror
func (h *ContractStatusHandler) delete(ctx context.Context, target network.DeviceTarget, identity *network.NetworkIdentity) {
	err := h.retry.Run(ctx, "disconnect", func(ctx context.Context) error {
		return h.adapter.DisconnectSession(ctx, target, identity.Username)
	})
	if err != nil {
		return
	}

	err = h.retry.Run(ctx, "delete-identity", func(ctx context.Context) error {
		return h.adapter.DeleteIdentity(ctx, target, identity.Username)
	})
	if err != nil {
		return
	}

	if err := h.recorder.RecordDeleted(ctx, identity.ID); err != nil {
		h.logger.Error("failed to record delete outcome",
			zap.String("identity_id", identity.ID.String()),
			zap.Error(err),
		)
	}
}

// Ensure ContractStatusHandler implements EventHandler
var _ shared.EventHandler = (*ContractStatusHandler)(nil)

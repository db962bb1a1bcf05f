package billing

import (
	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeServiceContract = "ServiceContract"
	AggregateTypeSubscriber      = "Subscriber"
)

// Event type constants
const (
	EventTypeContractCreated       = "ContractCreated"
	EventTypeContractStatusChanged = "ContractStatusChanged"
	EventTypeContractPlanChanged   = "ContractPlanChanged"
	EventTypeSubscriberCreated     = "SubscriberCreated"
)

// ContractCreatedEvent is published when a new service contract is created
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID    uuid.UUID      `json:"contract_id"`
	SubscriberID  uuid.UUID      `json:"subscriber_id"`
	ServicePlanID uuid.UUID      `json:"service_plan_id"`
	Status        ContractStatus `json:"status"`
}

// NewContractCreatedEvent creates a new ContractCreatedEvent
func NewContractCreatedEvent(contract *ServiceContract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCreated, AggregateTypeServiceContract, contract.ID, contract.TenantID),
		ContractID:      contract.ID,
		SubscriberID:    contract.SubscriberID,
		ServicePlanID:   contract.ServicePlanID,
		Status:          contract.Status,
	}
}

// ContractStatusChangedEvent is published when a contract's status changes.
// It carries everything the provisioning handler needs to decide and apply
// the device action without reloading the contract.
type ContractStatusChangedEvent struct {
	shared.BaseDomainEvent
	ContractID        uuid.UUID      `json:"contract_id"`
	PreviousStatus    ContractStatus `json:"previous_status"`
	NewStatus         ContractStatus `json:"new_status"`
	NetworkIdentityID *uuid.UUID     `json:"network_identity_id,omitempty"`
	ServicePlanID     uuid.UUID      `json:"service_plan_id"`
	Reason            string         `json:"reason,omitempty"`
}

// NewContractStatusChangedEvent creates a new ContractStatusChangedEvent
func NewContractStatusChangedEvent(contract *ServiceContract, previous, next ContractStatus, reason string) *ContractStatusChangedEvent {
	return &ContractStatusChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeContractStatusChanged, AggregateTypeServiceContract, contract.ID, contract.TenantID),
		ContractID:        contract.ID,
		PreviousStatus:    previous,
		NewStatus:         next,
		NetworkIdentityID: contract.NetworkIdentityID,
		ServicePlanID:     contract.ServicePlanID,
		Reason:            reason,
	}
}

// ContractPlanChangedEvent is published when a contract switches plans
type ContractPlanChangedEvent struct {
	shared.BaseDomainEvent
	ContractID        uuid.UUID  `json:"contract_id"`
	PreviousPlanID    uuid.UUID  `json:"previous_plan_id"`
	NewPlanID         uuid.UUID  `json:"new_plan_id"`
	NetworkIdentityID *uuid.UUID `json:"network_identity_id,omitempty"`
}

// NewContractPlanChangedEvent creates a new ContractPlanChangedEvent
func NewContractPlanChangedEvent(contract *ServiceContract, previousPlanID, newPlanID uuid.UUID) *ContractPlanChangedEvent {
	return &ContractPlanChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeContractPlanChanged, AggregateTypeServiceContract, contract.ID, contract.TenantID),
		ContractID:        contract.ID,
		PreviousPlanID:    previousPlanID,
		NewPlanID:         newPlanID,
		NetworkIdentityID: contract.NetworkIdentityID,
	}
}

// SubscriberCreatedEvent is published when a new subscriber is created
type SubscriberCreatedEvent struct {
	shared.BaseDomainEvent
	SubscriberID uuid.UUID `json:"subscriber_id"`
	Name         string    `json:"name"`
}

// NewSubscriberCreatedEvent creates a new SubscriberCreatedEvent
func NewSubscriberCreatedEvent(subscriber *Subscriber) *SubscriberCreatedEvent {
	return &SubscriberCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriberCreated, AggregateTypeSubscriber, subscriber.ID, subscriber.TenantID),
		SubscriberID:    subscriber.ID,
		Name:            subscriber.Name,
	}
}

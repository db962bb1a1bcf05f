package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/shared"
)

// ContractStatus represents the lifecycle status of a service contract
type ContractStatus string

const (
	ContractStatusDraft              ContractStatus = "draft"
	ContractStatusPending            ContractStatus = "pending"
	ContractStatusActive             ContractStatus = "active"
	ContractStatusSuspendedFinancial ContractStatus = "suspended_financial"
	ContractStatusSuspendedByRequest ContractStatus = "suspended_by_request"
	ContractStatusCanceled           ContractStatus = "canceled"
)

// allowedTransitions enumerates the legal status transitions.
// Canceled is terminal and has no outgoing transitions.
var allowedTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft: {
		ContractStatusPending,
		ContractStatusActive,
		ContractStatusCanceled,
	},
	ContractStatusPending: {
		ContractStatusActive,
		ContractStatusSuspendedFinancial,
		ContractStatusSuspendedByRequest,
		ContractStatusCanceled,
	},
	ContractStatusActive: {
		ContractStatusSuspendedFinancial,
		ContractStatusSuspendedByRequest,
		ContractStatusCanceled,
	},
	ContractStatusSuspendedFinancial: {
		ContractStatusActive,
		ContractStatusSuspendedByRequest,
		ContractStatusCanceled,
	},
	ContractStatusSuspendedByRequest: {
		ContractStatusActive,
		ContractStatusSuspendedFinancial,
		ContractStatusCanceled,
	},
}

// CanTransition reports whether a contract may move from one status to another
func CanTransition(from, to ContractStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsSuspended reports whether the status is one of the suspended variants
func (s ContractStatus) IsSuspended() bool {
	return s == ContractStatusSuspendedFinancial || s == ContractStatusSuspendedByRequest
}

// ServiceContract represents a subscriber's commercial agreement.
// It is the aggregate root for contract-related operations; status changes
// emit domain events that drive device provisioning.
type ServiceContract struct {
	shared.TenantAggregateRoot
	SubscriberID      uuid.UUID
	ServicePlanID     uuid.UUID
	NetworkIdentityID *uuid.UUID
	Status            ContractStatus
	BillingDay        int
}

// NewServiceContract creates a new contract in draft status
func NewServiceContract(tenantID, subscriberID, planID uuid.UUID, billingDay int) (*ServiceContract, error) {
	if billingDay < 1 || billingDay > 28 {
		return nil, shared.NewDomainError("INVALID_BILLING_DAY", "Billing day must be between 1 and 28")
	}

	contract := &ServiceContract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SubscriberID:        subscriberID,
		ServicePlanID:       planID,
		Status:              ContractStatusDraft,
	}
	contract.BillingDay = billingDay

	contract.AddDomainEvent(NewContractCreatedEvent(contract))

	return contract, nil
}

// LinkNetworkIdentity associates the contract with a device-side identity
func (c *ServiceContract) LinkNetworkIdentity(identityID uuid.UUID) error {
	if c.Status == ContractStatusCanceled {
		return shared.ErrInvalidState
	}
	c.NetworkIdentityID = &identityID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// Activate moves the contract to active status
func (c *ServiceContract) Activate(reason string) error {
	return c.changeStatus(ContractStatusActive, reason)
}

// SuspendFinancial suspends the contract for non-payment
func (c *ServiceContract) SuspendFinancial(reason string) error {
	return c.changeStatus(ContractStatusSuspendedFinancial, reason)
}

// SuspendByRequest suspends the contract at the subscriber's request
func (c *ServiceContract) SuspendByRequest(reason string) error {
	return c.changeStatus(ContractStatusSuspendedByRequest, reason)
}

// Cancel terminates the contract. Canceled contracts cannot change again.
func (c *ServiceContract) Cancel(reason string) error {
	return c.changeStatus(ContractStatusCanceled, reason)
}

// changeStatus applies a validated transition and records the status change event
func (c *ServiceContract) changeStatus(next ContractStatus, reason string) error {
	if c.Status == next {
		return nil
	}
	if !CanTransition(c.Status, next) {
		return shared.ErrInvalidTransition
	}

	previous := c.Status
	c.Status = next
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContractStatusChangedEvent(c, previous, next, reason))

	return nil
}

// ChangePlan switches the contract to a different service plan
func (c *ServiceContract) ChangePlan(newPlanID uuid.UUID) error {
	if c.Status == ContractStatusCanceled {
		return shared.ErrInvalidState
	}
	if c.ServicePlanID == newPlanID {
		return nil
	}

	previous := c.ServicePlanID
	c.ServicePlanID = newPlanID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContractPlanChangedEvent(c, previous, newPlanID))

	return nil
}

package billing

import (
	"context"

	"github.com/google/uuid"
)

// SubscriberRepository defines the interface for subscriber persistence
type SubscriberRepository interface {
	// FindByID finds a subscriber by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Subscriber, error)

	// FindByName finds a subscriber by exact name within a tenant
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*Subscriber, error)

	// FindAllForTenant finds all subscribers for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Subscriber, error)

	// Save creates or updates a subscriber
	Save(ctx context.Context, subscriber *Subscriber) error

	// ExistsByName checks if a subscriber with the given name exists in the tenant
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
}

// ServicePlanRepository defines the interface for service plan persistence
type ServicePlanRepository interface {
	// FindByID finds a plan by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ServicePlan, error)

	// FindByTierID finds the plan mapped to a profile tier, if any
	FindByTierID(ctx context.Context, tenantID, tierID uuid.UUID) (*ServicePlan, error)

	// FindAllForTenant finds all plans for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]ServicePlan, error)

	// Save creates or updates a plan
	Save(ctx context.Context, plan *ServicePlan) error
}

// ServiceContractRepository defines the interface for service contract persistence
type ServiceContractRepository interface {
	// FindByID finds a contract by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceContract, error)

	// FindByNetworkIdentityID finds the contract linked to a network identity, if any
	FindByNetworkIdentityID(ctx context.Context, tenantID, identityID uuid.UUID) (*ServiceContract, error)

	// FindByStatus finds contracts by status within a tenant
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status ContractStatus) ([]ServiceContract, error)

	// Save creates or updates a contract
	Save(ctx context.Context, contract *ServiceContract) error

	// ExistsForNetworkIdentity checks whether any contract links the given identity
	ExistsForNetworkIdentity(ctx context.Context, tenantID, identityID uuid.UUID) (bool, error)
}

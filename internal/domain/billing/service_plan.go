package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netbill/backend/internal/domain/shared"
)

// ServicePlan represents a commercial plan optionally mapped to a
// device-side profile tier. A plan with no mapped tier cannot be applied
// to a device.
type ServicePlan struct {
	shared.TenantAggregateRoot
	Name         string
	MonthlyPrice decimal.Decimal
	TierID       *uuid.UUID
	TierName     string
}

// NewServicePlan creates a new service plan
func NewServicePlan(tenantID uuid.UUID, name string, monthlyPrice decimal.Decimal) (*ServicePlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Plan name cannot be empty")
	}
	if monthlyPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Plan price cannot be negative")
	}

	return &ServicePlan{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		MonthlyPrice:        monthlyPrice,
	}, nil
}

// MapToTier associates the plan with a device-side profile tier
func (p *ServicePlan) MapToTier(tierID uuid.UUID, tierName string) error {
	if tierName == "" {
		return shared.NewDomainError("INVALID_TIER", "Tier name cannot be empty")
	}
	p.TierID = &tierID
	p.TierName = tierName
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// HasTier returns true if the plan is mapped to a device tier
func (p *ServicePlan) HasTier() bool {
	return p.TierID != nil && p.TierName != ""
}

// ChangePrice updates the monthly price
func (p *ServicePlan) ChangePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Plan price cannot be negative")
	}
	p.MonthlyPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

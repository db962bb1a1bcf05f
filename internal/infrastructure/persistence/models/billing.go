package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netbill/backend/internal/domain/billing"
)

// SubscriberModel is the persistence model for the Subscriber domain entity.
type SubscriberModel struct {
	TenantAggregateModel
	Name         string                   `gorm:"type:varchar(200);not null;index:idx_subscriber_tenant_name,priority:2"`
	Street       string                   `gorm:"type:varchar(200)"`
	StreetNumber string                   `gorm:"type:varchar(20)"`
	Phone        string                   `gorm:"type:varchar(50)"`
	Email        string                   `gorm:"type:varchar(200)"`
	Notes        string                   `gorm:"type:text"`
	Status       billing.SubscriberStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (SubscriberModel) TableName() string {
	return "subscribers"
}

// ToDomain converts the persistence model to a domain Subscriber
func (m *SubscriberModel) ToDomain() *billing.Subscriber {
	return &billing.Subscriber{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Street:              m.Street,
		StreetNumber:        m.StreetNumber,
		Phone:               m.Phone,
		Email:               m.Email,
		Notes:               m.Notes,
		Status:              m.Status,
	}
}

// FromDomain populates the persistence model from a domain Subscriber
func (m *SubscriberModel) FromDomain(s *billing.Subscriber) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Name = s.Name
	m.Street = s.Street
	m.StreetNumber = s.StreetNumber
	m.Phone = s.Phone
	m.Email = s.Email
	m.Notes = s.Notes
	m.Status = s.Status
}

// ServicePlanModel is the persistence model for the ServicePlan domain entity.
type ServicePlanModel struct {
	TenantAggregateModel
	Name         string          `gorm:"type:varchar(200);not null"`
	MonthlyPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TierID       *uuid.UUID      `gorm:"type:uuid;index"`
	TierName     string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (ServicePlanModel) TableName() string {
	return "service_plans"
}

// ToDomain converts the persistence model to a domain ServicePlan
func (m *ServicePlanModel) ToDomain() *billing.ServicePlan {
	return &billing.ServicePlan{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		MonthlyPrice:        m.MonthlyPrice,
		TierID:              m.TierID,
		TierName:            m.TierName,
	}
}

// FromDomain populates the persistence model from a domain ServicePlan
func (m *ServicePlanModel) FromDomain(p *billing.ServicePlan) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Name = p.Name
	m.MonthlyPrice = p.MonthlyPrice
	m.TierID = p.TierID
	m.TierName = p.TierName
}

// ServiceContractModel is the persistence model for the ServiceContract domain entity.
type ServiceContractModel struct {
	TenantAggregateModel
	SubscriberID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	ServicePlanID     uuid.UUID              `gorm:"type:uuid;not null"`
	NetworkIdentityID *uuid.UUID             `gorm:"type:uuid;index"`
	Status            billing.ContractStatus `gorm:"type:varchar(30);not null;default:'draft';index"`
	BillingDay        int                    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ServiceContractModel) TableName() string {
	return "service_contracts"
}

// ToDomain converts the persistence model to a domain ServiceContract
func (m *ServiceContractModel) ToDomain() *billing.ServiceContract {
	return &billing.ServiceContract{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SubscriberID:        m.SubscriberID,
		ServicePlanID:       m.ServicePlanID,
		NetworkIdentityID:   m.NetworkIdentityID,
		Status:              m.Status,
		BillingDay:          m.BillingDay,
	}
}

// FromDomain populates the persistence model from a domain ServiceContract
func (m *ServiceContractModel) FromDomain(c *billing.ServiceContract) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.SubscriberID = c.SubscriberID
	m.ServicePlanID = c.ServicePlanID
	m.NetworkIdentityID = c.NetworkIdentityID
	m.Status = c.Status
	m.BillingDay = c.BillingDay
}

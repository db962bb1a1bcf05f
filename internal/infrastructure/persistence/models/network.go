package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/network"
)

// DeviceModel is the persistence model for the Device domain entity.
type DeviceModel struct {
	TenantAggregateModel
	Name           string `gorm:"type:varchar(200);not null"`
	Host           string `gorm:"type:varchar(255);not null"`
	Port           int    `gorm:"not null"`
	Username       string `gorm:"type:varchar(100)"`
	Password       string `gorm:"type:varchar(200)"`
	QuarantineTier string `gorm:"type:varchar(200);not null"`
	Enabled        bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (DeviceModel) TableName() string {
	return "devices"
}

// ToDomain converts the persistence model to a domain Device
func (m *DeviceModel) ToDomain() *network.Device {
	return &network.Device{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Host:                m.Host,
		Port:                m.Port,
		Username:            m.Username,
		Password:            m.Password,
		QuarantineTier:      m.QuarantineTier,
		Enabled:             m.Enabled,
	}
}

// FromDomain populates the persistence model from a domain Device
func (m *DeviceModel) FromDomain(d *network.Device) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.Name = d.Name
	m.Host = d.Host
	m.Port = d.Port
	m.Username = d.Username
	m.Password = d.Password
	m.QuarantineTier = d.QuarantineTier
	m.Enabled = d.Enabled
}

// ProfileTierModel is the persistence model for the ProfileTier domain entity.
type ProfileTierModel struct {
	TenantAggregateModel
	DeviceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tier_device_name,priority:1"`
	Name       string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_tier_device_name,priority:2"`
	RateLimit  string    `gorm:"type:varchar(100)"`
	Quarantine bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProfileTierModel) TableName() string {
	return "profile_tiers"
}

// ToDomain converts the persistence model to a domain ProfileTier
func (m *ProfileTierModel) ToDomain() *network.ProfileTier {
	return &network.ProfileTier{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		DeviceID:            m.DeviceID,
		Name:                m.Name,
		RateLimit:           m.RateLimit,
		Quarantine:          m.Quarantine,
	}
}

// FromDomain populates the persistence model from a domain ProfileTier
func (m *ProfileTierModel) FromDomain(t *network.ProfileTier) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.DeviceID = t.DeviceID
	m.Name = t.Name
	m.RateLimit = t.RateLimit
	m.Quarantine = t.Quarantine
}

// NetworkIdentityModel is the persistence model for the NetworkIdentity domain entity.
type NetworkIdentityModel struct {
	TenantAggregateModel
	DeviceID     uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_identity_device_username,priority:1"`
	Username     string                 `gorm:"type:varchar(200);not null;uniqueIndex:idx_identity_device_username,priority:2"`
	TierName     string                 `gorm:"type:varchar(200)"`
	Comment      string                 `gorm:"type:text"`
	Active       bool                   `gorm:"not null;default:true"`
	Status       network.IdentityStatus `gorm:"type:varchar(20);not null;default:'enabled'"`
	LastSyncedAt *time.Time
}

// TableName returns the table name for GORM
func (NetworkIdentityModel) TableName() string {
	return "network_identities"
}

// ToDomain converts the persistence model to a domain NetworkIdentity
func (m *NetworkIdentityModel) ToDomain() *network.NetworkIdentity {
	return &network.NetworkIdentity{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		DeviceID:            m.DeviceID,
		Username:            m.Username,
		TierName:            m.TierName,
		Comment:             m.Comment,
		Active:              m.Active,
		Status:              m.Status,
		LastSyncedAt:        m.LastSyncedAt,
	}
}

// FromDomain populates the persistence model from a domain NetworkIdentity
func (m *NetworkIdentityModel) FromDomain(i *network.NetworkIdentity) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.DeviceID = i.DeviceID
	m.Username = i.Username
	m.TierName = i.TierName
	m.Comment = i.Comment
	m.Active = i.Active
	m.Status = i.Status
	m.LastSyncedAt = i.LastSyncedAt
}

package network

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/shared"
)

// IdentityStatus represents the status of a network identity
type IdentityStatus string

const (
	IdentityStatusEnabled  IdentityStatus = "enabled"
	IdentityStatusDisabled IdentityStatus = "disabled"
	IdentityStatusOffline  IdentityStatus = "offline"
)

// NetworkIdentity is the local mirror of a subscriber's credential on a
// device. The billing system owns policy (tier, enabled/disabled); the
// device owns connectivity. Identities are never hard-deleted locally,
// only deactivated, so the audit trail survives device-side removal.
type NetworkIdentity struct {
	shared.TenantAggregateRoot
	DeviceID     uuid.UUID
	Username     string
	TierName     string
	Comment      string
	Active       bool
	Status       IdentityStatus
	LastSyncedAt *time.Time
}

// NewNetworkIdentity creates a local mirror for a device-side identity
func NewNetworkIdentity(tenantID, deviceID uuid.UUID, username, tierName string) (*NetworkIdentity, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Identity username cannot be empty")
	}

	identity := &NetworkIdentity{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DeviceID:            deviceID,
		Username:            username,
		TierName:            tierName,
		Active:              true,
		Status:              IdentityStatusEnabled,
	}

	identity.AddDomainEvent(NewIdentityCreatedEvent(identity))

	return identity, nil
}

// AssignTier records the tier currently applied on the device
func (i *NetworkIdentity) AssignTier(tierName string) {
	i.TierName = tierName
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// Disable marks the identity as blocked
func (i *NetworkIdentity) Disable() {
	if i.Status == IdentityStatusDisabled {
		return
	}
	i.Status = IdentityStatusDisabled
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// Enable marks the identity as serviceable again
func (i *NetworkIdentity) Enable() {
	if i.Status == IdentityStatusEnabled {
		return
	}
	i.Status = IdentityStatusEnabled
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// Deactivate soft-deletes the identity after device-side removal
func (i *NetworkIdentity) Deactivate() {
	i.Active = false
	i.Status = IdentityStatusOffline
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// SetComment records the raw device-side annotation
func (i *NetworkIdentity) SetComment(comment string) {
	i.Comment = comment
	i.UpdatedAt = time.Now()
}

// TouchSync records when the identity was last reconciled with the device
func (i *NetworkIdentity) TouchSync(at time.Time) {
	i.LastSyncedAt = &at
	i.UpdatedAt = time.Now()
}

package network

import (
	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeNetworkIdentity = "NetworkIdentity"
)

// Event type constants
const (
	EventTypeIdentityCreated       = "NetworkIdentityCreated"
	EventTypeIdentityStatusChanged = "NetworkIdentityStatusChanged"
)

// IdentityCreatedEvent is published when a local identity mirror is created
type IdentityCreatedEvent struct {
	shared.BaseDomainEvent
	IdentityID uuid.UUID `json:"identity_id"`
	DeviceID   uuid.UUID `json:"device_id"`
	Username   string    `json:"username"`
}

// NewIdentityCreatedEvent creates a new IdentityCreatedEvent
func NewIdentityCreatedEvent(identity *NetworkIdentity) *IdentityCreatedEvent {
	return &IdentityCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIdentityCreated, AggregateTypeNetworkIdentity, identity.ID, identity.TenantID),
		IdentityID:      identity.ID,
		DeviceID:        identity.DeviceID,
		Username:        identity.Username,
	}
}

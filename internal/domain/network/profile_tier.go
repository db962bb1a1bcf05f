package network

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/shared"
)

// ProfileTier is the local mirror of a named bandwidth/policy class
// configured on a device.
type ProfileTier struct {
	shared.TenantAggregateRoot
	DeviceID   uuid.UUID
	Name       string
	RateLimit  string
	Quarantine bool
}

// NewProfileTier creates a local mirror of a device-side tier
func NewProfileTier(tenantID, deviceID uuid.UUID, name, rateLimit string) (*ProfileTier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tier name cannot be empty")
	}

	return &ProfileTier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DeviceID:            deviceID,
		Name:                name,
		RateLimit:           rateLimit,
	}, nil
}

// MarkQuarantine flags the tier as the quarantine/blocked tier
func (t *ProfileTier) MarkQuarantine() {
	t.Quarantine = true
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

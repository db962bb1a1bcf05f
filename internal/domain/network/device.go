package network

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/shared"
)

// Device represents an external network element whose configuration must
// mirror billing intent. The device holds the source of truth for "is
// currently connected"; local records hold the source of truth for policy.
type Device struct {
	shared.TenantAggregateRoot
	Name           string
	Host           string
	Port           int
	Username       string
	Password       string
	QuarantineTier string
	Enabled        bool
}

// NewDevice creates a new device record
func NewDevice(tenantID uuid.UUID, name, host string, port int) (*Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Device name cannot be empty")
	}
	if strings.TrimSpace(host) == "" {
		return nil, shared.NewDomainError("INVALID_HOST", "Device host cannot be empty")
	}
	if port <= 0 || port > 65535 {
		return nil, shared.NewDomainError("INVALID_PORT", "Device port must be between 1 and 65535")
	}

	return &Device{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Host:                host,
		Port:                port,
		QuarantineTier:      DefaultQuarantineTier,
		Enabled:             true,
	}, nil
}

// DefaultQuarantineTier is the tier blocked identities are parked on
const DefaultQuarantineTier = "BLOCKED"

// SetCredentials sets the management credentials
func (d *Device) SetCredentials(username, password string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Device username cannot be empty")
	}
	d.Username = username
	d.Password = password
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// SetQuarantineTier overrides the tier used for blocked identities
func (d *Device) SetQuarantineTier(tier string) error {
	if strings.TrimSpace(tier) == "" {
		return shared.NewDomainError("INVALID_TIER", "Quarantine tier cannot be empty")
	}
	d.QuarantineTier = tier
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// Disable marks the device as disabled for provisioning
func (d *Device) Disable() {
	d.Enabled = false
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

package network

import (
	"context"
	"time"
)

// DeviceTarget addresses one external device for adapter calls
type DeviceTarget struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Target builds the adapter address for a device record
func (d *Device) Target() DeviceTarget {
	return DeviceTarget{
		Host:     d.Host,
		Port:     d.Port,
		Username: d.Username,
		Password: d.Password,
	}
}

// Session is a live subscriber session as reported by the device
type Session struct {
	Username  string
	Address   string
	TierName  string
	Comment   string
	StartedAt time.Time
}

// TierInfo is a device-side bandwidth/policy class
type TierInfo struct {
	Name      string
	RateLimit string
}

// DeviceAdapter is the capability contract against one external device.
// Implementations talk a slow, unreliable management protocol; callers
// must never invoke these while holding a database transaction.
//
// Every mutating operation must be idempotent: applying it when the device
// is already in the target state is a silent success, not an error.
type DeviceAdapter interface {
	// ChangeIdentityTier reassigns the identity to the named tier
	ChangeIdentityTier(ctx context.Context, target DeviceTarget, username, tierName string) error

	// DisconnectSession force-drops the identity's live session.
	// Succeeds silently when no session is active.
	DisconnectSession(ctx context.Context, target DeviceTarget, username string) error

	// DeleteIdentity removes the device-side identity
	DeleteIdentity(ctx context.Context, target DeviceTarget, username string) error

	// ListActiveSessions returns the device's live sessions (read-only)
	ListActiveSessions(ctx context.Context, target DeviceTarget) ([]Session, error)

	// ListTiers returns the device's configured tiers (read-only)
	ListTiers(ctx context.Context, target DeviceTarget) ([]TierInfo, error)
}

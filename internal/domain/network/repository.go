package network

import (
	"context"

	"github.com/google/uuid"
)

// DeviceRepository defines the interface for device persistence
type DeviceRepository interface {
	// FindByID finds a device by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Device, error)

	// FindAllForTenant finds all devices for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Device, error)

	// Save creates or updates a device
	Save(ctx context.Context, device *Device) error
}

// ProfileTierRepository defines the interface for profile tier persistence
type ProfileTierRepository interface {
	// FindByID finds a tier by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProfileTier, error)

	// FindByName finds a tier by exact name within a tenant and device
	FindByName(ctx context.Context, tenantID, deviceID uuid.UUID, name string) (*ProfileTier, error)

	// FindAllForDevice finds all tiers mirrored for a device
	FindAllForDevice(ctx context.Context, tenantID, deviceID uuid.UUID) ([]ProfileTier, error)

	// Save creates or updates a tier
	Save(ctx context.Context, tier *ProfileTier) error

	// ExistsByName checks whether a tier with the given name is already mirrored
	ExistsByName(ctx context.Context, tenantID, deviceID uuid.UUID, name string) (bool, error)
}

// NetworkIdentityRepository defines the interface for network identity persistence
type NetworkIdentityRepository interface {
	// FindByID finds an identity by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*NetworkIdentity, error)

	// FindByUsername finds an identity by username within a tenant and device
	FindByUsername(ctx context.Context, tenantID, deviceID uuid.UUID, username string) (*NetworkIdentity, error)

	// FindAllForDevice finds all identities mirrored for a device
	FindAllForDevice(ctx context.Context, tenantID, deviceID uuid.UUID) ([]NetworkIdentity, error)

	// Save creates or updates an identity
	Save(ctx context.Context, identity *NetworkIdentity) error

	// ExistsByUsername checks whether an identity with the username is already mirrored
	ExistsByUsername(ctx context.Context, tenantID, deviceID uuid.UUID, username string) (bool, error)
}

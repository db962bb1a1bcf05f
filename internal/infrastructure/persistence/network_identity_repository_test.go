package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
)

func newIdentity(t *testing.T, tenantID, deviceID uuid.UUID, username string) *network.NetworkIdentity {
	t.Helper()
	identity, err := network.NewNetworkIdentity(tenantID, deviceID, username, "PLANO-50M")
	require.NoError(t, err)
	identity.ClearDomainEvents()
	return identity
}

func TestGormNetworkIdentityRepository_SaveAndFind(t *testing.T) {
	repo := NewGormNetworkIdentityRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	deviceID := uuid.New()

	identity := newIdentity(t, tenantID, deviceID, "felipe.achy")
	identity.SetComment("felipe achy/ nalmar alcantara n255")
	require.NoError(t, repo.Save(ctx, identity))

	byID, err := repo.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "felipe.achy", byID.Username)
	assert.Equal(t, "PLANO-50M", byID.TierName)
	assert.Equal(t, network.IdentityStatusEnabled, byID.Status)
	assert.True(t, byID.Active)

	byUsername, err := repo.FindByUsername(ctx, tenantID, deviceID, "felipe.achy")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, byUsername.ID)

	_, err = repo.FindByUsername(ctx, tenantID, uuid.New(), "felipe.achy")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormNetworkIdentityRepository_UpdateStatus(t *testing.T) {
	repo := NewGormNetworkIdentityRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	deviceID := uuid.New()

	identity := newIdentity(t, tenantID, deviceID, "felipe.achy")
	require.NoError(t, repo.Save(ctx, identity))

	identity.Disable()
	identity.AssignTier("BLOQUEADO")
	identity.TouchSync(time.Now())
	require.NoError(t, repo.Save(ctx, identity))

	found, err := repo.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, network.IdentityStatusDisabled, found.Status)
	assert.Equal(t, "BLOQUEADO", found.TierName)
	assert.NotNil(t, found.LastSyncedAt)
}

func TestGormNetworkIdentityRepository_Deactivate(t *testing.T) {
	repo := NewGormNetworkIdentityRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	deviceID := uuid.New()

	identity := newIdentity(t, tenantID, deviceID, "removed.user")
	require.NoError(t, repo.Save(ctx, identity))

	identity.Deactivate()
	require.NoError(t, repo.Save(ctx, identity))

	found, err := repo.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)
	assert.Equal(t, network.IdentityStatusOffline, found.Status)
}

func TestGormNetworkIdentityRepository_ExistsAndList(t *testing.T) {
	repo := NewGormNetworkIdentityRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	deviceID := uuid.New()
	otherDevice := uuid.New()

	require.NoError(t, repo.Save(ctx, newIdentity(t, tenantID, deviceID, "user-a")))
	require.NoError(t, repo.Save(ctx, newIdentity(t, tenantID, deviceID, "user-b")))
	require.NoError(t, repo.Save(ctx, newIdentity(t, tenantID, otherDevice, "user-c")))

	exists, err := repo.ExistsByUsername(ctx, tenantID, deviceID, "user-a")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(ctx, tenantID, deviceID, "user-c")
	require.NoError(t, err)
	assert.False(t, exists)

	identities, err := repo.FindAllForDevice(ctx, tenantID, deviceID)
	require.NoError(t, err)
	assert.Len(t, identities, 2)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "event-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	assert.Equal(t, 2, store.Size())
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_TTLExpiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "event-1", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.False(t, processed)

	// An expired key can be claimed again
	isNew, err := store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "expired", time.Nanosecond)
	require.NoError(t, err)
	_, err = store.MarkProcessed(ctx, "live", time.Hour)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

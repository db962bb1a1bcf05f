package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/shared"
)

// fakeIdempotencyStore lets tests script MarkProcessed outcomes
type fakeIdempotencyStore struct {
	seen map[string]bool
	err  error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.seen[eventID], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

func TestIdempotentHandler_ProcessesFirstDelivery(t *testing.T) {
	inner := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	handler := NewIdempotentHandler(inner, newFakeIdempotencyStore(), zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), newTestEvent("OrderPlaced")))

	assert.Equal(t, 1, inner.count())
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
	assert.Equal(t, []string{"OrderPlaced"}, handler.EventTypes())
}

func TestIdempotentHandler_SkipsDuplicateDelivery(t *testing.T) {
	inner := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	handler := NewIdempotentHandler(inner, newFakeIdempotencyStore(), zap.NewNop())

	event := newTestEvent("OrderPlaced")
	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Equal(t, 1, inner.count())
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
	assert.Equal(t, int64(1), handler.Metrics().EventsDuplicate.Load())
}

func TestIdempotentHandler_ProcessesOnStoreError(t *testing.T) {
	inner := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	store := newFakeIdempotencyStore()
	store.err = errors.New("store unavailable")
	handler := NewIdempotentHandler(inner, store, zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), newTestEvent("OrderPlaced")))

	assert.Equal(t, 1, inner.count())
}

func TestIdempotentHandler_PropagatesHandlerFailure(t *testing.T) {
	innerErr := errors.New("downstream failed")
	inner := &recordingHandler{eventTypes: []string{"OrderPlaced"}, err: innerErr}
	handler := NewIdempotentHandler(inner, newFakeIdempotencyStore(), zap.NewNop())

	err := handler.Handle(context.Background(), newTestEvent("OrderPlaced"))
	assert.ErrorIs(t, err, innerErr)
	assert.Equal(t, int64(1), handler.Metrics().EventsFailed.Load())
	assert.Equal(t, int64(0), handler.Metrics().EventsProcessed.Load())
}

func TestIdempotentHandler_DisabledBypassesStore(t *testing.T) {
	inner := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	store := newFakeIdempotencyStore()
	store.err = errors.New("must not be called")

	handler := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}),
	)

	event := newTestEvent("OrderPlaced")
	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Equal(t, 2, inner.count())
}

package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/shared"
)

// recordingHandler records every event it receives
type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	received   []shared.DomainEvent
	err        error
	panics     bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	h.received = append(h.received, event)
	h.mu.Unlock()
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), uuid.New()),
	}
}

func TestInMemoryEventBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	defer bus.Stop(context.Background())

	matching := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	other := &recordingHandler{eventTypes: []string{"OrderShipped"}}

	bus.Subscribe(matching)
	bus.Subscribe(other)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))

	assert.Equal(t, 1, matching.count())
	assert.Equal(t, 0, other.count())
}

func TestInMemoryEventBus_SubscribeWithExplicitTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	bus.Subscribe(handler, "OrderShipped")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Equal(t, 0, handler.count())

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderShipped")))
	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &recordingHandler{eventTypes: []string{"OrderPlaced"}, err: errors.New("boom")}
	healthy := &recordingHandler{eventTypes: []string{"OrderPlaced"}}

	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_RecoversFromHandlerPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	panicking := &recordingHandler{eventTypes: []string{"OrderPlaced"}, panics: true}
	healthy := &recordingHandler{eventTypes: []string{"OrderPlaced"}}

	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	})

	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Equal(t, 0, handler.count())
}

func TestHandlerRegistry_WildcardReceivesEverything(t *testing.T) {
	registry := NewHandlerRegistry()

	wildcard := &recordingHandler{}
	typed := &recordingHandler{eventTypes: []string{"OrderPlaced"}}

	registry.Register(wildcard)
	registry.Register(typed, "OrderPlaced")

	assert.Len(t, registry.GetHandlers("OrderPlaced"), 2)
	assert.Len(t, registry.GetHandlers("OrderShipped"), 1)

	registry.Unregister(wildcard)
	assert.Len(t, registry.GetHandlers("OrderShipped"), 0)
}

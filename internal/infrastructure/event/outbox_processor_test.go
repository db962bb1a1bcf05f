package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/shared"
)

// memOutboxRepo is an in-memory OutboxRepository for driving the processor
type memOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newMemOutboxRepo() *memOutboxRepo {
	return &memOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memOutboxRepo) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		copied := *e
		r.entries[e.ID] = &copied
	}
	return nil
}

func (r *memOutboxRepo) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending && len(result) < limit {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memOutboxRepo) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && e.NextRetryAt.Before(before) && len(result) < limit {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memOutboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *memOutboxRepo) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	var claimed []*shared.OutboxEntry
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok {
			continue
		}
		if e.Status != shared.OutboxStatusPending && e.Status != shared.OutboxStatusFailed {
			continue
		}
		e.Status = shared.OutboxStatusProcessing
		copied := *e
		claimed = append(claimed, &copied)
	}
	return claimed, nil
}

func (r *memOutboxRepo) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *memOutboxRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	for id, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memOutboxRepo) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

type processorFixture struct {
	processor *OutboxProcessor
	repo      *memOutboxRepo
	handler   *recordingHandler
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()

	serializer := NewEventSerializer()
	serializer.Register("OrderPlaced", &testEvent{})

	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{eventTypes: []string{"OrderPlaced"}}
	bus.Subscribe(handler)

	repo := newMemOutboxRepo()
	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())

	return &processorFixture{processor: processor, repo: repo, handler: handler}
}

func (f *processorFixture) saveEvent(t *testing.T, event *testEvent) *shared.OutboxEntry {
	t.Helper()

	serializer := NewEventSerializer()
	payload, err := serializer.Serialize(event)
	require.NoError(t, err)

	entry := shared.NewOutboxEntry(event.TenantID(), event, payload)
	require.NoError(t, f.repo.Save(context.Background(), entry))
	return entry
}

func TestOutboxProcessor_DeliversPendingEntries(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	event := newTestEvent("OrderPlaced")
	entry := f.saveEvent(t, event)

	f.processor.processBatch(ctx)

	assert.Equal(t, 1, f.handler.count())
	assert.Equal(t, event.EventID(), f.handler.received[0].EventID())

	stored, err := f.repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestOutboxProcessor_RedeliveryIsHarmless(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	f.saveEvent(t, newTestEvent("OrderPlaced"))

	f.processor.processBatch(ctx)
	f.processor.processBatch(ctx)

	// Sent entries are not picked up again
	assert.Equal(t, 1, f.handler.count())
}

func TestOutboxProcessor_UnknownEventTypeGoesToFailed(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	entry := f.saveEvent(t, newTestEvent("UnregisteredType"))

	f.processor.processBatch(ctx)

	assert.Equal(t, 0, f.handler.count())

	stored, err := f.repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.LastError, "unknown event type")
	require.NotNil(t, stored.NextRetryAt)
}

func TestOutboxProcessor_ExhaustedRetriesGoDead(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	entry := f.saveEvent(t, newTestEvent("UnregisteredType"))

	for i := 0; i < shared.DefaultMaxRetries; i++ {
		f.processor.processBatch(ctx)

		// Pull the retry forward so the next batch picks it up
		stored, err := f.repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		if stored.NextRetryAt != nil {
			past := time.Now().Add(-time.Second)
			stored.NextRetryAt = &past
			require.NoError(t, f.repo.Update(ctx, stored))
		}
	}

	stored, err := f.repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDead())
	assert.Equal(t, shared.DefaultMaxRetries, stored.RetryCount)

	// Dead entries are never retried
	f.processor.processBatch(ctx)
	stored, err = f.repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.DefaultMaxRetries, stored.RetryCount)
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	entry := f.saveEvent(t, newTestEvent("OrderPlaced"))
	f.processor.processBatch(ctx)

	stored, err := f.repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	old := time.Now().Add(-30 * 24 * time.Hour)
	stored.ProcessedAt = &old
	require.NoError(t, f.repo.Update(ctx, stored))

	f.processor.cleanup(ctx)

	_, err = f.repo.FindByID(ctx, entry.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	f := newProcessorFixture(t)

	require.NoError(t, f.processor.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, f.processor.Stop(ctx))
}

func TestOutboxPublisher_RejectsUnknownTxProvider(t *testing.T) {
	publisher := NewOutboxPublisher(NewEventSerializer())

	err := publisher.SaveEvents(context.Background(), "not a tx", newTestEvent("OrderPlaced"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "*gorm.DB")

	// No events is a no-op regardless of the provider
	assert.NoError(t, publisher.SaveEvents(context.Background(), "not a tx"))
}

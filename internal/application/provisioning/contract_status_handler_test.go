package provisioning

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/billing"
	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
	"github.com/netbill/backend/internal/infrastructure/event"
)

func decimalFromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// syncDispatcher runs submitted tasks inline so tests stay deterministic
type syncDispatcher struct {
	submitted []string
}

func (d *syncDispatcher) Submit(task event.Task) error {
	d.submitted = append(d.submitted, task.Name)
	task.Run(context.Background())
	return nil
}

// rejectingDispatcher simulates a saturated queue
type rejectingDispatcher struct {
	rejected int
}

func (d *rejectingDispatcher) Submit(task event.Task) error {
	d.rejected++
	return event.ErrDispatcherQueueFull
}

// fakeAdapter records device calls and fails a configurable number of times
// per operation
type fakeAdapter struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{failures: make(map[string]int)}
}

func (a *fakeAdapter) record(op string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, op)
	if a.failures[opKey(op)] > 0 {
		a.failures[opKey(op)]--
		return fmt.Errorf("%s: %w", op, shared.ErrDeviceUnavailable)
	}
	return nil
}

func opKey(op string) string {
	for i := 0; i < len(op); i++ {
		if op[i] == ':' {
			return op[:i]
		}
	}
	return op
}

func (a *fakeAdapter) ChangeIdentityTier(ctx context.Context, target network.DeviceTarget, username, tierName string) error {
	return a.record("change-tier:" + username + ":" + tierName)
}

func (a *fakeAdapter) DisconnectSession(ctx context.Context, target network.DeviceTarget, username string) error {
	return a.record("disconnect:" + username)
}

func (a *fakeAdapter) DeleteIdentity(ctx context.Context, target network.DeviceTarget, username string) error {
	return a.record("delete:" + username)
}

func (a *fakeAdapter) ListActiveSessions(ctx context.Context, target network.DeviceTarget) ([]network.Session, error) {
	return nil, nil
}

func (a *fakeAdapter) ListTiers(ctx context.Context, target network.DeviceTarget) ([]network.TierInfo, error) {
	return nil, nil
}

func (a *fakeAdapter) callCount(prefix string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if opKey(c) == prefix {
			n++
		}
	}
	return n
}

// In-memory repositories

type memDeviceRepo struct {
	devices map[uuid.UUID]*network.Device
}

func (r *memDeviceRepo) FindByID(ctx context.Context, id uuid.UUID) (*network.Device, error) {
	if d, ok := r.devices[id]; ok {
		return d, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memDeviceRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]network.Device, error) {
	return nil, nil
}

func (r *memDeviceRepo) Save(ctx context.Context, device *network.Device) error {
	r.devices[device.ID] = device
	return nil
}

type memIdentityRepo struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*network.NetworkIdentity
}

func (r *memIdentityRepo) FindByID(ctx context.Context, id uuid.UUID) (*network.NetworkIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.identities[id]; ok {
		copied := *i
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memIdentityRepo) FindByUsername(ctx context.Context, tenantID, deviceID uuid.UUID, username string) (*network.NetworkIdentity, error) {
	return nil, shared.ErrNotFound
}

func (r *memIdentityRepo) FindAllForDevice(ctx context.Context, tenantID, deviceID uuid.UUID) ([]network.NetworkIdentity, error) {
	return nil, nil
}

func (r *memIdentityRepo) Save(ctx context.Context, identity *network.NetworkIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *identity
	r.identities[identity.ID] = &copied
	return nil
}

func (r *memIdentityRepo) ExistsByUsername(ctx context.Context, tenantID, deviceID uuid.UUID, username string) (bool, error) {
	return false, nil
}

type memPlanRepo struct {
	plans map[uuid.UUID]*billing.ServicePlan
}

func (r *memPlanRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.ServicePlan, error) {
	if p, ok := r.plans[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memPlanRepo) FindByTierID(ctx context.Context, tenantID, tierID uuid.UUID) (*billing.ServicePlan, error) {
	return nil, shared.ErrNotFound
}

func (r *memPlanRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]billing.ServicePlan, error) {
	return nil, nil
}

func (r *memPlanRepo) Save(ctx context.Context, plan *billing.ServicePlan) error {
	r.plans[plan.ID] = plan
	return nil
}

// fixture wires a handler over in-memory state with a synchronous dispatcher
// and a no-delay retry executor
type handlerFixture struct {
	handler    *ContractStatusHandler
	dispatcher *syncDispatcher
	adapter    *fakeAdapter
	identities *memIdentityRepo

	tenantID   uuid.UUID
	device     *network.Device
	identity   *network.NetworkIdentity
	plan       *billing.ServicePlan
	contractID uuid.UUID
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	tenantID := uuid.New()

	device, err := network.NewDevice(tenantID, "router-1", "10.0.0.1", 8728)
	require.NoError(t, err)
	require.NoError(t, device.SetCredentials("api", "secret"))
	require.NoError(t, device.SetQuarantineTier("BLOQUEADO"))

	identity, err := network.NewNetworkIdentity(tenantID, device.ID, "felipe", "PLANO-50M")
	require.NoError(t, err)
	identity.ClearDomainEvents()

	plan, err := billing.NewServicePlan(tenantID, "Plano 50M", decimalFromInt(80))
	require.NoError(t, err)
	require.NoError(t, plan.MapToTier(uuid.New(), "PLANO-50M"))

	deviceRepo := &memDeviceRepo{devices: map[uuid.UUID]*network.Device{device.ID: device}}
	identityRepo := &memIdentityRepo{identities: map[uuid.UUID]*network.NetworkIdentity{identity.ID: identity}}
	planRepo := &memPlanRepo{plans: map[uuid.UUID]*billing.ServicePlan{plan.ID: plan}}

	dispatcher := &syncDispatcher{}
	adapter := newFakeAdapter()
	retry := NewRetryExecutor(RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0}, zap.NewNop())
	retry.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	recorder := NewOutcomeRecorder(identityRepo, zap.NewNop())

	handler := NewContractStatusHandler(
		dispatcher, retry, adapter,
		deviceRepo, identityRepo, planRepo,
		recorder, zap.NewNop(),
	)

	return &handlerFixture{
		handler:    handler,
		dispatcher: dispatcher,
		adapter:    adapter,
		identities: identityRepo,
		tenantID:   tenantID,
		device:     device,
		identity:   identity,
		plan:       plan,
		contractID: uuid.New(),
	}
}

func (f *handlerFixture) statusEvent(previous, next billing.ContractStatus) *billing.ContractStatusChangedEvent {
	identityID := f.identity.ID
	return &billing.ContractStatusChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(billing.EventTypeContractStatusChanged, billing.AggregateTypeServiceContract, f.contractID, f.tenantID),
		ContractID:        f.contractID,
		PreviousStatus:    previous,
		NewStatus:         next,
		NetworkIdentityID: &identityID,
		ServicePlanID:     f.plan.ID,
	}
}

func TestContractStatusHandler_Block(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	err := f.handler.Handle(ctx, f.statusEvent(billing.ContractStatusActive, billing.ContractStatusSuspendedFinancial))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"change-tier:felipe:BLOQUEADO",
		"disconnect:felipe",
	}, f.adapter.calls)

	updated, err := f.identities.FindByID(ctx, f.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, network.IdentityStatusDisabled, updated.Status)
	assert.Equal(t, "BLOQUEADO", updated.TierName)
	assert.NotNil(t, updated.LastSyncedAt)
}

func TestContractStatusHandler_Unblock(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	err := f.handler.Handle(ctx, f.statusEvent(billing.ContractStatusSuspendedFinancial, billing.ContractStatusActive))
	require.NoError(t, err)

	assert.Equal(t, []string{"change-tier:felipe:PLANO-50M"}, f.adapter.calls)

	updated, err := f.identities.FindByID(ctx, f.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, network.IdentityStatusEnabled, updated.Status)
	assert.Equal(t, "PLANO-50M", updated.TierName)
}

func TestContractStatusHandler_Delete(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	err := f.handler.Handle(ctx, f.statusEvent(billing.ContractStatusActive, billing.ContractStatusCanceled))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"disconnect:felipe",
		"delete:felipe",
	}, f.adapter.calls)

	updated, err := f.identities.FindByID(ctx, f.identity.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, network.IdentityStatusOffline, updated.Status)
}

func TestContractStatusHandler_NoActionTransitions(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	err := f.handler.Handle(ctx, f.statusEvent(billing.ContractStatusDraft, billing.ContractStatusActive))
	require.NoError(t, err)

	assert.Empty(t, f.dispatcher.submitted)
	assert.Empty(t, f.adapter.calls)
}

func TestContractStatusHandler_RecoversAfterTransientFailures(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	// First two tier changes fail, the third succeeds
	f.adapter.failures["change-tier"] = 2

	err := f.handler.Handle(ctx, f.statusEvent(billing.ContractStatusActive, billing.ContractStatusSuspendedFinancial))
	require.NoError(t, err)

	assert.Equal(t, 3, f.adapter.callCount("change-tier"))
	assert.Equal(t, 1, f.adapter.callCount("disconnect"))

	updated, err := f.identities.FindByID(ctx, f.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, network.IdentityStatusDisabled, updated.Status)
}

func TestContractStatusHandler_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	f.adapter.failures["change-tier"] = 10

	err := f.handler.Handle(ctx, f.statusEvent(billing.ContractStatusActive, billing.ContractStatusSuspendedFinancial))
	require.NoError(t, err)

	// Exactly MaxAttempts calls, then the chain stops
	assert.Equal(t, 3, f.adapter.callCount("change-tier"))
	assert.Equal(t, 0, f.adapter.callCount("disconnect"))

	// Outcome is not recorded on failure
	updated, err := f.identities.FindByID(ctx, f.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, network.IdentityStatusEnabled, updated.Status)
}

func TestContractStatusHandler_UnblockWithoutMappedTier(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	unmapped, err := billing.NewServicePlan(f.tenantID, "Orphan Plan", decimalFromInt(50))
	require.NoError(t, err)
	f.handler.plans.(*memPlanRepo).plans[unmapped.ID] = unmapped

	evt := f.statusEvent(billing.ContractStatusSuspendedFinancial, billing.ContractStatusActive)
	evt.ServicePlanID = unmapped.ID

	require.NoError(t, f.handler.Handle(ctx, evt))

	// Permanent validation failure: no device call at all
	assert.Empty(t, f.adapter.calls)
}

func TestContractStatusHandler_SkipsWithoutIdentity(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	evt := f.statusEvent(billing.ContractStatusActive, billing.ContractStatusCanceled)
	evt.NetworkIdentityID = nil

	require.NoError(t, f.handler.Handle(ctx, evt))
	assert.Empty(t, f.dispatcher.submitted)
}

func TestContractStatusHandler_QueueFullDoesNotFailDelivery(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	rejecting := &rejectingDispatcher{}
	handler := NewContractStatusHandler(
		rejecting, f.handler.retry, f.adapter,
		f.handler.devices, f.handler.identities, f.handler.plans,
		f.handler.recorder, zap.NewNop(),
	)

	// Event delivery must still report success so the outbox marks it sent
	err := handler.Handle(ctx, f.statusEvent(billing.ContractStatusActive, billing.ContractStatusSuspendedFinancial))
	require.NoError(t, err)
	assert.Equal(t, 1, rejecting.rejected)
	assert.Empty(t, f.adapter.calls)
}

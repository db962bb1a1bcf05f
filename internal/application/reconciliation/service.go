package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/billing"
	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
)

// Phase names reported in the result
const (
	PhaseTierSync          = "tier_sync"
	PhasePlanBackfill      = "plan_backfill"
	PhaseIdentitySync      = "identity_sync"
	PhaseCustomerInference = "customer_inference"
	PhaseContractSynthesis = "contract_synthesis"
)

// Service runs the full-sync reconciliation pipeline: it reads the device's
// live state and merges it into local records without duplicating existing
// ones. Each phase commits per item; a failure in a later phase never rolls
// back earlier, already-correct work.
type Service struct {
	devices     network.DeviceRepository
	tiers       network.ProfileTierRepository
	identities  network.NetworkIdentityRepository
	plans       billing.ServicePlanRepository
	subscribers billing.SubscriberRepository
	contracts   billing.ServiceContractRepository
	adapter     network.DeviceAdapter
	logger      *zap.Logger

	// deviceRuns serializes concurrent full-sync runs per device
	mu         sync.Mutex
	deviceRuns map[uuid.UUID]*sync.Mutex
}

// NewService creates a new reconciliation service
func NewService(
	devices network.DeviceRepository,
	tiers network.ProfileTierRepository,
	identities network.NetworkIdentityRepository,
	plans billing.ServicePlanRepository,
	subscribers billing.SubscriberRepository,
	contracts billing.ServiceContractRepository,
	adapter network.DeviceAdapter,
	logger *zap.Logger,
) *Service {
	return &Service{
		devices:     devices,
		tiers:       tiers,
		identities:  identities,
		plans:       plans,
		subscribers: subscribers,
		contracts:   contracts,
		adapter:     adapter,
		logger:      logger,
		deviceRuns:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// resolvedIdentity links a network identity to the subscriber inferred for it
type resolvedIdentity struct {
	identityID   uuid.UUID
	subscriberID uuid.UUID
}

// FullSync runs the five-phase pipeline against one device. It always
// returns a structured result with per-phase counts and diagnostics, even
// when the run fails part-way through.
func (s *Service) FullSync(ctx context.Context, req FullSyncRequest) (result *ReconciliationResult, err error) {
	result = &ReconciliationResult{
		DeviceID:  req.DeviceID,
		StartedAt: time.Now(),
		Success:   true,
	}

	defer func() {
		result.Elapsed = time.Since(result.StartedAt)
		if r := recover(); r != nil {
			s.logger.Error("reconciliation pipeline panicked",
				zap.String("device_id", req.DeviceID.String()),
				zap.Any("panic", r),
			)
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("pipeline aborted: %v", r))
			err = nil
		}
	}()

	unlock := s.lockDevice(req.DeviceID)
	defer unlock()

	device, err := s.devices.FindByID(ctx, req.DeviceID)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("device lookup failed: %v", err))
		return result, err
	}

	target := device.Target()
	tenantID := device.TenantID

	s.logger.Info("reconciliation started",
		zap.String("device_id", device.ID.String()),
		zap.String("device", device.Name),
	)

	result.addPhase(s.syncTiers(ctx, result, tenantID, device, target))

	if req.CreateMissingPlans {
		result.addPhase(s.backfillPlans(ctx, tenantID, device, req))
	}

	result.addPhase(s.syncIdentities(ctx, result, tenantID, device, target))

	var resolved []resolvedIdentity
	if req.CreateMissingCustomers || req.CreateContracts {
		var phase PhaseResult
		resolved, phase = s.inferSubscribers(ctx, tenantID, device, req.CreateMissingCustomers)
		result.addPhase(phase)
	}

	if req.CreateContracts {
		result.addPhase(s.synthesizeContracts(ctx, tenantID, device, resolved, req))
	}

	if result.TotalFailed() > 0 {
		result.Success = false
	}

	s.logger.Info("reconciliation finished",
		zap.String("device_id", device.ID.String()),
		zap.Bool("success", result.Success),
		zap.Int("created", result.TotalCreated()),
		zap.Int("failed", result.TotalFailed()),
	)

	return result, nil
}

// lockDevice serializes full-sync runs for one device
func (s *Service) lockDevice(deviceID uuid.UUID) func() {
	s.mu.Lock()
	m, ok := s.deviceRuns[deviceID]
	if !ok {
		m = &sync.Mutex{}
		s.deviceRuns[deviceID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// syncTiers mirrors device-side tiers as local ProfileTier records.
// Duplicates are skipped by exact name match.
func (s *Service) syncTiers(ctx context.Context, result *ReconciliationResult, tenantID uuid.UUID, device *network.Device, target network.DeviceTarget) PhaseResult {
	phase := PhaseResult{Phase: PhaseTierSync}

	deviceTiers, err := s.adapter.ListTiers(ctx, target)
	if err != nil {
		phase.Errors = append(phase.Errors, fmt.Sprintf("failed to list device tiers: %v", err))
		result.Success = false
		return phase
	}

	for _, tierInfo := range deviceTiers {
		exists, err := s.tiers.ExistsByName(ctx, tenantID, device.ID, tierInfo.Name)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("tier %q: %v", tierInfo.Name, err))
			continue
		}
		if exists {
			phase.Skipped++
			continue
		}

		tier, err := network.NewProfileTier(tenantID, device.ID, tierInfo.Name, tierInfo.RateLimit)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("tier %q: %v", tierInfo.Name, err))
			continue
		}
		if tier.Name == device.QuarantineTier {
			tier.MarkQuarantine()
		}

		if err := s.tiers.Save(ctx, tier); err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("tier %q: %v", tierInfo.Name, err))
			continue
		}

		phase.Created++
		phase.CreatedNames = append(phase.CreatedNames, tier.Name)
	}

	return phase
}

// backfillPlans auto-creates a default-priced plan for every tier that has
// none mapped yet
func (s *Service) backfillPlans(ctx context.Context, tenantID uuid.UUID, device *network.Device, req FullSyncRequest) PhaseResult {
	phase := PhaseResult{Phase: PhasePlanBackfill}

	localTiers, err := s.tiers.FindAllForDevice(ctx, tenantID, device.ID)
	if err != nil {
		phase.Errors = append(phase.Errors, fmt.Sprintf("failed to list local tiers: %v", err))
		return phase
	}

	for _, tier := range localTiers {
		_, err := s.plans.FindByTierID(ctx, tenantID, tier.ID)
		if err == nil {
			phase.Skipped++
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("plan lookup for tier %q: %v", tier.Name, err))
			continue
		}

		plan, err := billing.NewServicePlan(tenantID, tier.Name, req.DefaultPlanPrice)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("plan for tier %q: %v", tier.Name, err))
			continue
		}
		if err := plan.MapToTier(tier.ID, tier.Name); err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("plan for tier %q: %v", tier.Name, err))
			continue
		}

		if err := s.plans.Save(ctx, plan); err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("plan for tier %q: %v", tier.Name, err))
			continue
		}

		phase.Created++
		phase.CreatedNames = append(phase.CreatedNames, plan.Name)
	}

	return phase
}

// syncIdentities mirrors device-side sessions as local NetworkIdentity
// records. Known usernames are left untouched, never overwritten.
func (s *Service) syncIdentities(ctx context.Context, result *ReconciliationResult, tenantID uuid.UUID, device *network.Device, target network.DeviceTarget) PhaseResult {
	phase := PhaseResult{Phase: PhaseIdentitySync}

	sessions, err := s.adapter.ListActiveSessions(ctx, target)
	if err != nil {
		phase.Errors = append(phase.Errors, fmt.Sprintf("failed to list device sessions: %v", err))
		result.Success = false
		return phase
	}

	now := time.Now()
	for _, session := range sessions {
		exists, err := s.identities.ExistsByUsername(ctx, tenantID, device.ID, session.Username)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", session.Username, err))
			continue
		}
		if exists {
			phase.Skipped++
			continue
		}

		identity, err := network.NewNetworkIdentity(tenantID, device.ID, session.Username, session.TierName)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", session.Username, err))
			continue
		}
		identity.SetComment(session.Comment)
		identity.TouchSync(now)

		if err := s.identities.Save(ctx, identity); err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", session.Username, err))
			continue
		}

		phase.Created++
		phase.CreatedNames = append(phase.CreatedNames, identity.Username)
	}

	return phase
}

// inferSubscribers resolves a subscriber for every active identity without a
// contract, parsing the device comment and falling back to the username.
// With createMissing false it only matches existing subscribers by name.
func (s *Service) inferSubscribers(ctx context.Context, tenantID uuid.UUID, device *network.Device, createMissing bool) ([]resolvedIdentity, PhaseResult) {
	phase := PhaseResult{Phase: PhaseCustomerInference}
	var resolved []resolvedIdentity

	identities, err := s.identities.FindAllForDevice(ctx, tenantID, device.ID)
	if err != nil {
		phase.Errors = append(phase.Errors, fmt.Sprintf("failed to list local identities: %v", err))
		return nil, phase
	}

	for _, identity := range identities {
		if !identity.Active {
			continue
		}

		linked, err := s.contracts.ExistsForNetworkIdentity(ctx, tenantID, identity.ID)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", identity.Username, err))
			continue
		}
		if linked {
			phase.Skipped++
			continue
		}

		parsed := ParseComment(identity.Comment)
		name := parsed.Name
		if !parsed.HasName() {
			name = TitleCase(identity.Username)
			phase.Warnings = append(phase.Warnings,
				fmt.Sprintf("identity %q has no usable comment, using username as customer name", identity.Username))
		}

		existing, err := s.subscribers.FindByName(ctx, tenantID, name)
		if err == nil {
			resolved = append(resolved, resolvedIdentity{identityID: identity.ID, subscriberID: existing.ID})
			phase.Skipped++
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("subscriber lookup %q: %v", name, err))
			continue
		}

		if !createMissing {
			phase.Warnings = append(phase.Warnings,
				fmt.Sprintf("no subscriber named %q for identity %q", name, identity.Username))
			continue
		}

		subscriber, err := billing.NewSubscriber(tenantID, name)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("subscriber %q: %v", name, err))
			continue
		}
		if parsed.Street != "" || parsed.StreetNumber != "" {
			subscriber.SetAddress(parsed.Street, parsed.StreetNumber)
		}

		if err := s.subscribers.Save(ctx, subscriber); err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("subscriber %q: %v", name, err))
			continue
		}

		resolved = append(resolved, resolvedIdentity{identityID: identity.ID, subscriberID: subscriber.ID})
		phase.Created++
		phase.CreatedNames = append(phase.CreatedNames, subscriber.Name)
	}

	return resolved, phase
}

// synthesizeContracts creates a draft contract for every identity with a
// resolved subscriber and a plan reachable through its tier. Identities
// already linked to a contract are skipped silently.
func (s *Service) synthesizeContracts(ctx context.Context, tenantID uuid.UUID, device *network.Device, resolved []resolvedIdentity, req FullSyncRequest) PhaseResult {
	phase := PhaseResult{Phase: PhaseContractSynthesis}

	for _, pair := range resolved {
		linked, err := s.contracts.ExistsForNetworkIdentity(ctx, tenantID, pair.identityID)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("contract lookup for identity %s: %v", pair.identityID, err))
			continue
		}
		if linked {
			phase.Skipped++
			continue
		}

		// Re-fetch, earlier phases may have changed the row
		identity, err := s.identities.FindByID(ctx, pair.identityID)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %s: %v", pair.identityID, err))
			continue
		}

		tier, err := s.tiers.FindByName(ctx, tenantID, device.ID, identity.TierName)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: tier %q not mirrored: %v", identity.Username, identity.TierName, err))
			continue
		}

		plan, err := s.plans.FindByTierID(ctx, tenantID, tier.ID)
		if err != nil {
			phase.Warnings = append(phase.Warnings,
				fmt.Sprintf("identity %q: no plan mapped to tier %q, contract not created", identity.Username, tier.Name))
			phase.Failed++
			continue
		}

		contract, err := billing.NewServiceContract(tenantID, pair.subscriberID, plan.ID, req.DefaultBillingDay)
		if err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", identity.Username, err))
			continue
		}
		if err := contract.LinkNetworkIdentity(identity.ID); err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", identity.Username, err))
			continue
		}
		if req.AutoActivateContracts {
			if err := contract.Activate("reconciliation full sync"); err != nil {
				phase.Failed++
				phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", identity.Username, err))
				continue
			}
		}

		if err := s.contracts.Save(ctx, contract); err != nil {
			phase.Failed++
			phase.Errors = append(phase.Errors, fmt.Sprintf("identity %q: %v", identity.Username, err))
			continue
		}

		phase.Created++
		phase.CreatedNames = append(phase.CreatedNames, identity.Username)
	}

	return phase
}

// ListDeviceSessions exposes the device's live sessions for status queries
func (s *Service) ListDeviceSessions(ctx context.Context, deviceID uuid.UUID) ([]network.Session, error) {
	device, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.adapter.ListActiveSessions(ctx, device.Target())
}

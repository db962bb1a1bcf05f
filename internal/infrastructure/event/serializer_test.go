package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbill/backend/internal/domain/billing"
	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	identityID := uuid.New()
	original := &billing.ContractStatusChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(billing.EventTypeContractStatusChanged, billing.AggregateTypeServiceContract, uuid.New(), uuid.New()),
		ContractID:        uuid.New(),
		PreviousStatus:    billing.ContractStatusActive,
		NewStatus:         billing.ContractStatusSuspendedFinancial,
		NetworkIdentityID: &identityID,
		ServicePlanID:     uuid.New(),
		Reason:            "payment overdue",
	}

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	restored, err := serializer.Deserialize(billing.EventTypeContractStatusChanged, data)
	require.NoError(t, err)

	event, ok := restored.(*billing.ContractStatusChangedEvent)
	require.True(t, ok)

	assert.Equal(t, original.EventID(), event.EventID())
	assert.Equal(t, original.TenantID(), event.TenantID())
	assert.Equal(t, original.ContractID, event.ContractID)
	assert.Equal(t, original.PreviousStatus, event.PreviousStatus)
	assert.Equal(t, original.NewStatus, event.NewStatus)
	require.NotNil(t, event.NetworkIdentityID)
	assert.Equal(t, identityID, *event.NetworkIdentityID)
	assert.Equal(t, "payment overdue", event.Reason)
}

func TestEventSerializer_UnknownEventType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("NoSuchEvent", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_InvalidPayload(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	_, err := serializer.Deserialize(billing.EventTypeContractCreated, []byte(`not json`))
	assert.Error(t, err)
}

func TestRegisterAllEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	for _, eventType := range []string{
		billing.EventTypeContractCreated,
		billing.EventTypeContractStatusChanged,
		billing.EventTypeContractPlanChanged,
		billing.EventTypeSubscriberCreated,
		network.EventTypeIdentityCreated,
	} {
		assert.True(t, serializer.IsRegistered(eventType), eventType)
	}

	assert.False(t, serializer.IsRegistered("SomethingElse"))
}

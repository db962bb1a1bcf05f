package event

import (
	"github.com/netbill/backend/internal/domain/billing"
	"github.com/netbill/backend/internal/domain/network"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Billing domain events
	serializer.Register(billing.EventTypeContractCreated, &billing.ContractCreatedEvent{})
	serializer.Register(billing.EventTypeContractStatusChanged, &billing.ContractStatusChangedEvent{})
	serializer.Register(billing.EventTypeContractPlanChanged, &billing.ContractPlanChangedEvent{})
	serializer.Register(billing.EventTypeSubscriberCreated, &billing.SubscriberCreatedEvent{})

	// Network domain events
	serializer.Register(network.EventTypeIdentityCreated, &network.IdentityCreatedEvent{})
}

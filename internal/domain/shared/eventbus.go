package shared

import "context"

// EventHandler consumes domain events
type EventHandler interface {
	// Handle processes one domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler subscribes to.
	// An empty slice subscribes the handler to every event.
	EventTypes() []string
}

// EventBus routes domain events from publishers to subscribed handlers
type EventBus interface {
	// Publish delivers one or more domain events to subscribed handlers
	Publish(ctx context.Context, events ...DomainEvent) error
	// Subscribe registers a handler, optionally restricted to event types
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a handler from all subscriptions
	Unsubscribe(handler EventHandler)
	// Start begins background processing
	Start(ctx context.Context) error
	// Stop drains in-flight deliveries and shuts the bus down
	Stop(ctx context.Context) error
}

// OutboxEventSaver writes domain events to the outbox table inside the
// caller's transaction. Repositories use it so an aggregate change and its
// events commit or roll back together.
type OutboxEventSaver interface {
	// SaveEvents persists events within the given transaction.
	// txProvider is the repository's *gorm.DB transaction handle.
	SaveEvents(ctx context.Context, txProvider interface{}, events ...DomainEvent) error
}

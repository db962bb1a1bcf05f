package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/shared"
)

// SubscriberStatus represents the status of a subscriber
type SubscriberStatus string

const (
	SubscriberStatusActive   SubscriberStatus = "active"
	SubscriberStatusArchived SubscriberStatus = "archived"
)

// Subscriber represents a person or organization that holds service contracts.
// It is the aggregate root for subscriber-related operations.
type Subscriber struct {
	shared.TenantAggregateRoot
	Name         string
	Street       string
	StreetNumber string
	Phone        string
	Email        string
	Notes        string
	Status       SubscriberStatus
}

// NewSubscriber creates a new subscriber with required fields
func NewSubscriber(tenantID uuid.UUID, name string) (*Subscriber, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Subscriber name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Subscriber name cannot exceed 200 characters")
	}

	subscriber := &Subscriber{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Status:              SubscriberStatusActive,
	}

	subscriber.AddDomainEvent(NewSubscriberCreatedEvent(subscriber))

	return subscriber, nil
}

// SetAddress sets the subscriber's street address
func (s *Subscriber) SetAddress(street, streetNumber string) {
	s.Street = strings.TrimSpace(street)
	s.StreetNumber = strings.TrimSpace(streetNumber)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// SetContact sets the subscriber's contact information
func (s *Subscriber) SetContact(phone, email string) error {
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if email != "" && len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	s.Phone = phone
	s.Email = strings.ToLower(email)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Archive marks the subscriber as archived
func (s *Subscriber) Archive() error {
	if s.Status == SubscriberStatusArchived {
		return shared.ErrInvalidState
	}
	s.Status = SubscriberStatusArchived
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

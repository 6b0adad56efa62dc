// Package events defines the domain event sink and its implementations.
// Publishing is fire-and-forget from the caller's perspective: a failed
// publish is reported to the caller for logging but must never roll back
// the state transition that produced the event.
package events

import (
	"context"
	"time"
)

// Topics this service publishes to.
const (
	TopicAccountRegistered = "account-registered"
	TopicEmailVerified     = "email-verified"
	TopicPasswordChanged   = "password-changed"
)

// Sink publishes a domain event payload to a topic. The key is used for
// partitioning (always the account id here). Delivery guarantees are the
// implementation's responsibility.
type Sink interface {
	Publish(ctx context.Context, topic string, key string, payload any) error
	Close() error
}

// AccountRegisteredEvent is emitted after a successful registration.
// EventID is unique per emission so downstream consumers can deduplicate.
type AccountRegisteredEvent struct {
	EventID     string    `json:"eventId"`
	AccountID   string    `json:"accountId"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// EmailVerifiedEvent is emitted after a successful email confirmation.
type EmailVerifiedEvent struct {
	EventID   string    `json:"eventId"`
	AccountID string    `json:"accountId"`
	Timestamp time.Time `json:"timestamp"`
}

// PasswordChangedEvent is emitted after a successful password reset.
type PasswordChangedEvent struct {
	EventID   string    `json:"eventId"`
	AccountID string    `json:"accountId"`
	Timestamp time.Time `json:"timestamp"`
}

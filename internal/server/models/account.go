// Package models defines the persistent domain types of the authentication
// service.
package models

import "time"

// AccountStatus is the lifecycle state of an account. The only transition
// this service performs is PendingVerification -> Active (via email
// confirmation); Disabled is set administratively and makes the account
// non-authenticatable.
type AccountStatus string

const (
	StatusPendingVerification AccountStatus = "PENDING_EMAIL_VERIFICATION"
	StatusActive              AccountStatus = "ACTIVE"
	StatusDisabled            AccountStatus = "DISABLED"
)

// RoleUser is the default role assigned at registration.
const RoleUser = "USER"

// Account is a credential record. Email is unique (enforced by the store)
// and case-sensitive as stored.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Status       AccountStatus
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

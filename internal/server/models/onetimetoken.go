package models

import "time"

// TokenPurpose partitions one-time tokens. Purpose is a partition key, not a
// behavioral branch: consumption semantics are identical for every purpose.
type TokenPurpose string

const (
	PurposeEmailConfirmation TokenPurpose = "EMAIL_CONFIRMATION"
	PurposePasswordReset     TokenPurpose = "PASSWORD_RESET"
)

// OneTimeToken is an opaque, unguessable token consumable exactly once.
// ConsumedAt is set at most once, through a compare-and-swap in the store.
type OneTimeToken struct {
	ID         string
	Value      string
	AccountID  string
	Purpose    TokenPurpose
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Package onetimetokens declares the repository contract for single-use
// tokens (email confirmation, password reset).
package onetimetokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository persists one-time tokens. Token values are unique per purpose
// (store constraint) and consumption is an atomic compare-and-swap.
type Repository interface {
	// Create inserts a new token row. Returns common.ErrorConflict when a
	// token with the same value and purpose already exists.
	Create(ctx context.Context, token *models.OneTimeToken) error

	// FindByValue returns the token with the given value and purpose, or
	// common.ErrorNotFound.
	FindByValue(ctx context.Context, value string, purpose models.TokenPurpose) (*models.OneTimeToken, error)

	// MarkConsumed sets consumed_at to the given time only if it is still
	// unset. It reports whether this caller won the swap; false means a
	// concurrent consumer got there first.
	MarkConsumed(ctx context.Context, value string, purpose models.TokenPurpose, at time.Time) (bool, error)

	// Delete removes a token. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, value string, purpose models.TokenPurpose) error
}

// Package accounts declares the repository contract for credential records.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository persists accounts. Email uniqueness is a store-level
// constraint; Create returns a conflict error when it is violated.
type Repository interface {
	// Create inserts a new account and returns it with store-assigned
	// id/timestamps filled in. Returns common.ErrorConflict when the email
	// is already taken.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByEmail returns the account with the given email (exact match) or
	// common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByID returns the account with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// ExistsByEmail reports whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateStatus sets the account status. Returns common.ErrorNotFound if
	// no row matched.
	UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error

	// UpdatePasswordHash replaces the stored password digest. Returns
	// common.ErrorNotFound if no row matched.
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}

// Package accounts provides a PostgreSQL-backed repository for credential
// records.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account. The email uniqueness constraint lives in the
// database; a violation surfaces as common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO auth_accounts (email, password_hash, status, roles)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, string(account.Status), joinRoles(account.Roles)).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

// GetByEmail returns the account stored under email, or common.ErrorNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, status, roles, created_at, updated_at
		FROM auth_accounts
		WHERE email = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// GetByID returns the account with the given id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, status, roles, created_at, updated_at
		FROM auth_accounts
		WHERE id = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// ExistsByEmail reports whether an account with email exists.
func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM auth_accounts WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// UpdateStatus sets the account status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error {
	query := `
		UPDATE auth_accounts
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, string(status))
}

// UpdatePasswordHash replaces the stored password digest.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	query := `
		UPDATE auth_accounts
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var status, roles string
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash,
		&status, &roles, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	account.Status = models.AccountStatus(status)
	account.Roles = splitRoles(roles)
	return account, nil
}

// Roles are stored as a comma-separated list in a single column.

func joinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func splitRoles(roles string) []string {
	if roles == "" {
		return nil
	}
	return strings.Split(roles, ",")
}

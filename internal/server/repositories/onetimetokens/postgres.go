// Package onetimetokens provides a PostgreSQL-backed repository for
// single-use tokens.
package onetimetokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

// Create inserts a new token row. Value uniqueness per purpose is enforced
// by the database; a violation surfaces as common.ErrorConflict so the
// caller can regenerate and retry.
func (r *PostgresRepository) Create(ctx context.Context, token *models.OneTimeToken) error {
	query := `
		INSERT INTO one_time_tokens (token, account_id, purpose, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.Value, token.AccountID, string(token.Purpose), token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByValue returns the token row for the given value and purpose.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindByValue(ctx context.Context, value string, purpose models.TokenPurpose) (*models.OneTimeToken, error) {
	query := `
		SELECT id, token, account_id, purpose, created_at, expires_at, consumed_at
		FROM one_time_tokens
		WHERE token = $1 AND purpose = $2
	`
	token := &models.OneTimeToken{}
	var purposeCol string
	var consumedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, value, string(purpose)).
		Scan(&token.ID, &token.Value, &token.AccountID, &purposeCol,
			&token.CreatedAt, &token.ExpiresAt, &consumedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	token.Purpose = models.TokenPurpose(purposeCol)
	if consumedAt.Valid {
		token.ConsumedAt = &consumedAt.Time
	}
	return token, nil
}

// MarkConsumed performs the compare-and-swap on consumed_at: the update only
// matches while consumed_at is still NULL, so exactly one concurrent caller
// can succeed per token.
func (r *PostgresRepository) MarkConsumed(ctx context.Context, value string, purpose models.TokenPurpose, at time.Time) (bool, error) {
	query := `
		UPDATE one_time_tokens
		SET consumed_at = $3
		WHERE token = $1 AND purpose = $2 AND consumed_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, value, string(purpose), at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected == 1, nil
}

// Delete removes a token by value and purpose.
func (r *PostgresRepository) Delete(ctx context.Context, value string, purpose models.TokenPurpose) error {
	query := `
		DELETE FROM one_time_tokens
		WHERE token = $1 AND purpose = $2
	`
	if _, err := r.db.ExecContext(ctx, query, value, string(purpose)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

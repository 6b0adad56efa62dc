package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// maxIssueAttempts bounds regeneration on a token value collision. With
// 256-bit random values a single collision is already astronomically
// unlikely.
const maxIssueAttempts = 3

// tokenValueBytes is the entropy of a token value. 32 random bytes rendered
// as hex; far above the minimum an unguessable single-use token needs.
const tokenValueBytes = 32

// issueSavepoint guards the insert when issuing inside an enclosing
// transaction, so a unique-violation retry does not abort the whole tx.
const issueSavepoint = "one_time_token_issue"

// OneTimeTokenService issues and redeems opaque single-use tokens. Purpose
// (email confirmation, password reset) only partitions the token space;
// issue and consume behave identically for every purpose.
type OneTimeTokenService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

// NewOneTimeTokenService constructs an OneTimeTokenService using the shared
// connection pool and repository manager.
func NewOneTimeTokenService(db *sql.DB, m repomanager.RepositoryManager) *OneTimeTokenService {
	return &OneTimeTokenService{db: db, rm: m}
}

// Issue generates a cryptographically random token value (32 bytes, hex
// encoded), persists it with expiry now+ttl, and returns the value. The
// db handle may be the pool or an open transaction, so callers can bind the
// token's creation to a larger unit of work. A value collision in the store
// triggers regeneration; an existing token is never overwritten. In the
// transactional path each insert runs under a savepoint, because on
// PostgreSQL a unique violation otherwise aborts the enclosing transaction
// and the retry could never succeed.
func (s *OneTimeTokenService) Issue(ctx context.Context, db dbx.DBTX, accountID string, purpose models.TokenPurpose, ttl time.Duration) (string, error) {
	repo := s.rm.OneTimeTokens(db)
	_, inTx := db.(*sql.Tx)

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		value, err := common.MakeRandHexString(tokenValueBytes)
		if err != nil {
			return "", fmt.Errorf("error generating token value: %w", err)
		}
		token := &models.OneTimeToken{
			Value:     value,
			AccountID: accountID,
			Purpose:   purpose,
			ExpiresAt: time.Now().Add(ttl),
		}

		if inTx {
			if _, err := db.ExecContext(ctx, "SAVEPOINT "+issueSavepoint); err != nil {
				return "", fmt.Errorf("error creating savepoint: %w", err)
			}
		}

		err = repo.Create(ctx, token)
		if errors.Is(err, common.ErrorConflict) {
			if inTx {
				if _, err := db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+issueSavepoint); err != nil {
					return "", fmt.Errorf("error rolling back savepoint: %w", err)
				}
			}
			continue
		}
		if err != nil {
			return "", fmt.Errorf("error creating one-time token: %w", err)
		}
		if inTx {
			if _, err := db.ExecContext(ctx, "RELEASE SAVEPOINT "+issueSavepoint); err != nil {
				return "", fmt.Errorf("error releasing savepoint: %w", err)
			}
		}
		return token.Value, nil
	}

	return "", fmt.Errorf("no unique token value after %d attempts", maxIssueAttempts)
}

// Consume redeems a token exactly once and returns the subject account id.
// Failure kinds, in order of precedence:
//
//	common.ErrorNotFound      - no token with that value and purpose
//	common.ErrTokenAlreadyUsed - consumed_at already set (including losing
//	                             a concurrent race)
//	common.ErrTokenExpired     - past expiry; the row is deleted so the
//	                             value cannot be retried
//
// The consumption itself is a compare-and-swap in the store: out of N
// concurrent calls with the same value, exactly one succeeds.
func (s *OneTimeTokenService) Consume(ctx context.Context, value string, purpose models.TokenPurpose) (string, error) {
	repo := s.rm.OneTimeTokens(s.db)

	token, err := repo.FindByValue(ctx, value, purpose)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("error searching one-time token: %w", err)
	}

	if token.ConsumedAt != nil {
		return "", common.ErrTokenAlreadyUsed
	}

	now := time.Now()
	if token.ExpiresAt.Before(now) {
		// Best effort: correctness does not depend on the delete, since an
		// expired row can never pass this check again.
		_ = repo.Delete(ctx, value, purpose)
		return "", common.ErrTokenExpired
	}

	won, err := repo.MarkConsumed(ctx, value, purpose, now)
	if err != nil {
		return "", fmt.Errorf("error consuming one-time token: %w", err)
	}
	if !won {
		return "", common.ErrTokenAlreadyUsed
	}

	return token.AccountID, nil
}

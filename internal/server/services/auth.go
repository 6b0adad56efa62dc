// Package services contains server-side business logic. This file implements
// AuthService, which orchestrates the account lifecycle: registration, email
// confirmation, login, token refresh, password recovery, and token
// introspection.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/events"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a longer-lived refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserInfo is the identity extracted from a verified access token.
type UserInfo struct {
	AccountID string
	Email     string
	Roles     []string
}

// Profile carries optional registration fields that ride along on the
// account-registered event; this service does not store them.
type Profile struct {
	FirstName   string
	LastName    string
	PhoneNumber string
}

// AuthService orchestrates the authentication operations. It holds no
// mutable state of its own; all shared state lives in the repositories.
type AuthService struct {
	db              *sql.DB
	rm              repomanager.RepositoryManager
	tokens          *OneTimeTokenService
	issuer          *auth.TokenIssuer
	hasher          auth.PasswordHasher
	sink            events.Sink
	logger          logging.Logger
	confirmTokenTTL time.Duration
	resetTokenTTL   time.Duration
}

// NewAuthService constructs an AuthService from its collaborators and server
// config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *OneTimeTokenService,
	issuer *auth.TokenIssuer, hasher auth.PasswordHasher, sink events.Sink,
	logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:              db,
		rm:              m,
		tokens:          tokens,
		issuer:          issuer,
		hasher:          hasher,
		sink:            sink,
		logger:          logger.With("module", "auth_service"),
		confirmTokenTTL: cfg.EmailConfirmTokenValidityDuration,
		resetTokenTTL:   cfg.PasswordResetTokenValidityDuration,
	}
}

// Register creates an account in PendingVerification state with the default
// USER role and issues an email confirmation token. No bearer tokens are
// issued; the account cannot authenticate until confirmed. Returns
// common.ErrorConflict when the email is already taken.
func (s *AuthService) Register(ctx context.Context, email, password string, profile Profile) error {
	exists, err := s.rm.Accounts(s.db).ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "registration existence check failed", "error", err)
		return common.ErrorInternal
	}
	if exists {
		return common.ErrorConflict
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}

	var account *models.Account
	var confirmToken string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		account, txErr = s.rm.Accounts(tx).Create(ctx, &models.Account{
			Email:        email,
			PasswordHash: hash,
			Status:       models.StatusPendingVerification,
			Roles:        []string{models.RoleUser},
		})
		if txErr != nil {
			return txErr
		}
		confirmToken, txErr = s.tokens.Issue(ctx, tx, account.ID, models.PurposeEmailConfirmation, s.confirmTokenTTL)
		return txErr
	})
	if err != nil {
		// The pre-check above races with concurrent registrations; the
		// store's uniqueness constraint is authoritative.
		if errors.Is(err, common.ErrorConflict) {
			return common.ErrorConflict
		}
		s.logger.Error(ctx, "registration failed", "error", err)
		return common.ErrorInternal
	}

	// Mail delivery happens downstream; log the token the way the
	// notification flow will receive it.
	s.logger.Info(ctx, "confirmation token issued", "email", account.Email, "token", confirmToken)

	s.publish(ctx, events.TopicAccountRegistered, account.ID, events.AccountRegisteredEvent{
		EventID:     uuid.NewString(),
		AccountID:   account.ID,
		Email:       account.Email,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		PhoneNumber: profile.PhoneNumber,
		Timestamp:   time.Now(),
	})
	return nil
}

// ConfirmEmail consumes an email confirmation token and activates the
// account. Token failures (not found, already used, expired) propagate from
// Consume; common.ErrorBadRequest covers an account that was activated
// through another path while the token was still live.
func (s *AuthService) ConfirmEmail(ctx context.Context, tokenValue string) error {
	accountID, err := s.tokens.Consume(ctx, tokenValue, models.PurposeEmailConfirmation)
	if err != nil {
		return s.consumeError(ctx, err)
	}

	repo := s.rm.Accounts(s.db)
	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "account load failed", "error", err)
		return common.ErrorInternal
	}

	if account.Status == models.StatusActive {
		return common.ErrorBadRequest
	}

	if err := repo.UpdateStatus(ctx, account.ID, models.StatusActive); err != nil {
		s.logger.Error(ctx, "account activation failed", "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "email confirmed", "account_id", account.ID)

	s.publish(ctx, events.TopicEmailVerified, account.ID, events.EmailVerifiedEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		Timestamp: time.Now(),
	})
	return nil
}

// Login verifies credentials and returns a fresh token pair. Every failure
// (unknown email, wrong password, non-active account) is reported as
// common.ErrorUnauthorized so the response does not leak which accounts
// exist. No stored state is mutated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	account, err := s.rm.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	if account.Status != models.StatusActive {
		return nil, common.ErrorUnauthorized
	}

	s.logger.Info(ctx, "login succeeded", "account_id", account.ID)
	return s.issueTokenPair(ctx, account)
}

// RefreshToken verifies a refresh token and issues a new access/refresh
// pair (full rotation). Verification failures propagate unchanged so the
// caller can distinguish expiry from tampering; common.ErrorNotFound means
// the subject account no longer exists.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.rm.Accounts(s.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "account load failed", "error", err)
		return nil, common.ErrorInternal
	}

	return s.issueTokenPair(ctx, account)
}

// ForgotPassword issues a password reset token for the account registered
// under email. Unknown emails fail common.ErrorNotFound; this deliberately
// mirrors the upstream contract even though it reveals account existence
// (login does not).
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.rm.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return common.ErrorInternal
	}

	resetToken, err := s.tokens.Issue(ctx, s.db, account.ID, models.PurposePasswordReset, s.resetTokenTTL)
	if err != nil {
		s.logger.Error(ctx, "reset token issue failed", "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "password reset token issued", "email", account.Email, "token", resetToken)
	return nil
}

// ResetPassword consumes a password reset token and replaces the account's
// password digest. Token failures propagate from Consume; the digest is
// only touched after the token has been redeemed.
func (s *AuthService) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	accountID, err := s.tokens.Consume(ctx, tokenValue, models.PurposePasswordReset)
	if err != nil {
		return s.consumeError(ctx, err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}

	if err := s.rm.Accounts(s.db).UpdatePasswordHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "password update failed", "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "password reset", "account_id", accountID)

	s.publish(ctx, events.TopicPasswordChanged, accountID, events.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		AccountID: accountID,
		Timestamp: time.Now(),
	})
	return nil
}

// ValidateToken is pure introspection: it verifies an access token and
// returns the identity it encodes without touching the store. Other
// services rely on this to authorize requests.
func (s *AuthService) ValidateToken(ctx context.Context, accessToken string) (*UserInfo, error) {
	claims, err := s.issuer.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	return &UserInfo{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Roles:     claims.Roles,
	}, nil
}

// Logout is a no-op: tokens are stateless and there is no server-side
// session to invalidate. It never fails, with or without a token supplied.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		s.logger.Info(ctx, "logout request without refresh token")
		return nil
	}
	s.logger.Info(ctx, "logout requested; refresh token remains valid until expiry")
	return nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, account *models.Account) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(account)
	if err != nil {
		s.logger.Error(ctx, "access token issue failed", "error", err)
		return nil, common.ErrorInternal
	}
	refresh, err := s.issuer.IssueRefreshToken(account)
	if err != nil {
		s.logger.Error(ctx, "refresh token issue failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// consumeError passes known token failures through and hides everything
// else behind ErrorInternal.
func (s *AuthService) consumeError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrTokenAlreadyUsed),
		errors.Is(err, common.ErrTokenExpired):
		return err
	default:
		s.logger.Error(ctx, "one-time token consume failed", "error", err)
		return common.ErrorInternal
	}
}

// publish emits a domain event. Failures are logged and swallowed: event
// delivery must never roll back the state transition that produced it.
func (s *AuthService) publish(ctx context.Context, topic, key string, payload any) {
	if err := s.sink.Publish(ctx, topic, key, payload); err != nil {
		s.logger.Error(ctx, "event publish failed", "topic", topic, "error", err)
	}
}

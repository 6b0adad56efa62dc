// Package auth implements the credential primitives of the server: signed
// bearer tokens (access and refresh) and password hashing.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Claims is the claim set carried by issued tokens. Access tokens carry
// email and roles; refresh tokens carry only the subject to minimize replay
// value if leaked.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// TokenIssuer signs and verifies compact self-contained bearer tokens with
// HMAC-SHA-512. The secret is loaded once at construction and never mutated.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssueAccessToken returns a signed access token for the account.
func (i *TokenIssuer) IssueAccessToken(account *models.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		Email: account.Email,
		Roles: account.Roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.secret)
}

// IssueRefreshToken returns a signed refresh token carrying only the account
// id as subject.
func (i *TokenIssuer) IssueRefreshToken(account *models.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.secret)
}

// Verify parses and validates a token. Only HS512 is accepted; tokens signed
// with any other method fail as invalid. The three failure kinds are
// distinguishable: ErrTokenMalformed (unparseable), ErrTokenExpired
// (signature valid, exp in the past), ErrTokenInvalid (everything else,
// including a signature mismatch).
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, common.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		default:
			return nil, common.ErrTokenInvalid
		}
	}
	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}
	return claims, nil
}

// Package common defines shared constants and sentinel errors used across
// authkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")

	// Bearer token verification errors. The three kinds are deliberately
	// distinct: an expired token prompts a refresh, a malformed or invalid
	// one is rejected outright.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")

	// Single-use token lifecycle errors.
	ErrTokenAlreadyUsed = errors.New("token already used")
)

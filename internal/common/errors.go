// Package common defines shared constants and sentinel errors used across
// client and server layers of selfkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Handshake errors.
	ErrChallengeNotFound = errors.New("challenge not found or expired")
	ErrSignatureMismatch = errors.New("signature does not match account")
	ErrInvalidAccountID  = errors.New("invalid account id")
	ErrRateLimited       = errors.New("rate limited")

	// Record errors.
	ErrUnknownSchema = errors.New("unknown schema")
	ErrInvalidRecord = errors.New("record does not match schema")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

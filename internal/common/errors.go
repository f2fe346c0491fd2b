// Package common defines shared constants and sentinel errors used across
// the server, its stores and the transport adapters. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrMismatch       = errors.New("mismatch")
	ErrAlreadyRevoked = errors.New("already revoked")

	// Service-level errors.
	ErrInternal             = errors.New("internal error")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIncorrectCredentials = errors.New("incorrect credentials")

	// Validation errors. Value-type parse failures wrap ErrValidation.
	ErrValidation = errors.New("validation error")

	// Token errors.
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Package common defines shared constants and sentinel errors used across
// client and development server layers of bidmarket. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Client-side checks that never reach the network.
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("please login to continue")

	// Transport and server outcomes.
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("server unavailable")
	ErrParse        = errors.New("malformed data")

	// Lookup errors.
	ErrNotFound = errors.New("not found")

	// Development server outcomes.
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrInternal      = errors.New("internal error")
)

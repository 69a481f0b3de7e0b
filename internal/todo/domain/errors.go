package domain

import "errors"

// Sentinel errors for the failure kinds the core can produce. Services wrap
// these with context via fmt.Errorf("...: %w", ...) and the HTTP layer maps
// them to status codes with errors.Is. Anything not wrapping one of these is
// an unexpected collaborator failure and surfaces as a generic server error.
var (
	ErrNotFound          = errors.New("not found")
	ErrExpired           = errors.New("session expired")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("already exists")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrUnimplemented     = errors.New("not implemented")
)

package domain

import "errors"

// Error taxonomy for the identity service. Every operation fails with one of
// these so the HTTP layer can map each kind to a distinct status.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrEmailTaken   = errors.New("email already registered")
	ErrConflict     = errors.New("concurrent credential update")
)

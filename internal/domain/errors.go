package domain

import "errors"

// Error taxonomy shared across the core and its collaborators.
var (
	// ErrValidation marks malformed or out-of-range input, rejected before
	// any scoring runs.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a requested agency or case that does not exist.
	// Distinct from zero-valued but present data.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable marks a data collaborator that is not configured or
	// not reachable. Callers degrade to fallback data where they can.
	ErrUnavailable = errors.New("data source unavailable")
)

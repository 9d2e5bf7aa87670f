package registry

import "errors"

var (
	// ErrNotFound indicates no record matches the normalized identifier.
	ErrNotFound = errors.New("user not found")
	// ErrValidation indicates a payload is missing required fields or
	// carries values outside the allowed sets.
	ErrValidation = errors.New("invalid payload")
)

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness conflict at the store level.
	ErrDuplicate = errors.New("duplicate entry")
)

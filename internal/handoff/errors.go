package handoff

import (
	"errors"
	"fmt"
)

// Lifecycle errors returned by Service.
var (
	ErrStoreNotAllowed = errors.New("store is not allowed for handoff")
	ErrInvalidItems    = errors.New("no valid items provided")
	ErrInvalidCode     = errors.New("missing handoff code")
	ErrNotFound        = errors.New("handoff not found")
	ErrAlreadyClaimed  = errors.New("handoff is claimed")
	ErrExpired         = errors.New("handoff has expired")
	ErrCodeExhausted   = errors.New("unable to generate unique handoff code")
)

// Store contract errors.
var (
	// ErrDuplicateCode means the code is already taken; the caller may retry
	// with a fresh code.
	ErrDuplicateCode = errors.New("duplicate handoff code")
	// ErrNoMatch means a conditional update found the record in a different
	// status than expected.
	ErrNoMatch = errors.New("conditional update did not match")
)

// StateError reports a claim attempted on a record in a terminal status other
// than the idempotent-retry case.
type StateError struct {
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("handoff is %s", e.Status)
}

// Is lets a stored expired status match ErrExpired.
func (e *StateError) Is(target error) bool {
	return target == ErrExpired && e.Status == StatusExpired
}

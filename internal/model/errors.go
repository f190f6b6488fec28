package model

import (
	"errors"
	"fmt"
)

// Error taxonomy for the lifecycle core. All four kinds propagate to the
// caller; none are retried here.
var (
	// ErrNotFound marks operations referencing a project, milestone or
	// message that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks lifecycle operations that cannot apply,
	// e.g. signing off a project with no "Sign off" milestone attached, or
	// pairing a project with itself.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPermissionDenied marks edit-gated operations attempted by an
	// unauthorized actor.
	ErrPermissionDenied = errors.New("permission denied")
)

// ConsistencyError reports a broken invariant, e.g. a project linked to two
// families. It is always a programming or data error, never user-triggerable,
// and must be logged loudly before propagating.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency violation: %s", e.Detail)
}

func NewConsistencyError(format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Detail: fmt.Sprintf(format, args...)}
}

package fusion_errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
	ErrQueueFull          = errors.New("queue full")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAlreadyExists      = errors.New("already exists")

	// ErrConsequenceDepth is returned when a chain of system consequence
	// events exceeds the configured recursion cap.
	ErrConsequenceDepth = errors.New("consequence chain too deep")
)

// ErrProjectionFailed marks the fatal-after-durable-write case: the event is
// permanently in the store but folding it into current state failed. Callers
// must not treat this as "event never happened".
var ErrProjectionFailed = errors.New("projection failed after durable append")

// ProjectionFailure wraps a handler error with the orphaned event id so both
// the operator-facing log and the API error identify which event needs a
// projection replay.
func ProjectionFailure(eventID string, cause error) error {
	return fmt.Errorf("%w: event %s: %v", ErrProjectionFailed, eventID, cause)
}

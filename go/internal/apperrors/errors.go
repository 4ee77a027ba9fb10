package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure category. Typed errors below unwrap to one of these,
// so callers can branch with errors.Is and still get details with errors.As.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("slot conflict")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrInvalidState     = errors.New("invalid state")
	ErrSideEffectFailed = errors.New("side effect failed")
	ErrNotFound         = errors.New("not found")
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for a *ValidationError.
func Invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ConflictError reports that a requested slot collides with an existing booking.
type ConflictError struct {
	ExistingID string
	Existing   string // slot of the blocking booking, "HH:mm-HH:mm"
	Requested  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s overlaps booking %s (%s)", e.Requested, e.ExistingID, e.Existing)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// AuthorizationError reports an actor attempting an action reserved for someone else.
type AuthorizationError struct {
	Actor  string
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s may not %s", e.Actor, e.Action)
}

func (e *AuthorizationError) Unwrap() error { return ErrNotAuthorized }

// NotAuthorized is shorthand for an *AuthorizationError.
func NotAuthorized(actor fmt.Stringer, action string) error {
	return &AuthorizationError{Actor: actor.String(), Action: action}
}

// StateError reports an operation attempted from a state that does not allow it.
type StateError struct {
	Entity  string
	ID      string
	Current string
	Op      string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in state %s", e.Op, e.Entity, e.ID, e.Current)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// SideEffectError wraps the failure of an acceptance side effect. The accept was rolled back.
type SideEffectError struct {
	RequestID string
	Err       error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("accept of request %s rolled back: %v", e.RequestID, e.Err)
}

func (e *SideEffectError) Unwrap() []error { return []error{ErrSideEffectFailed, e.Err} }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound is shorthand for a *NotFoundError.
func NotFound(entity string, id fmt.Stringer) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

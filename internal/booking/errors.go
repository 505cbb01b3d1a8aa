package booking

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by lookups for an unknown provider or appointment.
// Store implementations translate their own no-rows sentinel into this.
var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed booking input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid booking request: " + e.Reason }

// PastTimeError reports a requested start that is not strictly in the future.
type PastTimeError struct {
	Requested time.Time
}

func (e *PastTimeError) Error() string {
	return fmt.Sprintf("appointment time %s is not in the future", e.Requested.Format(time.RFC3339))
}

// ConflictError reports a requested start too close to an existing booking.
type ConflictError struct {
	Provider  string
	Requested time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already has a booking too close to %s",
		e.Provider, e.Requested.Format(time.RFC3339))
}

// PersistenceError wraps a failure from the storage collaborator. The cause
// is logged server-side and never shown to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

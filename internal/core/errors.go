package core

import (
	"errors"
	"fmt"
)

// FetchError means the scope is not found or unreachable. It is
// terminal for the session: the client navigates away rather than
// retrying in place.
type FetchError struct {
	Scope Scope
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch availability for %s %q: %v", e.Scope.Kind, e.Scope.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConflictError means the slot was taken between fetch and submit.
// The server's rejection is authoritative even if the slot still looks
// available locally; the client must refetch and re-select.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "slot is no longer available"
}

// ValidationError is a rejected field (guest name/email). It is
// surfaced inline on the form; no network call reaches the server for
// client-side validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NetworkError is a transient transport failure. Reads are retried a
// bounded number of times; writes only on explicit user action.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a booking conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNetwork reports whether err is a transient transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsFetchFailure reports whether err is a terminal availability
// failure (scope not found / unreachable).
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDocument is returned when an operation references a
	// document id that was never persisted.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrConcurrencyConflict is returned when an optimistic-lock version
	// check fails. The caller must re-read and retry; the engine never
	// retries on its own.
	ErrConcurrencyConflict = errors.New("document version conflict")

	ErrReferenceNotFound = errors.New("reference document not found")
	ErrUploadFailed      = errors.New("source upload to storage failed")
)

// MalformedSourceError indicates a raw extractor value could not be coerced
// to its canonical field type. It is recoverable: the field is treated as
// absent and processing continues.
type MalformedSourceError struct {
	Field string
	Raw   any
	Err   error
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("malformed source value for %s (%v): %v", e.Field, e.Raw, e.Err)
}

func (e *MalformedSourceError) Unwrap() error {
	return e.Err
}

// InvalidTransitionError indicates the requested event is not legal from the
// document's current state. The call fails whole; nothing is applied.
type InvalidTransitionError struct {
	From  ProcessingState
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: event %q not allowed from state %q", e.Event, e.From)
}

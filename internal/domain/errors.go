package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound is returned when the source object does not exist
	ErrObjectNotFound = errors.New("source object not found")

	// ErrObjectTooLarge is returned when the source object exceeds the configured maximum size
	ErrObjectTooLarge = errors.New("source object exceeds maximum size")

	// ErrListExists is returned when a list for the job id has already been created
	ErrListExists = errors.New("list already exists for job")

	// ErrListNotFound is returned when a list cannot be found in the database
	ErrListNotFound = errors.New("list not found")

	// ErrStatusStore wraps failures talking to the status store
	ErrStatusStore = errors.New("status store error")

	// ErrInvalidJob is returned when a job message is malformed
	ErrInvalidJob = errors.New("invalid import job")
)

// DecodeError reports source content that cannot be turned into rows. It aborts the import.
type DecodeError struct {
	Line     int
	Column   string
	RawValue string
	Reason   string
}

func (e *DecodeError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("decode error on line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("decode error on line %d: column %q value %q: %s", e.Line, e.Column, e.RawValue, e.Reason)
}

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

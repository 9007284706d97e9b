package jobs

import (
	"errors"
	"fmt"
)

// Backend error kinds recorded in Failure records of query jobs.
const (
	KindBackendTimeout     = "BackendTimeout"
	KindBackendUnavailable = "BackendUnavailable"
	KindQueryError         = "QueryError"
)

// Common errors returned by the job handlers
var (
	// ErrInvalidPayload is returned when a job payload cannot be decoded
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrBackendNotConfigured is returned by query jobs when no query backend is wired
	ErrBackendNotConfigured = errors.New("query backend not configured")

	// ErrEmptyQueryResult is returned when a backend reports success without a result
	ErrEmptyQueryResult = errors.New("query backend returned no result")
)

// BackendError describes a failure reported by the query backend.
// Its Kind ends up as the error kind of the task's Failure record.
type BackendError struct {
	Kind    string
	Message string
	Err     error
}

// NewBackendError creates a BackendError of the given kind.
func NewBackendError(kind, message string, err error) *BackendError {
	return &BackendError{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying driver error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// ErrorKind reports the failure kind.
func (e *BackendError) ErrorKind() string {
	return e.Kind
}

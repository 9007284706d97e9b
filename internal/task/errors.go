package task

import (
	"errors"
	"fmt"
)

// Common errors returned by the task core
var (
	// ErrQueueUnavailable is returned by Submit when a job could not be handed
	// to the queue. No task id is issued in that case.
	ErrQueueUnavailable = errors.New("task queue unavailable")

	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")

	// ErrEmptyPayload is returned by Submit for blank payloads.
	ErrEmptyPayload = errors.New("payload must not be empty")

	// ErrUnknownJobType is returned for job types without a registered handler.
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrTaskNotFound is returned by stores when no record exists for an id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskTerminal is returned when a write targets a task that already
	// reached Success or Failure.
	ErrTaskTerminal = errors.New("task already in terminal state")

	// ErrInvalidRecord is returned by stores for records that break the
	// TaskRecord invariants.
	ErrInvalidRecord = errors.New("invalid task record")

	// ErrInvalidProgress is returned by ProgressSink.Report for out-of-range
	// or backwards progress.
	ErrInvalidProgress = errors.New("invalid progress report")
)

// Error kinds recorded in Failure records.
const (
	KindExecution      = "ExecutionError"
	KindUnknownJobType = "UnknownJobType"
	KindPanic          = "Panic"
	KindResultEncoding = "ResultEncoding"
)

// kindError attaches a failure kind to an error.
type kindError struct {
	kind string
	err  error
}

func (e *kindError) Error() string     { return e.err.Error() }
func (e *kindError) Unwrap() error     { return e.err }
func (e *kindError) ErrorKind() string { return e.kind }

// WithKind wraps err so that a Failure record built from it carries kind.
// The message is left untouched.
func WithKind(kind string, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// ErrorKind returns the failure kind carried anywhere in err's chain, or
// KindExecution when none is present.
func ErrorKind(err error) string {
	var kinded interface{ ErrorKind() string }
	if errors.As(err, &kinded) && kinded.ErrorKind() != "" {
		return kinded.ErrorKind()
	}
	return KindExecution
}

// TaskError is the structured failure description stored with a Failure record.
type TaskError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewTaskError captures err verbatim together with its kind.
func NewTaskError(err error) *TaskError {
	return &TaskError{
		Kind:    ErrorKind(err),
		Message: err.Error(),
	}
}

// String renders the failure for the status field of a status view.
func (e *TaskError) String() string {
	if e.Message == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

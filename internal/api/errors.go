package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/querytask/internal/api/shared"
	"github.com/phrazzld/querytask/internal/task"
)

// Request-level errors raised by the handlers themselves
var (
	// ErrInvalidRequest indicates a malformed or invalid request body
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidTaskID indicates a task id path parameter that is not a UUID
	ErrInvalidTaskID = errors.New("invalid task id")

	// ErrStoreUnavailable indicates the task store could not be read
	ErrStoreUnavailable = errors.New("task store unavailable")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, task.ErrQueueUnavailable),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, task.ErrEmptyPayload),
		errors.Is(err, task.ErrUnknownJobType),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidTaskID):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, task.ErrQueueUnavailable),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, task.ErrQueueFull):
		return "Task queue unavailable, try again later"

	case errors.Is(err, ErrStoreUnavailable):
		return "Task status unavailable, try again later"

	case errors.Is(err, task.ErrEmptyPayload):
		return "Task payload must not be empty"

	case errors.Is(err, task.ErrUnknownJobType):
		return "Unknown task type"

	case errors.Is(err, ErrInvalidTaskID):
		return "Invalid task ID"

	case errors.Is(err, ErrInvalidRequest):
		return "Invalid request format"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError responds with the status and safe message for err and logs
// the redacted details. A non-empty userMessage replaces the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'SubmitQueryRequest.Query' Error:Field validation for 'Query' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "gte", "min":
		return "too small"
	case "lte", "max":
		return "too large"
	default:
		return "validation failed"
	}
}

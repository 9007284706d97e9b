package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/querytask/internal/api/shared"
	"github.com/phrazzld/querytask/internal/jobs"
	"github.com/phrazzld/querytask/internal/platform/logger"
	"github.com/phrazzld/querytask/internal/task"
)

// Submitter accepts job payloads and returns their task ids
type Submitter interface {
	Submit(ctx context.Context, jobType, payload string) (uuid.UUID, error)
}

// StatusGetter reports the current status of a task
type StatusGetter interface {
	Status(ctx context.Context, id uuid.UUID) (task.StatusView, error)
}

// TaskHandler handles task submission and status HTTP requests
type TaskHandler struct {
	submitter Submitter
	status    StatusGetter
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(submitter Submitter, status StatusGetter, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		submitter: submitter,
		status:    status,
		validator: validator.New(),
		logger:    logger.With("component", "task_handler"),
	}
}

// SubmitQuery handles POST /api/query requests
func (h *TaskHandler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req SubmitQueryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err), SanitizeValidationError(err))
		return
	}
	if isBlank(req.Query) {
		HandleAPIError(w, r, task.ErrEmptyPayload, "")
		return
	}

	h.submit(w, r, task.JobTypeQuery, req.Query)
}

// SubmitLongTask handles POST /api/longtask requests. The body is optional.
func (h *TaskHandler) SubmitLongTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitLongTaskRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err), SanitizeValidationError(err))
		return
	}

	payload, err := json.Marshal(jobs.LongTaskPayload{Steps: req.Steps})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.submit(w, r, task.JobTypeLong, string(payload))
}

func (h *TaskHandler) submit(w http.ResponseWriter, r *http.Request, jobType, payload string) {
	id, err := h.submitter.Submit(r.Context(), jobType, payload)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task accepted",
		"task_id", id,
		"task_type", jobType)

	location := statusLocation(id)
	w.Header().Set("Location", location)
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		TaskID:   id,
		Location: location,
	})
}

// GetStatus handles GET /api/status/{id} requests
func (h *TaskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	view, err := h.status.Status(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", ErrStoreUnavailable, err), "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

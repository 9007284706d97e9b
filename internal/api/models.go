package api

import (
	"github.com/google/uuid"
)

// SubmitQueryRequest is the body of POST /api/query
type SubmitQueryRequest struct {
	Query string `json:"query" validate:"required"`
}

// SubmitLongTaskRequest is the optional body of POST /api/longtask.
// Zero or absent Steps lets the job pick its own length.
type SubmitLongTaskRequest struct {
	Steps int `json:"steps" validate:"gte=0,lte=1000"`
}

// SubmitResponse is returned with 202 Accepted for every submission
type SubmitResponse struct {
	TaskID   uuid.UUID `json:"task_id"`
	Location string    `json:"location"`
}

// statusLocation is the polling URL for a task
func statusLocation(id uuid.UUID) string {
	return "/api/status/" + id.String()
}


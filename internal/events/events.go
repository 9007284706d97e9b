package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a lifecycle transition.
type EventType string

// Lifecycle event types.
const (
	// TaskSubmitted is emitted after a job has been accepted by the queue.
	TaskSubmitted EventType = "task.submitted"

	// SubmissionRejected is emitted when the queue refused a job.
	SubmissionRejected EventType = "task.rejected"

	// TaskStarted is emitted when a worker begins executing a job.
	TaskStarted EventType = "task.started"

	// TaskSucceeded is emitted after a Success record has been written.
	TaskSucceeded EventType = "task.succeeded"

	// TaskFailed is emitted after a Failure record has been written.
	TaskFailed EventType = "task.failed"
)

// TaskEvent describes a single lifecycle transition of a task.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is the lifecycle transition
	Type EventType `json:"type"`

	// TaskID is the task the event refers to; uuid.Nil for rejected submissions
	TaskID uuid.UUID `json:"task_id"`

	// TaskType is the job type, e.g. "query" or "long"
	TaskType string `json:"task_type"`

	// ErrorKind is set for TaskFailed events
	ErrorKind string `json:"error_kind,omitempty"`

	// Duration is the execution time for terminal events
	Duration time.Duration `json:"duration,omitempty"`

	// OccurredAt is the timestamp when the event was created
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskEvent creates a TaskEvent stamped with a fresh id and the current time.
func NewTaskEvent(eventType EventType, taskID uuid.UUID, taskType string) *TaskEvent {
	return &TaskEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TaskID:     taskID,
		TaskType:   taskType,
		OccurredAt: time.Now().UTC(),
	}
}

// IsTerminal reports whether the event marks the end of a task.
func (e *TaskEvent) IsTerminal() bool {
	return e.Type == TaskSucceeded || e.Type == TaskFailed
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the task core to publish transitions without knowing who listens.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

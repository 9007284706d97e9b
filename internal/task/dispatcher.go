package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/querytask/internal/events"
)

// Dispatcher accepts job payloads on the request path, issues task ids and
// hands the jobs to a queue. It never waits for execution.
type Dispatcher struct {
	queue   TaskQueueWriter
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher writing to queue. emitter may be nil.
func NewDispatcher(queue TaskQueueWriter, emitter events.EventEmitter, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		emitter: emitter,
		logger:  logger.With("component", "task_dispatcher"),
	}
}

// Submit enqueues a job and returns its task id. If the queue refuses the
// job the error wraps ErrQueueUnavailable and no id is returned.
func (d *Dispatcher) Submit(ctx context.Context, jobType, payload string) (uuid.UUID, error) {
	if jobType == "" {
		return uuid.Nil, fmt.Errorf("%w: empty job type", ErrUnknownJobType)
	}
	if strings.TrimSpace(payload) == "" {
		return uuid.Nil, ErrEmptyPayload
	}

	job := Job{
		ID:          uuid.New(),
		Type:        jobType,
		Payload:     payload,
		SubmittedAt: time.Now().UTC(),
	}

	if err := d.queue.Enqueue(ctx, job); err != nil {
		d.logger.Error("failed to enqueue job",
			"task_id", job.ID,
			"task_type", jobType,
			"error", err)
		d.emit(ctx, events.NewTaskEvent(events.SubmissionRejected, uuid.Nil, jobType))
		return uuid.Nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	d.logger.Info("task submitted", "task_id", job.ID, "task_type", jobType)
	d.emit(ctx, events.NewTaskEvent(events.TaskSubmitted, job.ID, jobType))
	return job.ID, nil
}

func (d *Dispatcher) emit(ctx context.Context, event *events.TaskEvent) {
	if d.emitter == nil {
		return
	}
	_ = d.emitter.EmitEvent(ctx, event)
}

package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job type constants
const (
	// JobTypeQuery executes a SQL query against the configured backend
	JobTypeQuery = "query"

	// JobTypeLong runs the simulated multi-step job with progress reports
	JobTypeLong = "long"
)

// Job is a unit of submitted work travelling from the Dispatcher to a worker.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Payload     string    `json:"payload"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ProgressSink receives progress snapshots from a running job.
type ProgressSink interface {
	// Report publishes a Progress snapshot. current must not decrease
	// between calls and must stay within [0, total].
	Report(ctx context.Context, current, total int, message string) error
}

// Handler executes the job logic for one job type. The returned value is
// JSON-encoded into the Success record; a returned error becomes the
// Failure record.
type Handler func(ctx context.Context, payload string, progress ProgressSink) (any, error)

// JobRunner executes a job and leaves a terminal record behind.
type JobRunner interface {
	Run(ctx context.Context, job Job) TaskRecord
}

// TaskQueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming jobs
	GetChannel() <-chan Job
}

// TaskQueueWriter provides write access to the job queue
// allowing the Dispatcher to enqueue jobs for processing
type TaskQueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is full, closed or unreachable
	Enqueue(ctx context.Context, job Job) error

	// Close closes the queue, preventing further submission
	Close()
}

// TaskStore is the registry of task records keyed by task id.
// Implementations must be safe for concurrent use and must replace
// records atomically so readers never observe a partial write.
type TaskStore interface {
	// PutRecord stores rec as the latest snapshot for rec.ID.
	// Returns ErrTaskTerminal if the stored record is already terminal
	// and ErrInvalidRecord if rec breaks the record invariants.
	PutRecord(ctx context.Context, rec TaskRecord) error

	// GetRecord returns the latest snapshot, or ErrTaskNotFound.
	GetRecord(ctx context.Context, id uuid.UUID) (TaskRecord, error)

	// DeleteExpired evicts terminal records last updated before the cutoff
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

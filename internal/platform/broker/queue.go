package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/phrazzld/querytask/internal/task"
)

// DefaultQueueName is the asynq queue jobs are enqueued on
const DefaultQueueName = "querytask"

// unboundedJobHorizon is how far out the broker deadline of a job without a
// timeout is placed. asynq falls back to a 30 minute timeout otherwise.
const unboundedJobHorizon = 100 * 365 * 24 * time.Hour

// QueueConfig holds the producer-side broker settings
type QueueConfig struct {
	// Name is the asynq queue, DefaultQueueName when empty
	Name string

	// JobTimeout bounds each job's execution, zero meaning none
	JobTimeout time.Duration
}

// Queue is a task.TaskQueueWriter that enqueues jobs on an asynq broker.
type Queue struct {
	client     *asynq.Client
	name       string
	jobTimeout time.Duration
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a Queue writing to the configured asynq queue.
func NewQueue(redisOpt asynq.RedisConnOpt, cfg QueueConfig, logger *slog.Logger) *Queue {
	name := cfg.Name
	if name == "" {
		name = DefaultQueueName
	}
	return &Queue{
		client:     asynq.NewClient(redisOpt),
		name:       name,
		jobTimeout: cfg.JobTimeout,
		logger:     logger.With("component", "broker_queue", "queue", name),
	}
}

// Enqueue publishes job to the broker. The task id doubles as the asynq
// task id and jobs are never retried by the broker.
func (q *Queue) Enqueue(ctx context.Context, job task.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return task.ErrQueueClosed
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	info, err := q.client.EnqueueContext(ctx,
		asynq.NewTask(job.Type, payload),
		asynq.TaskID(job.ID.String()),
		asynq.MaxRetry(0),
		asynq.Queue(q.name),
		q.limit(),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job on broker: %w", err)
	}

	q.logger.Debug("job enqueued on broker",
		"task_id", job.ID,
		"task_type", job.Type,
		"broker_queue", info.Queue)
	return nil
}

// limit is the asynq option carrying the job's execution bound.
func (q *Queue) limit() asynq.Option {
	if q.jobTimeout > 0 {
		return asynq.Timeout(q.jobTimeout)
	}
	return asynq.Deadline(time.Now().Add(unboundedJobHorizon))
}

// Close refuses further jobs and releases the broker connection.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	if err := q.client.Close(); err != nil {
		q.logger.Warn("failed to close broker client", "error", err)
	}
}

// Ensure Queue implements task.TaskQueueWriter
var _ task.TaskQueueWriter = (*Queue)(nil)

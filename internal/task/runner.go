package task

import (
	"log/slog"
)

// TaskRunnerConfig holds configuration for the in-process task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// TaskRunner bundles the in-process queue with the worker pool draining it.
type TaskRunner struct {
	queue  *TaskQueue
	pool   *WorkerPool
	logger *slog.Logger
}

// NewTaskRunner creates a TaskRunner whose workers execute jobs through runner
func NewTaskRunner(runner JobRunner, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, runner, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)
	return &TaskRunner{
		queue:  queue,
		pool:   pool,
		logger: logger,
	}
}

// Queue returns the writer side of the runner's queue for a Dispatcher
func (r *TaskRunner) Queue() TaskQueueWriter {
	return r.queue
}

// Start begins processing jobs
func (r *TaskRunner) Start() {
	r.pool.Start()
}

// Stop refuses new jobs, then shuts the workers down. Buffered jobs are
// still given a terminal record.
func (r *TaskRunner) Stop() {
	r.queue.Close()
	r.pool.Stop()
}

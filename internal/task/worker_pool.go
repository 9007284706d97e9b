package task

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that pull jobs from a
// queue and hand them to a JobRunner. It handles graceful shutdown and
// worker lifecycle.
type WorkerPool struct {
	// taskQueue provides read access to the jobs to be processed
	taskQueue TaskQueueReader

	// runner executes each job and records its outcome
	runner JobRunner

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is handed to every job; cancelling it signals shutdown
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(taskQueue TaskQueueReader, runner JobRunner, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		runner:      runner,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels in-flight jobs and waits for every worker to exit.
// Jobs still buffered in the queue are run with the cancelled context so
// each of them still ends with a terminal record.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)
	jobs := p.taskQueue.GetChannel()

	for {
		select {
		case <-p.ctx.Done():
			p.drain(id, jobs)
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-jobs:
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			p.run(id, job)
		}
	}
}

// run hands one job to the runner. A panic escaping the runner is logged
// and the worker moves on to the next job.
func (p *WorkerPool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job runner panicked",
				"worker_id", id,
				"task_id", job.ID,
				"task_type", job.Type,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	p.runner.Run(p.ctx, job)
}

func (p *WorkerPool) drain(id int, jobs <-chan Job) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			p.logger.Debug("draining job after shutdown", "worker_id", id, "task_id", job.ID)
			p.run(id, job)
		default:
			return
		}
	}
}

package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/phrazzld/querytask/internal/task"
)

// ServerConfig holds the worker-side broker settings
type ServerConfig struct {
	// Concurrency is the number of jobs processed at once
	Concurrency int

	// QueueName must match the name the Queue enqueues on
	QueueName string

	// ShutdownTimeout bounds how long in-flight jobs get after Shutdown
	ShutdownTimeout time.Duration

	// JobTimeout must match the Queue's. When zero, jobs run without a
	// deadline and are only cancelled by Shutdown.
	JobTimeout time.Duration
}

// Server consumes jobs from the broker and hands them to a task.JobRunner.
type Server struct {
	server     *asynq.Server
	runner     task.JobRunner
	jobTimeout time.Duration
	logger     *slog.Logger
}

// NewServer creates a Server. It does not start consuming until Start.
func NewServer(redisOpt asynq.RedisConnOpt, runner task.JobRunner, cfg ServerConfig, logger *slog.Logger) *Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	name := cfg.QueueName
	if name == "" {
		name = DefaultQueueName
	}
	logger = logger.With("component", "broker_server", "queue", name)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{name: 1},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          &asynqLogger{logger: logger},
		LogLevel:        asynq.WarnLevel,
	})

	return &Server{server: server, runner: runner, jobTimeout: cfg.JobTimeout, logger: logger}
}

// ProcessTask implements asynq.Handler. The runner always leaves a terminal
// record, so the outcome is never reported back to the broker as an error
// and asynq never retries a job.
func (s *Server) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var job task.Job
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		s.logger.Error("dropping undecodable job", "asynq_type", t.Type(), "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	runCtx, cancel := s.jobContext(ctx)
	defer cancel()

	rec := s.runner.Run(runCtx, job)
	s.logger.Debug("broker job finished", "task_id", job.ID, "state", rec.State)
	return nil
}

// jobContext strips the placeholder deadline asynq puts on every job when
// no job timeout is configured, keeping cancellation from Shutdown.
func (s *Server) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.jobTimeout > 0 {
		return context.WithCancel(ctx)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Start begins consuming jobs in the background.
func (s *Server) Start() error {
	if err := s.server.Start(s); err != nil {
		return fmt.Errorf("failed to start broker server: %w", err)
	}
	s.logger.Info("broker server started")
	return nil
}

// Shutdown stops fetching new jobs and waits for in-flight ones.
func (s *Server) Shutdown() {
	s.server.Shutdown()
	s.logger.Info("broker server stopped")
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct {
	logger *slog.Logger
}

func (l *asynqLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }

func (l *asynqLogger) Fatal(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}

// Ensure Server implements asynq.Handler
var _ asynq.Handler = (*Server)(nil)

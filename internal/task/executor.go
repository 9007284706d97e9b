package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/phrazzld/querytask/internal/events"
)

// terminalWriteTimeout bounds the final store write, which runs detached
// from the worker context so shutdown does not lose terminal records.
const terminalWriteTimeout = 10 * time.Second

// Executor runs jobs through their registered handlers and records every
// state transition in the TaskStore. Run always leaves exactly one terminal
// record behind, whatever the handler does.
type Executor struct {
	store    TaskStore
	emitter  events.EventEmitter
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewExecutor creates an Executor writing to store. emitter may be nil.
func NewExecutor(store TaskStore, emitter events.EventEmitter, logger *slog.Logger) *Executor {
	return &Executor{
		store:    store,
		emitter:  emitter,
		logger:   logger.With("component", "task_executor"),
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type, replacing any previous binding.
func (e *Executor) Register(jobType string, handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[jobType] = handler
}

// HasHandler reports whether jobType has a registered handler.
func (e *Executor) HasHandler(jobType string) bool {
	_, ok := e.handler(jobType)
	return ok
}

func (e *Executor) handler(jobType string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[jobType]
	return h, ok
}

// Run executes job and returns the terminal record it wrote.
func (e *Executor) Run(ctx context.Context, job Job) TaskRecord {
	start := time.Now()
	log := e.logger.With("task_id", job.ID, "task_type", job.Type)

	log.Info("processing task")
	e.emit(ctx, events.NewTaskEvent(events.TaskStarted, job.ID, job.Type))

	sink := &progressSink{store: e.store, job: job, logger: log, total: 1}

	var result any
	var err error
	if h, ok := e.handler(job.Type); ok {
		result, err = e.invoke(ctx, h, job.Payload, sink, log)
	} else {
		err = WithKind(KindUnknownJobType, fmt.Errorf("%w: %q", ErrUnknownJobType, job.Type))
	}
	sink.close()

	record := e.terminalRecord(job, sink, result, err)
	e.writeTerminal(ctx, record, log)

	event := events.NewTaskEvent(events.TaskSucceeded, job.ID, job.Type)
	event.Duration = time.Since(start)
	if record.State == StateFailure {
		event.Type = events.TaskFailed
		event.ErrorKind = record.Error.Kind
		log.Warn("task execution failed",
			"error_kind", record.Error.Kind,
			"error", record.Error.Message,
			"duration_ms", event.Duration.Milliseconds())
	} else {
		log.Info("task completed successfully",
			"total", record.Total,
			"duration_ms", event.Duration.Milliseconds())
	}
	e.emit(ctx, event)

	return record
}

// invoke calls the handler, converting a panic into a Panic failure.
func (e *Executor) invoke(
	ctx context.Context,
	h Handler,
	payload string,
	sink ProgressSink,
	log *slog.Logger,
) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task handler panicked", "panic", r, "stack", string(debug.Stack()))
			result = nil
			err = WithKind(KindPanic, fmt.Errorf("handler panic: %v", r))
		}
	}()
	return h(ctx, payload, sink)
}

func (e *Executor) terminalRecord(job Job, sink *progressSink, result any, err error) TaskRecord {
	current, total := sink.snapshot()
	rec := TaskRecord{
		ID:      job.ID,
		Type:    job.Type,
		Current: current,
		Total:   total,
	}

	if err == nil {
		raw, encErr := json.Marshal(result)
		if encErr == nil {
			rec.State = StateSuccess
			rec.Current = total
			rec.Message = CompletedMessage
			rec.Result = raw
			return rec
		}
		err = WithKind(KindResultEncoding, fmt.Errorf("failed to encode result: %w", encErr))
	}

	rec.State = StateFailure
	rec.Error = NewTaskError(err)
	rec.Message = rec.Error.String()
	return rec
}

func (e *Executor) writeTerminal(ctx context.Context, rec TaskRecord, log *slog.Logger) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()

	err := e.store.PutRecord(writeCtx, rec)
	switch {
	case err == nil:
	case errors.Is(err, ErrTaskTerminal):
		log.Error("dropping write to terminal task", "state", rec.State, "error", err)
	default:
		log.Error("failed to record terminal state", "state", rec.State, "error", err)
	}
}

func (e *Executor) emit(ctx context.Context, event *events.TaskEvent) {
	if e.emitter == nil {
		return
	}
	// Observer failures never affect the task.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task event emitter panicked",
				"task_id", event.TaskID,
				"event_type", event.Type,
				"panic", r)
		}
	}()
	_ = e.emitter.EmitEvent(context.WithoutCancel(ctx), event)
}

// progressSink writes Progress snapshots for one job. Writes are serialized
// so a job's snapshots reach the store in order.
type progressSink struct {
	mu       sync.Mutex
	store    TaskStore
	job      Job
	logger   *slog.Logger
	current  int
	total    int
	reported bool
	closed   bool
}

// Report implements ProgressSink.
func (s *progressSink) Report(ctx context.Context, current, total int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Error("progress reported after task finished",
			"current", current,
			"total", total)
		return fmt.Errorf("%w: task %s", ErrTaskTerminal, s.job.ID)
	}
	if total < 1 || current < 0 || current > total {
		return fmt.Errorf("%w: current=%d total=%d", ErrInvalidProgress, current, total)
	}
	if s.reported && current < s.current {
		return fmt.Errorf("%w: current moved backwards from %d to %d", ErrInvalidProgress, s.current, current)
	}

	rec := TaskRecord{
		ID:      s.job.ID,
		Type:    s.job.Type,
		State:   StateProgress,
		Current: current,
		Total:   total,
		Message: message,
	}
	if err := s.store.PutRecord(ctx, rec); err != nil {
		if errors.Is(err, ErrTaskTerminal) {
			s.logger.Error("dropping progress write to terminal task", "error", err)
		}
		return err
	}

	s.current, s.total, s.reported = current, total, true
	return nil
}

func (s *progressSink) snapshot() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.total
}

func (s *progressSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Ensure Executor implements JobRunner
var _ JobRunner = (*Executor)(nil)

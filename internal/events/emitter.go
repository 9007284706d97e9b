package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrHandlerPanic wraps a panic recovered from an EventHandler.
var ErrHandlerPanic = errors.New("event handler panicked")

// InMemoryEventEmitter fans task events out to observers registered in
// process. Observers run synchronously on the emitting goroutine, one after
// another, and a failing or panicking observer never stops the others.
type InMemoryEventEmitter struct {
	mu        sync.RWMutex
	observers []EventHandler
	logger    *slog.Logger
}

// NewInMemoryEventEmitter creates an emitter with no observers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		logger: logger.With("component", "task_event_emitter"),
	}
}

// RegisterHandler subscribes handler to every subsequent event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.observers = append(e.observers, handler)
	count := len(e.observers)
	e.mu.Unlock()

	e.logger.Debug("registered task event observer", "observer_count", count)
}

func (e *InMemoryEventEmitter) snapshot() []EventHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]EventHandler(nil), e.observers...)
}

// EmitEvent delivers event to every observer. Observer errors and panics
// are logged and joined into the returned error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *TaskEvent) error {
	var errs []error
	for i, observer := range e.snapshot() {
		if err := e.deliver(ctx, observer, event); err != nil {
			e.logger.Error("task event observer failed",
				"observer_index", i,
				"event_type", event.Type,
				"task_id", event.TaskID,
				"task_type", event.TaskType,
				"error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *InMemoryEventEmitter) deliver(ctx context.Context, observer EventHandler, event *TaskEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return observer.HandleEvent(ctx, event)
}

// Ensure InMemoryEventEmitter implements EventEmitter
var _ EventEmitter = (*InMemoryEventEmitter)(nil)

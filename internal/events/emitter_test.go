package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryEventEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event := NewTaskEvent(TaskSubmitted, uuid.New(), "query")

		err := emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := NewTaskEvent(TaskStarted, uuid.New(), "long")
		err := emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)

		assert.Equal(t, 1, handler1.Count())
		assert.Equal(t, 1, handler2.Count())
		assert.Equal(t, event, handler1.Last())
		assert.Equal(t, event, handler2.Last())
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event := NewTaskEvent(TaskFailed, uuid.New(), "query")
		err := emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")

		// Later handlers still receive the event
		assert.Equal(t, 1, successHandler.Count())
		assert.Equal(t, 1, failingHandler.Count())
	})

	t.Run("handler func adapter", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		var got EventType
		emitter.RegisterHandler(HandlerFunc(func(ctx context.Context, e *TaskEvent) error {
			got = e.Type
			return nil
		}))

		err := emitter.EmitEvent(context.Background(), NewTaskEvent(TaskSucceeded, uuid.New(), "long"))
		assert.NoError(t, err)
		assert.Equal(t, TaskSucceeded, got)
	})
}

func TestInMemoryEventEmitter_PanickingObserver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emitter := NewInMemoryEventEmitter(logger)

	emitter.RegisterHandler(HandlerFunc(func(ctx context.Context, e *TaskEvent) error {
		panic("observer bug")
	}))
	failing := &MockEventHandler{HandlerError: errors.New("handler error")}
	after := &MockEventHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(after)

	var err error
	assert.NotPanics(t, func() {
		err = emitter.EmitEvent(context.Background(), NewTaskEvent(TaskStarted, uuid.New(), "long"))
	})

	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.ErrorContains(t, err, "observer bug")
	assert.ErrorContains(t, err, "handler error")
	assert.Equal(t, 1, failing.Count())
	assert.Equal(t, 1, after.Count())
}

func TestInMemoryEventEmitter_ConcurrentEmit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emitter := NewInMemoryEventEmitter(logger)
	handler := &MockEventHandler{}
	emitter.RegisterHandler(handler)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = emitter.EmitEvent(context.Background(), NewTaskEvent(TaskSubmitted, uuid.New(), "query"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, handler.Count())
}

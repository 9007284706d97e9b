package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/querytask/internal/events"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// waitForTerminal polls the reader until id reaches a terminal state
func waitForTerminal(t *testing.T, reader *StatusReader, id uuid.UUID, timeout time.Duration) StatusView {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		view, err := reader.Status(context.Background(), id)
		require.NoError(t, err)
		if view.State.IsTerminal() {
			return view
		}
		if time.Now().After(deadline) {
			t.Fatalf("task %s did not reach a terminal state within %s (last state %s)", id, timeout, view.State)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// timeoutError mimics a backend error carrying its own kind
type timeoutError struct{}

func (timeoutError) Error() string     { return "query exceeded the backend deadline" }
func (timeoutError) ErrorKind() string { return "BackendTimeout" }

// recordingEmitter captures emitted events for assertions
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskEvent
}

func (r *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingEmitter) Last() *events.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewMockJob creates a Job with a fresh id for testing
func NewMockJob(jobType, payload string) Job {
	return Job{
		ID:          uuid.New(),
		Type:        jobType,
		Payload:     payload,
		SubmittedAt: time.Now().UTC(),
	}
}

// MockHandler is a configurable Handler for testing. It reports Steps
// progress snapshots, then returns Result or Err.
type MockHandler struct {
	Steps  int
	Result any
	Err    error
	// ExecuteFn, when set, replaces the default behavior
	ExecuteFn func(ctx context.Context, payload string, progress ProgressSink) (any, error)
}

// Handle implements Handler
func (m *MockHandler) Handle(ctx context.Context, payload string, progress ProgressSink) (any, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, payload, progress)
	}
	for i := 1; i <= m.Steps; i++ {
		if err := progress.Report(ctx, i, m.Steps, "step"); err != nil {
			return nil, err
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

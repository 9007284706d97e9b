package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// StatusReader answers polling requests from the TaskStore.
type StatusReader struct {
	store TaskStore
}

// NewStatusReader creates a StatusReader over store.
func NewStatusReader(store TaskStore) *StatusReader {
	return &StatusReader{store: store}
}

// Status returns the latest view of task id. An id with no record yet is
// reported as Pending rather than as an error; only store failures error.
func (r *StatusReader) Status(ctx context.Context, id uuid.UUID) (StatusView, error) {
	rec, err := r.store.GetRecord(ctx, id)
	if errors.Is(err, ErrTaskNotFound) {
		return PendingView(id), nil
	}
	if err != nil {
		return StatusView{}, fmt.Errorf("failed to read task %s: %w", id, err)
	}
	return rec.View(), nil
}

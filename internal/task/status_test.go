package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusReader_UnknownIDIsPending(t *testing.T) {
	t.Parallel()
	reader := NewStatusReader(NewMemoryTaskStore())
	id := uuid.New()

	view, err := reader.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, view.TaskID)
	assert.Equal(t, StatePending, view.State)
	assert.Equal(t, 0, view.Current)
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, PendingMessage, view.Status)
	assert.Nil(t, view.Result)
	assert.Nil(t, view.Error)
}

func TestStatusReader_StoredRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryTaskStore()
	reader := NewStatusReader(store)

	progress := progressRecord(uuid.New(), 3, 20)
	require.NoError(t, store.PutRecord(ctx, progress))
	view, err := reader.Status(ctx, progress.ID)
	require.NoError(t, err)
	assert.Equal(t, StateProgress, view.State)
	assert.Equal(t, 3, view.Current)
	assert.Equal(t, 20, view.Total)
	assert.Equal(t, "working", view.Status)

	done := TaskRecord{ID: uuid.New(), State: StateSuccess, Current: 1, Total: 1, Message: CompletedMessage, Result: json.RawMessage(`42`)}
	require.NoError(t, store.PutRecord(ctx, done))
	first, err := reader.Status(ctx, done.ID)
	require.NoError(t, err)
	second, err := reader.Status(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.JSONEq(t, `42`, string(first.Result))
}

func TestStatusReader_StoreError(t *testing.T) {
	t.Parallel()
	storeErr := errors.New("connection refused")
	store := NewMockTaskStore()
	store.GetFn = func(ctx context.Context, id uuid.UUID) (TaskRecord, error) {
		return TaskRecord{}, storeErr
	}

	_, err := NewStatusReader(store).Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storeErr)
}

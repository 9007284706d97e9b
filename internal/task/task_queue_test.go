package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_EnqueueAndReceive(t *testing.T) {
	t.Parallel()
	queue := NewTaskQueue(5, setupTestLogger())
	job := NewMockJob(JobTypeLong, `{"steps":3}`)

	require.NoError(t, queue.Enqueue(context.Background(), job))
	assert.Equal(t, 1, queue.Len())

	select {
	case got := <-queue.GetChannel():
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, job.Payload, got.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job")
	}
}

func TestTaskQueue_Full(t *testing.T) {
	t.Parallel()
	queue := NewTaskQueue(2, setupTestLogger())
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, NewMockJob(JobTypeQuery, "SELECT 1")))
	require.NoError(t, queue.Enqueue(ctx, NewMockJob(JobTypeQuery, "SELECT 2")))

	err := queue.Enqueue(ctx, NewMockJob(JobTypeQuery, "SELECT 3"))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, queue.Len())
}

func TestTaskQueue_Close(t *testing.T) {
	t.Parallel()
	queue := NewTaskQueue(2, setupTestLogger())
	ctx := context.Background()
	job := NewMockJob(JobTypeQuery, "SELECT 1")

	require.NoError(t, queue.Enqueue(ctx, job))
	queue.Close()
	queue.Close()

	err := queue.Enqueue(ctx, NewMockJob(JobTypeQuery, "SELECT 2"))
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Buffered jobs stay readable after close
	got, ok := <-queue.GetChannel()
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	_, ok = <-queue.GetChannel()
	assert.False(t, ok)
}

func TestTaskQueue_CancelledContext(t *testing.T) {
	t.Parallel()
	queue := NewTaskQueue(2, setupTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := queue.Enqueue(ctx, NewMockJob(JobTypeQuery, "SELECT 1"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, queue.Len())
}

package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore implements the TaskStore interface for testing. It keeps
// real in-memory semantics and additionally records every accepted write
// so tests can inspect the full sequence of snapshots per task.
type MockTaskStore struct {
	inner   *MemoryTaskStore
	mutex   sync.Mutex
	history map[uuid.UUID][]TaskRecord

	// PutFn, when set, replaces the default PutRecord behavior
	PutFn func(ctx context.Context, rec TaskRecord) error
	// GetFn, when set, replaces the default GetRecord behavior
	GetFn func(ctx context.Context, id uuid.UUID) (TaskRecord, error)
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		inner:   NewMemoryTaskStore(),
		history: make(map[uuid.UUID][]TaskRecord),
	}
}

// PutRecord stores the record and appends it to the history
func (s *MockTaskStore) PutRecord(ctx context.Context, rec TaskRecord) error {
	if s.PutFn != nil {
		return s.PutFn(ctx, rec)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.inner.PutRecord(ctx, rec); err != nil {
		return err
	}
	s.history[rec.ID] = append(s.history[rec.ID], rec.Clone())
	return nil
}

// GetRecord returns the latest record
func (s *MockTaskStore) GetRecord(ctx context.Context, id uuid.UUID) (TaskRecord, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	return s.inner.GetRecord(ctx, id)
}

// DeleteExpired delegates to the in-memory store
func (s *MockTaskStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return s.inner.DeleteExpired(ctx, before)
}

// History returns every accepted snapshot for id in write order
func (s *MockTaskStore) History(id uuid.UUID) []TaskRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]TaskRecord, len(s.history[id]))
	copy(out, s.history[id])
	return out
}

// TerminalCount returns how many terminal snapshots were accepted for id
func (s *MockTaskStore) TerminalCount(id uuid.UUID) int {
	count := 0
	for _, rec := range s.History(id) {
		if rec.State.IsTerminal() {
			count++
		}
	}
	return count
}

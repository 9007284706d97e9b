package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryTaskStore is a mutex-guarded in-process TaskStore.
type MemoryTaskStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]TaskRecord
	now     func() time.Time
}

// NewMemoryTaskStore creates an empty MemoryTaskStore.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		records: make(map[uuid.UUID]TaskRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PutRecord replaces the snapshot for rec.ID unless it is already terminal.
func (s *MemoryTaskStore) PutRecord(ctx context.Context, rec TaskRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	rec = rec.Clone()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.records[rec.ID]; ok && current.State.IsTerminal() {
		return fmt.Errorf("%w: task %s is %s", ErrTaskTerminal, rec.ID, current.State)
	}
	s.records[rec.ID] = rec
	return nil
}

// GetRecord returns a copy of the latest snapshot for id.
func (s *MemoryTaskStore) GetRecord(ctx context.Context, id uuid.UUID) (TaskRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return TaskRecord{}, ErrTaskNotFound
	}
	return rec.Clone(), nil
}

// DeleteExpired drops terminal records last updated before the cutoff.
func (s *MemoryTaskStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if rec.State.IsTerminal() && rec.UpdatedAt.Before(before) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records.
func (s *MemoryTaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ensure MemoryTaskStore implements TaskStore
var _ TaskStore = (*MemoryTaskStore)(nil)

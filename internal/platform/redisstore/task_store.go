package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/querytask/internal/task"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces task keys.
const DefaultKeyPrefix = "querytask:task:"

// putScript replaces the record unless the stored one is terminal.
// ARGV: state, record JSON, TTL in milliseconds for terminal writes (0 = none).
var putScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'state')
if current == 'SUCCESS' or current == 'FAILURE' then
	return 0
end
redis.call('HSET', KEYS[1], 'state', ARGV[1], 'data', ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 and (ARGV[1] == 'SUCCESS' or ARGV[1] == 'FAILURE') then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// Config holds configuration for the Redis task store
type Config struct {
	// KeyPrefix is prepended to every task id. Defaults to DefaultKeyPrefix.
	KeyPrefix string

	// Retention is how long terminal records live. Zero keeps them forever.
	Retention time.Duration
}

// TaskStore implements the task.TaskStore interface using Redis
type TaskStore struct {
	client redis.UniversalClient
	config Config
	now    func() time.Time
}

// NewTaskStore creates a TaskStore on client
func NewTaskStore(client redis.UniversalClient, config Config) *TaskStore {
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultKeyPrefix
	}
	return &TaskStore{
		client: client,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskStore) key(id uuid.UUID) string {
	return s.config.KeyPrefix + id.String()
}

// PutRecord atomically replaces the record for rec.ID
func (s *TaskStore) PutRecord(ctx context.Context, rec task.TaskRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode task record: %w", err)
	}

	applied, err := putScript.Run(ctx, s.client,
		[]string{s.key(rec.ID)},
		rec.State.String(),
		string(data),
		s.config.Retention.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to save task record: %w", err)
	}
	if applied == 0 {
		return fmt.Errorf("%w: task %s", task.ErrTaskTerminal, rec.ID)
	}
	return nil
}

// GetRecord loads the latest record for id
func (s *TaskStore) GetRecord(ctx context.Context, id uuid.UUID) (task.TaskRecord, error) {
	data, err := s.client.HGet(ctx, s.key(id), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return task.TaskRecord{}, task.ErrTaskNotFound
	}
	if err != nil {
		return task.TaskRecord{}, fmt.Errorf("failed to load task record: %w", err)
	}

	var rec task.TaskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return task.TaskRecord{}, fmt.Errorf("%w: %v", task.ErrInvalidRecord, err)
	}
	return rec, nil
}

// DeleteExpired is a no-op: Redis expires terminal records by TTL.
func (s *TaskStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

// Ping checks connectivity to Redis
func (s *TaskStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure TaskStore implements task.TaskStore
var _ task.TaskStore = (*TaskStore)(nil)

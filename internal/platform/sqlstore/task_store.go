package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/querytask/internal/platform/logger"
	"github.com/phrazzld/querytask/internal/store"
	"github.com/phrazzld/querytask/internal/task"
)

const (
	upsertRecordQuery = `
		INSERT INTO task_records
			(id, task_type, state, current_step, total_steps, message, result, error_kind, error_message, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			task_type = excluded.task_type,
			state = excluded.state,
			current_step = excluded.current_step,
			total_steps = excluded.total_steps,
			message = excluded.message,
			result = excluded.result,
			error_kind = excluded.error_kind,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
		WHERE task_records.state NOT IN ('SUCCESS', 'FAILURE')
	`

	selectRecordQuery = `
		SELECT id, task_type, state, current_step, total_steps, message, result, error_kind, error_message, updated_at
		FROM task_records
		WHERE id = ?
	`

	deleteExpiredQuery = `
		DELETE FROM task_records
		WHERE state IN ('SUCCESS', 'FAILURE') AND updated_at < ?
	`
)

// TaskStore implements the task.TaskStore interface on a SQL database.
// Snapshot replacement is a single upsert whose update branch is skipped
// for terminal rows, so the terminal guard holds across processes.
type TaskStore struct {
	db      store.DBTX
	dialect store.Dialect
	now     func() time.Time
}

// NewTaskStore creates a TaskStore. The schema must already be migrated.
func NewTaskStore(db store.DBTX, dialect store.Dialect) *TaskStore {
	return &TaskStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PutRecord upserts rec unless the stored row is already terminal
func (s *TaskStore) PutRecord(ctx context.Context, rec task.TaskRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	log := logger.FromContext(ctx)

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	var result, errorKind, errorMessage sql.NullString
	if rec.Result != nil {
		result = sql.NullString{String: string(rec.Result), Valid: true}
	}
	if rec.Error != nil {
		errorKind = sql.NullString{String: rec.Error.Kind, Valid: true}
		errorMessage = sql.NullString{String: rec.Error.Message, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(upsertRecordQuery),
		rec.ID.String(),
		rec.Type,
		rec.State.String(),
		rec.Current,
		rec.Total,
		rec.Message,
		result,
		errorKind,
		errorMessage,
		updatedAt.UnixMilli(),
	)
	if err != nil {
		log.Error("failed to save task record",
			"task_id", rec.ID,
			"state", rec.State,
			"error", err)
		return fmt.Errorf("failed to save task record: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: task %s", task.ErrTaskTerminal, rec.ID)
	}
	return nil
}

// GetRecord loads the latest snapshot for id
func (s *TaskStore) GetRecord(ctx context.Context, id uuid.UUID) (task.TaskRecord, error) {
	var (
		rawID, state                    string
		rec                             task.TaskRecord
		result, errorKind, errorMessage sql.NullString
		updatedAt                       int64
	)

	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(selectRecordQuery), id.String()).Scan(
		&rawID,
		&rec.Type,
		&state,
		&rec.Current,
		&rec.Total,
		&rec.Message,
		&result,
		&errorKind,
		&errorMessage,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return task.TaskRecord{}, task.ErrTaskNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to load task record", "task_id", id, "error", err)
		return task.TaskRecord{}, fmt.Errorf("failed to load task record: %w", err)
	}

	if rec.ID, err = uuid.Parse(rawID); err != nil {
		return task.TaskRecord{}, fmt.Errorf("%w: stored id %q: %v", task.ErrInvalidRecord, rawID, err)
	}
	if rec.State, err = task.ParseState(state); err != nil {
		return task.TaskRecord{}, fmt.Errorf("%w: %v", task.ErrInvalidRecord, err)
	}
	if result.Valid {
		rec.Result = json.RawMessage(result.String)
	}
	if errorKind.Valid {
		rec.Error = &task.TaskError{Kind: errorKind.String, Message: errorMessage.String}
	}
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return rec, nil
}

// DeleteExpired removes terminal rows last updated before the cutoff
func (s *TaskStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(deleteExpiredQuery), before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired task records: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// Ensure TaskStore implements task.TaskStore
var _ task.TaskStore = (*TaskStore)(nil)

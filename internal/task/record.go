package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status texts used in synthesized and terminal views.
const (
	PendingMessage   = "Pending..."
	CompletedMessage = "Task completed!"
)

// TaskRecord is the latest known state of one submitted job.
// Records are treated as immutable values: stores replace them whole.
type TaskRecord struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	State     State           `json:"state"`
	Current   int             `json:"current"`
	Total     int             `json:"total"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *TaskError      `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate checks the record invariants: progress bounds and that result
// and error appear only with their matching terminal state.
func (r TaskRecord) Validate() error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if !r.State.Valid() {
		return fmt.Errorf("%w: unknown state %d", ErrInvalidRecord, int(r.State))
	}
	if r.Total < 1 || r.Current < 0 || r.Current > r.Total {
		return fmt.Errorf("%w: progress %d/%d out of range", ErrInvalidRecord, r.Current, r.Total)
	}

	switch r.State {
	case StatePending, StateProgress:
		if r.Result != nil || r.Error != nil {
			return fmt.Errorf("%w: %s record carries a result or error", ErrInvalidRecord, r.State)
		}
	case StateSuccess:
		if r.Result == nil {
			return fmt.Errorf("%w: success record without result", ErrInvalidRecord)
		}
		if r.Error != nil {
			return fmt.Errorf("%w: success record with error", ErrInvalidRecord)
		}
	case StateFailure:
		if r.Error == nil {
			return fmt.Errorf("%w: failure record without error", ErrInvalidRecord)
		}
		if r.Result != nil {
			return fmt.Errorf("%w: failure record with result", ErrInvalidRecord)
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share the result buffer or
// error value with a store.
func (r TaskRecord) Clone() TaskRecord {
	c := r
	if r.Result != nil {
		c.Result = bytes.Clone(r.Result)
	}
	if r.Error != nil {
		e := *r.Error
		c.Error = &e
	}
	return c
}

// View renders the record for polling clients.
func (r TaskRecord) View() StatusView {
	view := StatusView{
		TaskID:  r.ID,
		State:   r.State,
		Current: r.Current,
		Total:   r.Total,
		Status:  r.Message,
	}

	switch r.State {
	case StateSuccess:
		view.Result = bytes.Clone(r.Result)
	case StateFailure:
		if r.Error != nil {
			e := *r.Error
			view.Error = &e
			view.Status = e.String()
		}
	case StatePending, StateProgress:
	}
	return view
}

// StatusView is the externally observable rendering of a task.
type StatusView struct {
	TaskID  uuid.UUID       `json:"task_id"`
	State   State           `json:"state"`
	Current int             `json:"current"`
	Total   int             `json:"total"`
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *TaskError      `json:"error,omitempty"`
}

// PendingView is the view reported for a task with no stored record.
func PendingView(id uuid.UUID) StatusView {
	return StatusView{
		TaskID:  id,
		State:   StatePending,
		Current: 0,
		Total:   1,
		Status:  PendingMessage,
	}
}

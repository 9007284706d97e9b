package jobs

import (
	"context"
	"log/slog"

	"github.com/phrazzld/querytask/internal/task"
)

// RunningQueryMessage is the status shown while a query executes.
const RunningQueryMessage = "Running query..."

// QueryResult is the tabular outcome of a query job.
type QueryResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// QueryExecutor defines the boundary to the external SQL backend.
type QueryExecutor interface {
	// Execute runs query and returns its rows. Failures are returned as
	// *BackendError so the task records the right failure kind.
	Execute(ctx context.Context, query string) (*QueryResult, error)
}

// QueryTask runs submitted SQL text through a QueryExecutor.
type QueryTask struct {
	executor QueryExecutor
	logger   *slog.Logger
}

// NewQueryTask creates a QueryTask. A nil executor makes every query job
// fail with BackendUnavailable.
func NewQueryTask(executor QueryExecutor, logger *slog.Logger) *QueryTask {
	return &QueryTask{
		executor: executor,
		logger:   logger.With("component", "query_task"),
	}
}

// Handle implements task.Handler for query jobs.
func (q *QueryTask) Handle(ctx context.Context, payload string, progress task.ProgressSink) (any, error) {
	if err := progress.Report(ctx, 0, 1, RunningQueryMessage); err != nil {
		return nil, err
	}

	if q.executor == nil {
		return nil, NewBackendError(KindBackendUnavailable, "cannot run query", ErrBackendNotConfigured)
	}

	result, err := q.executor.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, NewBackendError(KindQueryError, "cannot read query result", ErrEmptyQueryResult)
	}

	q.logger.Debug("query finished", "row_count", result.RowCount)
	return result, nil
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/querytask/internal/jobs"
	"github.com/phrazzld/querytask/internal/store"
)

// QueryExecutor implements jobs.QueryExecutor over a database/sql handle.
type QueryExecutor struct {
	db      store.DBTX
	timeout time.Duration
	logger  *slog.Logger
}

// NewQueryExecutor creates a QueryExecutor. A zero timeout leaves queries
// bounded only by the job context.
func NewQueryExecutor(db store.DBTX, timeout time.Duration, logger *slog.Logger) *QueryExecutor {
	return &QueryExecutor{
		db:      db,
		timeout: timeout,
		logger:  logger.With("component", "query_executor"),
	}
}

// Execute runs query and collects every row. Column values are converted
// to JSON-friendly types: byte slices become strings.
func (e *QueryExecutor) Execute(ctx context.Context, query string) (*jobs.QueryResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		e.logger.Warn("query failed", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to read result columns: %w", err))
	}

	result := &jobs.QueryResult{
		Columns: columns,
		Rows:    make([][]any, 0),
	}

	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, MapError(fmt.Errorf("failed to scan result row: %w", err))
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating result rows: %w", err))
	}

	result.RowCount = len(result.Rows)
	e.logger.Debug("query executed",
		"row_count", result.RowCount,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Ensure QueryExecutor implements jobs.QueryExecutor
var _ jobs.QueryExecutor = (*QueryExecutor)(nil)

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/querytask/internal/platform/postgres"
	"github.com/phrazzld/querytask/internal/store"

	// Register the modernc SQLite driver
	_ "modernc.org/sqlite"
)

// Open connects to the task record database for dialect.
func Open(ctx context.Context, dialect store.Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case store.DialectPostgres:
		return postgres.Open(ctx, dsn, postgres.DefaultPoolConfig())

	case store.DialectSQLite:
		db, err := sql.Open(dialect.DriverName(), dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

package testdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	// Register the modernc SQLite driver
	_ "modernc.org/sqlite"
)

// RequireDatabaseURL returns the integration database URL. Without one the
// test is skipped locally and fails in CI, where a database is expected.
func RequireDatabaseURL(t testing.TB) string {
	t.Helper()

	url := DatabaseURL()
	if url != "" {
		return url
	}
	if IsCI() {
		t.Fatalf("no integration database configured in CI, set %s or %s", EnvTestDatabaseURL, EnvDatabaseURL)
	}
	t.Skipf("%s not set, skipping PostgreSQL integration test", EnvTestDatabaseURL)
	return ""
}

// OpenSQLite opens a SQLite database file in a per-test temp dir. The
// handle is closed when the test ends.
func OpenSQLite(t testing.TB, name string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so a
// test can modify the database without leaving anything behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Errorf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

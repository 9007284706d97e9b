package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/phrazzld/querytask/internal/jobs"
	"github.com/phrazzld/querytask/internal/platform/postgres"
	"github.com/phrazzld/querytask/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSQLite returns a throwaway database seeded with a small table
func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db := testdb.OpenSQLite(t, "backend.db")

	_, err := db.Exec(`CREATE TABLE orbiters (id INTEGER PRIMARY KEY, name TEXT, mass REAL, blob BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orbiters (id, name, mass, blob) VALUES
		(1, 'radiant', 1.5, x'6869'),
		(2, 'silent', NULL, NULL)`)
	require.NoError(t, err)
	return db
}

func TestQueryExecutor_Execute(t *testing.T) {
	t.Parallel()
	executor := postgres.NewQueryExecutor(openSQLite(t), 0, setupTestLogger())

	result, err := executor.Execute(context.Background(), "SELECT id, name, mass, blob FROM orbiters ORDER BY id")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "mass", "blob"}, result.Columns)
	assert.Equal(t, 2, result.RowCount)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, []any{int64(1), "radiant", 1.5, "hi"}, result.Rows[0])
	assert.Equal(t, []any{int64(2), "silent", nil, nil}, result.Rows[1])
}

func TestQueryExecutor_EmptyResult(t *testing.T) {
	t.Parallel()
	executor := postgres.NewQueryExecutor(openSQLite(t), time.Second, setupTestLogger())

	result, err := executor.Execute(context.Background(), "SELECT id FROM orbiters WHERE id > 100")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RowCount)
	assert.NotNil(t, result.Rows)
}

func TestQueryExecutor_QueryError(t *testing.T) {
	t.Parallel()
	executor := postgres.NewQueryExecutor(openSQLite(t), 0, setupTestLogger())

	_, err := executor.Execute(context.Background(), "SELECT * FROM missing_table")
	require.Error(t, err)

	var backendErr *jobs.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, jobs.KindQueryError, backendErr.Kind)
}

func TestQueryExecutor_Timeout(t *testing.T) {
	t.Parallel()
	executor := postgres.NewQueryExecutor(openSQLite(t), 0, setupTestLogger())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := executor.Execute(ctx, "SELECT 1")
	require.Error(t, err)

	var backendErr *jobs.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, jobs.KindBackendTimeout, backendErr.Kind)
}

func TestQueryExecutor_InsideTransaction(t *testing.T) {
	db := openSQLite(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec(`INSERT INTO orbiters (id, name) VALUES (3, 'transient')`)
		require.NoError(t, err)

		executor := postgres.NewQueryExecutor(tx, 0, setupTestLogger())
		result, err := executor.Execute(context.Background(), "SELECT count(*) AS n FROM orbiters")
		require.NoError(t, err)
		assert.Equal(t, []any{int64(3)}, result.Rows[0])
	})

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM orbiters`).Scan(&n))
	assert.Equal(t, 2, n)
}

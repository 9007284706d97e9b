package testdb

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL_Precedence(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://fallback")
	t.Setenv(EnvTestDatabaseURL, "")
	assert.Equal(t, "postgres://fallback", DatabaseURL())

	t.Setenv(EnvTestDatabaseURL, "postgres://preferred")
	assert.Equal(t, "postgres://preferred", DatabaseURL())
}

func TestIsCI(t *testing.T) {
	for _, name := range ciVariables {
		t.Setenv(name, "")
	}
	assert.False(t, IsCI())

	t.Setenv("GITHUB_ACTIONS", "true")
	assert.True(t, IsCI())
}

func TestWithTx_RollsBack(t *testing.T) {
	db := OpenSQLite(t, "tx.db")
	_, err := db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec(`INSERT INTO items (id) VALUES (1)`)
		require.NoError(t, err)

		var n int
		require.NoError(t, tx.QueryRow(`SELECT count(*) FROM items`).Scan(&n))
		assert.Equal(t, 1, n)
	})

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM items`).Scan(&n))
	assert.Equal(t, 0, n)
}

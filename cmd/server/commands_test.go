package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand_SQLite(t *testing.T) {
	t.Setenv("QUERYTASK_STORE_BACKEND", "sqlite")
	t.Setenv("QUERYTASK_STORE_URL", filepath.Join(t.TempDir(), "tasks.db"))
	t.Setenv("QUERYTASK_SERVER_LOG_LEVEL", "error")

	_, err := runCommand(t, "migrate", "up")
	require.NoError(t, err)

	out, err := runCommand(t, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "2", strings.TrimSpace(out))

	_, err = runCommand(t, "migrate", "down")
	require.NoError(t, err)

	out, err = runCommand(t, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))
}

func TestMigrateCommand_RequiresSQLStore(t *testing.T) {
	t.Setenv("QUERYTASK_STORE_BACKEND", "memory")
	t.Setenv("QUERYTASK_SERVER_LOG_LEVEL", "error")

	_, err := runCommand(t, "migrate", "up")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "need a sql store")
}

func TestMigrateCommand_RejectsUnknownSubcommand(t *testing.T) {
	_, err := runCommand(t, "migrate", "sideways")
	assert.Error(t, err)
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	t.Setenv("QUERYTASK_SERVER_LOG_LEVEL", "verbose")

	_, err := runCommand(t, "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

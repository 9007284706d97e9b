package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/querytask/internal/api"
	"github.com/phrazzld/querytask/internal/config"
	"github.com/phrazzld/querytask/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestConfig returns an in-memory configuration with no step delay
func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, LogLevel: "debug"},
		Task: config.TaskConfig{
			WorkerCount:          2,
			QueueSize:            10,
			RetentionMinutes:     60,
			SweepIntervalSeconds: 60,
			StepDelayMillis:      0,
		},
		Store: config.StoreConfig{Backend: config.BackendMemory},
		Queue: config.QueueConfig{Backend: config.BackendMemory, Name: "querytask-test"},
	}
}

// startTestApp builds and starts an application behind an httptest server
func startTestApp(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	app, err := newApplication(context.Background(), cfg, setupTestLogger())
	require.NoError(t, err)
	require.NoError(t, app.startWorkers())

	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(func() {
		server.Close()
		app.cleanup()
	})
	return server
}

func submit(t *testing.T, server *httptest.Server, path, body string) api.SubmitResponse {
	t.Helper()

	resp, err := http.Post(server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var out api.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, out.Location, resp.Header.Get("Location"))
	return out
}

func getStatus(t *testing.T, server *httptest.Server, location string) task.StatusView {
	t.Helper()

	resp, err := http.Get(server.URL + location)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view task.StatusView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func waitForTerminal(t *testing.T, server *httptest.Server, location string) task.StatusView {
	t.Helper()

	var view task.StatusView
	require.Eventually(t, func() bool {
		view = getStatus(t, server, location)
		return view.State.IsTerminal()
	}, 10*time.Second, 10*time.Millisecond)
	return view
}

func TestApplication_LongTaskLifecycle(t *testing.T) {
	server := startTestApp(t, newTestConfig())

	submitted := submit(t, server, "/api/longtask", `{"steps":5}`)
	view := waitForTerminal(t, server, submitted.Location)

	assert.Equal(t, task.StateSuccess, view.State)
	assert.Equal(t, submitted.TaskID, view.TaskID)
	assert.Equal(t, 5, view.Current)
	assert.Equal(t, 5, view.Total)
	assert.Equal(t, task.CompletedMessage, view.Status)
	assert.JSONEq(t, "42", string(view.Result))

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `querytask_tasks_submitted_total{type="long"} 1`)
	assert.Contains(t, string(body), `querytask_tasks_succeeded_total{type="long"} 1`)
}

func TestApplication_QueryWithoutBackendFails(t *testing.T) {
	server := startTestApp(t, newTestConfig())

	submitted := submit(t, server, "/api/query", `{"query":"SELECT 1"}`)
	view := waitForTerminal(t, server, submitted.Location)

	assert.Equal(t, task.StateFailure, view.State)
	require.NotNil(t, view.Error)
	assert.Equal(t, "BackendUnavailable", view.Error.Kind)
	assert.True(t, strings.HasPrefix(view.Status, "BackendUnavailable: "))
}

func TestApplication_UnknownTaskIsPending(t *testing.T) {
	server := startTestApp(t, newTestConfig())

	view := getStatus(t, server, "/api/status/8f14e45f-ceea-467f-a0e6-7f3e1b2c9d10")

	assert.Equal(t, task.StatePending, view.State)
	assert.Equal(t, 0, view.Current)
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, task.PendingMessage, view.Status)
}

func TestApplication_Health(t *testing.T) {
	server := startTestApp(t, newTestConfig())

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestApplication_SQLiteStore(t *testing.T) {
	cfg := newTestConfig()
	cfg.Store = config.StoreConfig{
		Backend: config.BackendSQLite,
		URL:     filepath.Join(t.TempDir(), "tasks.db"),
	}
	server := startTestApp(t, cfg)

	submitted := submit(t, server, "/api/longtask", `{"steps":3}`)
	view := waitForTerminal(t, server, submitted.Location)

	assert.Equal(t, task.StateSuccess, view.State)
	assert.Equal(t, 3, view.Current)
}

func TestApplication_RedisQueueAndStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := newTestConfig()
	cfg.Store = config.StoreConfig{Backend: config.BackendRedis, URL: "redis://" + mr.Addr() + "/0"}
	cfg.Queue = config.QueueConfig{Backend: config.BackendRedis, RedisURL: "redis://" + mr.Addr() + "/0", Name: "querytask-test"}
	server := startTestApp(t, cfg)

	submitted := submit(t, server, "/api/longtask", `{"steps":2}`)
	view := waitForTerminal(t, server, submitted.Location)

	assert.Equal(t, task.StateSuccess, view.State)
	assert.JSONEq(t, "42", string(view.Result))
}

func TestNewApplication_InvalidStore(t *testing.T) {
	cfg := newTestConfig()
	cfg.Store = config.StoreConfig{Backend: config.BackendRedis, URL: "not a url"}

	app, err := newApplication(context.Background(), cfg, setupTestLogger())

	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestApplication_ServeShutsDownOnCancel(t *testing.T) {
	app, err := newApplication(context.Background(), newTestConfig(), setupTestLogger())
	require.NoError(t, err)
	defer app.cleanup()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, listener, app.setupRouter()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

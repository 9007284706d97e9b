package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LoggerConfig holds the settings needed to build the application logger.
type LoggerConfig struct {
	// Level is one of debug, info, warn or error (case-insensitive)
	Level string

	// Output receives the JSON log lines. Defaults to stdout.
	Output io.Writer
}

// ParseLevel converts a configured level name into a slog.Level.
// The second return value is false for unknown names.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New creates a JSON logger configured by cfg without touching the default logger.
func New(cfg LoggerConfig) *slog.Logger {
	level, ok := ParseLevel(cfg.Level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	if !ok {
		logger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}
	return logger
}

// Setup initializes the application's logging system. It creates a
// structured JSON logger with the configured level, sets it as the default
// logger and returns it.
func Setup(cfg LoggerConfig) (*slog.Logger, error) {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger, nil
}

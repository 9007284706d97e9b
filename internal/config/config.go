package config

import "time"

// Backend names accepted by store.backend and queue.backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig describes the backend query jobs run against.
// An empty URL leaves query jobs without a backend.
type DatabaseConfig struct {
	URL                 string `mapstructure:"url" validate:"omitempty,url"`
	QueryTimeoutSeconds int    `mapstructure:"query_timeout_seconds" validate:"gte=0"`
}

// QueryTimeout returns the per-query deadline, zero meaning none.
func (c DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// TaskConfig holds worker and record lifecycle settings.
type TaskConfig struct {
	WorkerCount          int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize            int `mapstructure:"queue_size" validate:"required,gt=0"`
	RetentionMinutes     int `mapstructure:"retention_minutes" validate:"required,gt=0"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" validate:"required,gt=0"`
	StepDelayMillis      int `mapstructure:"step_delay_millis" validate:"gte=0"`
}

// Retention is how long terminal records are kept.
func (c TaskConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMinutes) * time.Minute
}

// SweepInterval is how often expired records are evicted.
func (c TaskConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// StepDelay is the pause before each long-task progress report.
func (c TaskConfig) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMillis) * time.Millisecond
}

// StoreConfig selects where task records live.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memory sqlite postgres redis"`
	// URL is a file path or DSN for sqlite, a Postgres URL, or a redis:// URL
	URL string `mapstructure:"url"`
}

// QueueConfig selects how jobs reach the workers.
type QueueConfig struct {
	Backend  string `mapstructure:"backend" validate:"required,oneof=memory redis"`
	RedisURL string `mapstructure:"redis_url" validate:"omitempty,url"`
	Name     string `mapstructure:"name" validate:"required"`

	// JobTimeoutSeconds bounds broker job execution, 0 meaning none
	JobTimeoutSeconds int `mapstructure:"job_timeout_seconds" validate:"gte=0"`
}

// JobTimeout returns the broker job deadline, zero meaning none.
func (c QueueConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

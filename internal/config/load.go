package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// QUERYTASK_SERVER_PORT for server.port.
const EnvPrefix = "QUERYTASK"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags, then the rules spanning several fields.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Store.Backend != BackendMemory && cfg.Store.URL == "" {
		return fmt.Errorf("config validation failed: store.url is required for the %s store", cfg.Store.Backend)
	}
	if cfg.Queue.Backend == BackendRedis && cfg.Queue.RedisURL == "" {
		return fmt.Errorf("config validation failed: queue.redis_url is required for the redis queue")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Without defaults AutomaticEnv does not know these keys exist
	v.SetDefault("database.url", "")
	v.SetDefault("database.query_timeout_seconds", 0)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.retention_minutes", 60)
	v.SetDefault("task.sweep_interval_seconds", 60)
	v.SetDefault("task.step_delay_millis", 1000)

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.url", "")

	v.SetDefault("queue.backend", BackendMemory)
	v.SetDefault("queue.redis_url", "")
	v.SetDefault("queue.name", "querytask")
	v.SetDefault("queue.job_timeout_seconds", 0)
}

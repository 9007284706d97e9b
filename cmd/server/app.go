package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/phrazzld/querytask/internal/config"
	"github.com/phrazzld/querytask/internal/events"
	"github.com/phrazzld/querytask/internal/jobs"
	"github.com/phrazzld/querytask/internal/platform/broker"
	"github.com/phrazzld/querytask/internal/platform/metrics"
	"github.com/phrazzld/querytask/internal/platform/postgres"
	"github.com/phrazzld/querytask/internal/platform/redisstore"
	"github.com/phrazzld/querytask/internal/platform/sqlstore"
	"github.com/phrazzld/querytask/internal/store"
	"github.com/phrazzld/querytask/internal/task"
	"github.com/redis/go-redis/v9"
)

// brokerShutdownTimeout bounds how long in-flight broker jobs get on shutdown
const brokerShutdownTimeout = 10 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Connections owned by the application
	storeDB     *sql.DB
	queryDB     *sql.DB
	redisClient *redis.Client

	taskStore task.TaskStore
	emitter   *events.InMemoryEventEmitter
	metrics   *metrics.Recorder

	executor     *task.Executor
	dispatcher   *task.Dispatcher
	statusReader *task.StatusReader
	janitor      *task.RetentionJanitor

	// Exactly one of these drives the workers, depending on queue.backend
	taskRunner   *task.TaskRunner
	brokerQueue  *broker.Queue
	brokerServer *broker.Server
}

// newApplication creates a new application instance with all dependencies
// initialized. Nothing is started until Run.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *application, err error) {
	app = &application{
		config: cfg,
		logger: logger,
	}
	defer func() {
		if err != nil {
			app.cleanup()
			app = nil
		}
	}()

	app.taskStore, err = app.setupTaskStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to set up task store: %w", err)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.metrics = metrics.NewRecorder()
	app.emitter.RegisterHandler(app.metrics)

	app.executor = task.NewExecutor(app.taskStore, app.emitter, logger)
	app.registerJobs(ctx)

	queue, err := app.setupQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to set up task queue: %w", err)
	}
	app.dispatcher = task.NewDispatcher(queue, app.emitter, logger)
	app.statusReader = task.NewStatusReader(app.taskStore)

	app.janitor = task.NewRetentionJanitor(app.taskStore, task.JanitorConfig{
		Retention: cfg.Task.Retention(),
		Interval:  cfg.Task.SweepInterval(),
	}, logger)

	logger.Info("application initialized successfully")
	return app, nil
}

// setupTaskStore builds the configured task record store
func (app *application) setupTaskStore(ctx context.Context) (task.TaskStore, error) {
	cfg := app.config.Store

	switch cfg.Backend {
	case config.BackendMemory:
		return task.NewMemoryTaskStore(), nil

	case config.BackendSQLite, config.BackendPostgres:
		dialect, err := store.ParseDialect(cfg.Backend)
		if err != nil {
			return nil, err
		}
		app.storeDB, err = sqlstore.Open(ctx, dialect, cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(ctx, app.storeDB, dialect, sqlstore.MigrateUp, app.logger); err != nil {
			return nil, err
		}
		return sqlstore.NewTaskStore(app.storeDB, dialect), nil

	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis store url: %w", err)
		}
		app.redisClient = redis.NewClient(opts)
		taskStore := redisstore.NewTaskStore(app.redisClient, redisstore.Config{
			Retention: app.config.Task.Retention(),
		})
		if err := taskStore.Ping(ctx); err != nil {
			return nil, err
		}
		return taskStore, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

// registerJobs registers a handler for every job type the API accepts
func (app *application) registerJobs(ctx context.Context) {
	longCfg := jobs.DefaultLongTaskConfig()
	longCfg.StepDelay = app.config.Task.StepDelay()
	app.executor.Register(task.JobTypeLong, jobs.NewLongTask(longCfg, app.logger).Handle)

	// A nil executor makes query jobs fail with BackendUnavailable
	var executor jobs.QueryExecutor
	if app.config.Database.URL != "" {
		db, err := postgres.Open(ctx, app.config.Database.URL, postgres.DefaultPoolConfig())
		if err != nil {
			app.logger.Warn("query backend unreachable, query jobs will fail", "error", err)
		} else {
			app.queryDB = db
			executor = postgres.NewQueryExecutor(db, app.config.Database.QueryTimeout(), app.logger)
		}
	} else {
		app.logger.Warn("no query backend configured, query jobs will fail")
	}
	app.executor.Register(task.JobTypeQuery, jobs.NewQueryTask(executor, app.logger).Handle)
}

// setupQueue builds the queue the dispatcher writes to and the workers
// consuming it
func (app *application) setupQueue() (task.TaskQueueWriter, error) {
	cfg := app.config

	switch cfg.Queue.Backend {
	case config.BackendMemory:
		app.taskRunner = task.NewTaskRunner(app.executor, task.TaskRunnerConfig{
			WorkerCount: cfg.Task.WorkerCount,
			QueueSize:   cfg.Task.QueueSize,
		}, app.logger)
		return app.taskRunner.Queue(), nil

	case config.BackendRedis:
		redisOpt, err := asynqRedisOpt(cfg.Queue.RedisURL)
		if err != nil {
			return nil, err
		}
		app.brokerQueue = broker.NewQueue(redisOpt, broker.QueueConfig{
			Name:       cfg.Queue.Name,
			JobTimeout: cfg.Queue.JobTimeout(),
		}, app.logger)
		app.brokerServer = broker.NewServer(redisOpt, app.executor, broker.ServerConfig{
			Concurrency:     cfg.Task.WorkerCount,
			QueueName:       cfg.Queue.Name,
			ShutdownTimeout: brokerShutdownTimeout,
			JobTimeout:      cfg.Queue.JobTimeout(),
		}, app.logger)
		return app.brokerQueue, nil

	default:
		return nil, fmt.Errorf("unsupported queue backend %q", cfg.Queue.Backend)
	}
}

// asynqRedisOpt converts a redis:// URL into asynq connection options
func asynqRedisOpt(rawURL string) (asynq.RedisClientOpt, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("invalid queue redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Network:   opts.Network,
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

// startWorkers starts the workers and the retention janitor
func (app *application) startWorkers() error {
	if app.brokerServer != nil {
		if err := app.brokerServer.Start(); err != nil {
			return err
		}
	}
	if app.taskRunner != nil {
		app.taskRunner.Start()
	}
	app.janitor.Start()
	return nil
}

// Run starts the workers and the HTTP server and blocks until ctx is done
// or the server fails.
func (app *application) Run(ctx context.Context) error {
	if err := app.startWorkers(); err != nil {
		app.cleanup()
		return fmt.Errorf("failed to start workers: %w", err)
	}

	err := app.startHTTPServer(ctx, app.setupRouter())
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. Submission
// stops first, then the workers finish, then connections close.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.brokerQueue != nil {
		app.brokerQueue.Close()
	}
	if app.brokerServer != nil {
		app.brokerServer.Shutdown()
	}
	if app.janitor != nil {
		app.janitor.Stop()
	}

	var errs []error
	if app.storeDB != nil {
		errs = append(errs, app.storeDB.Close())
	}
	if app.queryDB != nil {
		errs = append(errs, app.queryDB.Close())
	}
	if app.redisClient != nil {
		errs = append(errs, app.redisClient.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("error closing connections", "error", err)
	}

	app.logger.Info("application shutdown completed")
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/phrazzld/querytask/internal/config"
	"github.com/phrazzld/querytask/internal/platform/logger"
	"github.com/phrazzld/querytask/internal/platform/sqlstore"
	"github.com/phrazzld/querytask/internal/store"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "querytask",
		Short: "querytask runs SQL queries and long jobs in the background",
		Long: `querytask accepts SQL query and long-running jobs over HTTP, hands them
to background workers and reports their progress until they finish.

Configuration comes from QUERYTASK_* environment variables and an optional
config.yaml in the working directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the task workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}
			log.Info("server configuration loaded",
				"port", cfg.Server.Port,
				"log_level", cfg.Server.LogLevel,
				"store_backend", cfg.Store.Backend,
				"queue_backend", cfg.Queue.Backend,
				"query_backend_configured", cfg.Database.URL != "")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides config)")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Manage the task record schema of the SQL store",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{sqlstore.MigrateUp, sqlstore.MigrateDown, sqlstore.MigrateStatus, sqlstore.MigrateVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			return runMigrations(cmd.Context(), cmd, cfg, args[0], log)
		},
	}
}

func runMigrations(ctx context.Context, cmd *cobra.Command, cfg *config.Config, command string, log *slog.Logger) error {
	if cfg.Store.Backend != config.BackendSQLite && cfg.Store.Backend != config.BackendPostgres {
		return fmt.Errorf("migrations need a sql store, store.backend is %q", cfg.Store.Backend)
	}

	dialect, err := store.ParseDialect(cfg.Store.Backend)
	if err != nil {
		return err
	}

	db, err := sqlstore.Open(ctx, dialect, cfg.Store.URL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if command == sqlstore.MigrateVersion {
		v, err := sqlstore.Version(ctx, db, dialect)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
		return nil
	}

	return sqlstore.Migrate(ctx, db, dialect, command, log)
}

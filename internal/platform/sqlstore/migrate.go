package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/phrazzld/querytask/internal/store"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

func gooseDialect(d store.Dialect) (goose.Dialect, error) {
	switch d {
	case store.DialectPostgres:
		return goose.DialectPostgres, nil
	case store.DialectSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", d)
	}
}

func newProvider(db *sql.DB, dialect store.Dialect) (*goose.Provider, error) {
	gd, err := gooseDialect(dialect)
	if err != nil {
		return nil, err
	}

	migrations, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(gd, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Migrate runs a migration command against db.
func Migrate(ctx context.Context, db *sql.DB, dialect store.Dialect, command string, logger *slog.Logger) error {
	migrationLogger := logger.With(
		"component", "migrations",
		"command", command,
		"dialect", string(dialect),
	)

	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}

	startTime := time.Now()
	migrationLogger.Info("starting migration operation")

	switch command {
	case MigrateUp:
		results, err := provider.Up(ctx)
		for _, r := range results {
			migrationLogger.Info("applied migration",
				"version", r.Source.Version,
				"duration_ms", r.Duration.Milliseconds())
		}
		if err != nil {
			return fmt.Errorf("migration command '%s' failed: %w", command, err)
		}

	case MigrateDown:
		result, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("migration command '%s' failed: %w", command, err)
		}
		migrationLogger.Info("rolled back migration", "version", result.Source.Version)

	case MigrateStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration command '%s' failed: %w", command, err)
		}
		for _, s := range statuses {
			migrationLogger.Info("migration status",
				"version", s.Source.Version,
				"path", s.Source.Path,
				"state", string(s.State),
				"applied_at", s.AppliedAt)
		}

	case MigrateVersion:
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("migration command '%s' failed: %w", command, err)
		}
		migrationLogger.Info("current database migration version", "version", version)

	default:
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, status, or version)",
			command,
		)
	}

	migrationLogger.Info("migration operation completed",
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// Version returns the schema version currently applied to db.
func Version(ctx context.Context, db *sql.DB, dialect store.Dialect) (int64, error) {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

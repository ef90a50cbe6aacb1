package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations is the embedded schema history, rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// EnsureMigrated applies every pending migration. dialect is a goose dialect name
// ("postgres", "mysql", "sqlite3"), as returned by sqlmapper.Dialect.Name.
func EnsureMigrated(ctx context.Context, db *sql.DB, dialect string, log zerolog.Logger) error {
	start := time.Now()
	log = log.With().Str("component", "database").Logger()

	log.Info().Str("event", "db_migration_check").Str("dialect", dialect).Msg("checking schema")

	provider, err := goose.NewProvider(goose.Dialect(dialect), db, Migrations())
	if err != nil {
		log.Error().Err(err).Str("event", "db_migration_failed").Msg("cannot create migration provider")
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		ev := log.Info()
		if r.Error != nil {
			ev = log.Error().Err(r.Error)
		}
		ev.Str("event", "db_migration_step").
			Int64("version", r.Source.Version).
			Str("migration_step", r.Source.Path).
			Int64("step_duration_ms", r.Duration.Milliseconds()).
			Msg("migration applied")
	}
	if err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("migration failed")
		return fmt.Errorf("migrate up: %w", err)
	}

	if len(results) == 0 {
		log.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already up to date, skipping migration")
		return nil
	}

	log.Info().
		Str("event", "db_migration_success").
		Int("applied", len(results)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("schema migrated")
	return nil
}

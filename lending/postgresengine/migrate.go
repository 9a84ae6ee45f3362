package postgresengine

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrMigrationFailed is joined with the goose error when a schema migration fails.
var ErrMigrationFailed = errors.New("schema migration failed")

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// MigrateUp applies all pending schema migrations.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	return withGoose(func() error {
		return goose.UpContext(ctx, db, migrationsDir)
	})
}

// MigrateDown rolls back the most recent schema migration.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	return withGoose(func() error {
		return goose.DownContext(ctx, db, migrationsDir)
	})
}

// MigrationStatus logs the state of every migration through goose's logger.
func MigrationStatus(ctx context.Context, db *sql.DB) error {
	return withGoose(func() error {
		return goose.StatusContext(ctx, db, migrationsDir)
	})
}

// MigrateUpFromPGXPool applies all pending migrations through a database/sql view of the pool.
func MigrateUpFromPGXPool(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	return MigrateUp(ctx, db)
}

func withGoose(run func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialectPostgres); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}

	if err := run(); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}

	return nil
}

// Package migrations owns the on-disk schema.
//
// Every schema change is an embedded, forward-only goose SQL file. goose
// applies each file inside a single transaction and inserts the version row
// into goose_db_version in that same transaction, so a rebuild step
// (create shadow table, copy, drop, rename) is either fully applied or not at
// all. There are no down migrations.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
)

// FS embeds all SQL migration files in this directory.
//
//go:embed *.sql
var FS embed.FS

// ErrMigrationFailure is returned when a schema step could not be applied.
// Callers must not serve traffic after seeing it.
var ErrMigrationFailure = errors.New("schema migration failed")

// The embedded FS is flat, so goose looks at its root.
const dir = "."

// StepStatus describes one known migration and whether it has been applied.
type StepStatus struct {
	Version int64
	Name    string
	Applied bool
}

// Migrator applies the embedded migrations to a database handle.
type Migrator struct {
	db *sql.DB
}

// goose keeps its FS, dialect and logger in package state; set them once.
var (
	configureOnce sync.Once
	configureErr  error
)

// New configures goose for the embedded SQLite migrations.
func New(db *sql.DB) (*Migrator, error) {
	configureOnce.Do(func() {
		goose.SetBaseFS(FS)
		goose.SetLogger(log.Default())
		if err := goose.SetDialect("sqlite3"); err != nil {
			configureErr = fmt.Errorf("failed to set dialect: %w", err)
		}
	})
	if configureErr != nil {
		return nil, configureErr
	}
	return &Migrator{db: db}, nil
}

// Up applies every pending migration in order.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, dir); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailure, err)
	}
	return nil
}

// UpTo applies pending migrations up to and including version.
func (m *Migrator) UpTo(ctx context.Context, version int64) error {
	if err := goose.UpToContext(ctx, m.db, dir, version); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailure, err)
	}
	return nil
}

// Version returns the highest applied version, 0 for a fresh database.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Latest returns the version of the last embedded migration.
func (m *Migrator) Latest() (int64, error) {
	all, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to collect migrations: %w", err)
	}
	last, err := all.Last()
	if err != nil {
		return 0, fmt.Errorf("no migrations embedded: %w", err)
	}
	return last.Version, nil
}

// Status lists every embedded migration with its applied flag. Versions are
// strictly linear, so anything at or below the recorded version is applied.
func (m *Migrator) Status(ctx context.Context) ([]StepStatus, error) {
	all, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to collect migrations: %w", err)
	}
	current, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]StepStatus, 0, len(all))
	for _, migration := range all {
		statuses = append(statuses, StepStatus{
			Version: migration.Version,
			Name:    filepath.Base(migration.Source),
			Applied: migration.Version <= current,
		})
	}
	return statuses, nil
}

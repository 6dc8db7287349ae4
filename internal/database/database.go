package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/alaya/internal/database/migrations"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the SQLite file at dbPath and brings its schema up to
// date. A migration error is returned wrapped in migrations.ErrMigrationFailure
// and the connection is closed; callers must treat it as fatal.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(withBusyTimeout(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.Migrate(context.Background()); err != nil {
		database.Close()
		return nil, err
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

// Migrate applies all pending schema migrations.
func (d *Database) Migrate(ctx context.Context) error {
	migrator, err := d.Migrator()
	if err != nil {
		return err
	}
	return migrator.Up(ctx)
}

// Migrator returns a schema migrator bound to the underlying connection pool.
func (d *Database) Migrator() (*migrations.Migrator, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}
	return migrations.New(sqlDB)
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withBusyTimeout makes concurrent writers wait on the SQLite lock instead of
// failing immediately with SQLITE_BUSY.
func withBusyTimeout(dbPath string) string {
	if strings.Contains(dbPath, "_busy_timeout") {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_busy_timeout=5000"
}

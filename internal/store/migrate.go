package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	mysqlmigrate "github.com/golang-migrate/migrate/v4/database/mysql"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/raysh454/trimetric/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate moves the schema of db to targetVersion.
//   - targetVersion < 0 migrates to the latest version.
//   - targetVersion == 0 rolls every migration back.
//   - targetVersion > 0 migrates to exactly that version.
//
// The migrate instance is not closed: closing it would close db.
func Migrate(ctx context.Context, db *sql.DB, backend Backend, targetVersion int, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := migrateDriver(db, backend)
	if err != nil {
		return err
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(backend), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d; fix manually or force the version", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Debug("migrations up to date", logging.Field{Key: "version", Value: current})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate from version %d: %w", current, err)
	}

	next, _, _ := m.Version()
	logger.Info("migrated database",
		logging.Field{Key: "backend", Value: string(backend)},
		logging.Field{Key: "from", Value: current},
		logging.Field{Key: "to", Value: next})
	return nil
}

// MigrationVersion reports the applied version, or 0 when nothing is applied.
func MigrationVersion(db *sql.DB, backend Backend) (uint, bool, error) {
	driver, err := migrateDriver(db, backend)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := driver.Version()
	if err != nil {
		return 0, false, err
	}
	if v < 0 {
		return 0, dirty, nil
	}
	return uint(v), dirty, nil
}

func migrateDriver(db *sql.DB, backend Backend) (database.Driver, error) {
	var (
		driver database.Driver
		err    error
	)
	switch backend {
	case SQLite, "":
		driver, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	case Postgres:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	case MySQL:
		driver, err = mysqlmigrate.WithInstance(db, &mysqlmigrate.Config{})
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}
	return driver, nil
}

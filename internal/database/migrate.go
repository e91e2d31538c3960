package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"

	// File source driver so migrations load from the local directory.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the histories schema up to date from the SQL files
// in migrationsPath. golang-migrate tracks the applied version in the
// database itself, so running this on every startup is safe: an
// up-to-date schema is a no-op.
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	switch err := m.Up(); {
	case err == nil:
		version, dirty, _ := m.Version()
		slog.Info("schema migrated",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("schema already current")
	default:
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

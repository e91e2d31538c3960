// Package database provides connection setup for MariaDB and Redis.
// Connections are created once at startup (only for the configured history
// backend) and shared via dependency injection. This package owns the
// connection lifecycle (open, configure pool, ping, close).
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// MariaDB driver -- imported for side effect of registering the driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/liurenlab/liuren/internal/config"
)

// NewMariaDB opens the MariaDB pool for the history backend and verifies
// connectivity before returning it.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitForPing(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// waitForPing pings with exponential backoff. In a compose deployment the
// database container may accept connections after the app starts, so a
// failed first ping is retried rather than treated as fatal.
func waitForPing(db *sql.DB) error {
	const maxAttempts = 10
	backoff := time.Second

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < maxAttempts {
			slog.Warn("mariadb not ready, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.Any("error", err),
			)
			time.Sleep(backoff)
			backoff = min(backoff*2, 30*time.Second)
		}
	}
	return fmt.Errorf("pinging mariadb after %d attempts: %w", maxAttempts, err)
}

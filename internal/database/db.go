// Package database provides the message store: the ChatMessage model, the
// Store interface, a bounded in-memory implementation, and a SQLite
// implementation with embedded migrations.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/relaychat/internal/logger"
	"github.com/edgard/relaychat/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// busyTimeoutPragma makes concurrent writers wait instead of failing with
// SQLITE_BUSY while the single connection is held.
const busyTimeoutPragma = "_pragma=busy_timeout(5000)"

// OpenSQLite opens the message database at dsn, brings its schema up to date
// and returns the pool. A nil logger discards output.
func OpenSQLite(dsn string, log *slog.Logger) (*sqlx.DB, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "sqlite")

	db, err := sqlx.Connect("sqlite", withBusyTimeout(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open message database: %w", err)
	}
	// One connection: the store's insert-and-trim must not interleave.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrateUp(db.DB, sqliteFileName(dsn), log); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close message database after migration error", "error", closeErr)
		}
		return nil, err
	}

	log.Info("Message database ready", "path", sqliteFileName(dsn))
	return db, nil
}

// CloseSQLite closes db, logging rather than returning the error since it
// only runs on shutdown.
func CloseSQLite(db *sqlx.DB, log *slog.Logger) {
	if db == nil {
		return
	}
	if log == nil {
		log = logger.Discard()
	}
	if err := db.Close(); err != nil {
		log.Error("Failed to close message database", "component", "sqlite", "error", err)
	}
}

func migrateUp(db *sql.DB, name string, log *slog.Logger) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: name})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate message database: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Debug("Message schema current", "version", version, "dirty", dirty)
	return nil
}

// sqliteFileName reduces a DSN such as "file:relay.db?mode=rwc" to the file
// it names. In-memory databases map to "memory".
func sqliteFileName(dsn string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" || name == ":memory:" {
		return "memory"
	}
	return name
}

// withBusyTimeout appends the busy timeout pragma unless the DSN already
// sets one.
func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + busyTimeoutPragma
	}
	return dsn + "?" + busyTimeoutPragma
}

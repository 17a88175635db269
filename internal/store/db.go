package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/BL-Elavarasu/AttendanceReport/internal/config"
)

// DB wraps sql.DB together with the driver it was opened with.
type DB struct {
	Client *sql.DB
	Driver string
}

// Open connects the backend configured for a location.
func Open(loc config.Location) (*DB, error) {
	switch loc.Backend {
	case config.BackendPostgres:
		return OpenPostgres(loc.DatabaseURL)
	case config.BackendSQLite:
		return OpenSQLite(loc.DBPath)
	}
	return nil, fmt.Errorf("unknown backend %q", loc.Backend)
}

// OpenPostgres creates a Postgres connection with sane defaults.
func OpenPostgres(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db, Driver: config.BackendPostgres}, db.PingContext(context.Background())
}

// OpenSQLite opens (and creates if needed) a local database file.
func OpenSQLite(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The sqlite backend is for single-process local runs.
	db.SetMaxOpenConns(1)
	return &DB{Client: db, Driver: config.BackendSQLite}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Package sqlite is the reference, dev-mode implementation of the
// Preference Store and Persistent Cache external collaborators (§6):
// a single SQLite file, migrated with goose, read and written with
// database/sql and the mattn/go-sqlite3 driver.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config configures a DB.
type Config struct {
	DSN string // e.g. "file:reelsense.db?cache=shared&_fk=1" or ":memory:"
}

// DB wraps a migrated SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open creates the database file if needed and migrates it to the latest
// schema version.
func Open(cfg Config) (*DB, error) {
	conn, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1) // sqlite3 driver is not safe for concurrent writers

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Connection exposes the underlying *sql.DB for repository construction.
func (d *DB) Connection() *sql.DB { return d.conn }

// Close closes the connection.
func (d *DB) Close() error { return d.conn.Close() }

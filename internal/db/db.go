// Package db opens the service's SQLite database.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Config for opening the database.
type Config struct {
	Path string
}

// Open opens the SQLite database with foreign keys on. Use Path ":memory:"
// for tests.
func Open(cfg Config) (*sql.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "ivr-attendant.db"
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", path)
	if path == ":memory:" {
		// Private in-memory database. The single-connection pool below keeps
		// it alive for the lifetime of the handle.
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent API writes.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxIdleTime(0)
	return conn, nil
}

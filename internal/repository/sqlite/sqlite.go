// Package sqlite implements the repository interfaces on top of an in-process
// SQLite database.
//
// The store is opened against ":memory:" only, so it keeps the same volatile
// semantics as the memory backend: state resets when the process exits. What
// SQLite adds is a real query layer (ordered scans, constraints) for the same
// Snippet Store contract.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc.org/sqlite is a pure Go translation of the SQLite C code, so no C
// compiler needed, works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens the database and creates the schema.
//
// CONNECTION POOL:
// Every connection to ":memory:" gets its own private database, so the pool
// is pinned to a single connection. Otherwise a query could land on a fresh,
// empty database.
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool, discarding all data.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. The database is always fresh, so there is no
// version tracking.
//
// seq is the insertion counter; ordering by seq DESC yields the store
// sequence (newest first) regardless of the created_at values callers pass in.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			icon  TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating collections table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT NOT NULL UNIQUE,
			title         TEXT NOT NULL CHECK (title <> ''),
			description   TEXT NOT NULL DEFAULT '',
			code          TEXT NOT NULL CHECK (code <> ''),
			language      TEXT NOT NULL DEFAULT '',
			tags          TEXT NOT NULL DEFAULT '[]',
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL,
			is_pinned     INTEGER NOT NULL DEFAULT 0,
			is_favorite   INTEGER NOT NULL DEFAULT 0,
			views         INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0),
			explanation   TEXT NOT NULL DEFAULT '',
			collection_id TEXT REFERENCES collections(id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	return nil
}

// Package sqlite implements repository.HardshipRepository on SQLite.
//
// WHY SQLITE?
// The server variant keeps its records in process memory by default. Setting
// STORE_DRIVER=sqlite swaps in this package instead, so the board survives a
// restart without running a separate database server.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// compiler, cross-compiles like any other Go package.
//
// SCHEMA:
//
//	hardships          one row per record
//	hardship_comments  comments, ordered by (hardship_id, position)
//	hardship_likes     the like set, one row per (hardship_id, viewer_id)
//
// Timestamps are stored as RFC 3339 text in UTC so they read back exactly.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository methods.
type DB struct {
	conn *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx, so read helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/hardships.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// Every connection to ":memory:" is its own empty database, and SQLite
	// serializes writers anyway. A single pooled connection keeps tests and
	// production on the same code path.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default; comments and likes cascade with their parent.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it idempotent.
//
// AUTOINCREMENT (not just INTEGER PRIMARY KEY) stops SQLite from handing out
// the id of a deleted newest row again.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS hardships (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL,
			text        TEXT NOT NULL,
			category    TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			last_edited TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_hardships_category ON hardships(category);
		CREATE INDEX IF NOT EXISTS idx_hardships_user_id ON hardships(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating hardships table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS hardship_comments (
			hardship_id INTEGER NOT NULL REFERENCES hardships(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			id          INTEGER NOT NULL,
			text        TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			PRIMARY KEY (hardship_id, position)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating hardship_comments table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS hardship_likes (
			hardship_id INTEGER NOT NULL REFERENCES hardships(id) ON DELETE CASCADE,
			viewer_id   INTEGER NOT NULL,
			PRIMARY KEY (hardship_id, viewer_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating hardship_likes table: %w", err)
	}

	return nil
}

// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. For a
// personal tracker that serves one household's worth of traffic, that is the
// whole operational story.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler at build time and
// painful cross-compilation. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init(). We never reference the package directly.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces
// (GoalRepository, TaskRepository, UserRepository) against it.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open only sets up the pool — Ping forces a real connection so a
	// bad path or permissions problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — important
	// once the recurrence materializer writes while requests are reading.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the goal/task association
	// tables depend on them.
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

// migrate creates the schema. CREATE TABLE IF NOT EXISTS makes this safe to
// run on every start; for anything fancier you'd reach for golang-migrate.
//
// SCHEMA NOTES:
//   - goal_completions: one row per goal per bucket date. The composite
//     primary key is what lets SetCompletion upsert atomically with
//     ON CONFLICT instead of select-then-insert.
//   - tasks: composite primary key (id, date) — rows sharing an id are
//     occurrences of the same recurring task on different days.
//   - recurrences: up to seven weekday rows per task id.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS goals (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			frequency   TEXT NOT NULL,
			quantity    INTEGER NOT NULL DEFAULT 1,
			category    TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_goals_user_id ON goals(user_id);

		CREATE TABLE IF NOT EXISTS goal_completions (
			goal_id   TEXT NOT NULL REFERENCES goals(id),
			date      TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (goal_id, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating goals tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT NOT NULL,
			date        TEXT NOT NULL,
			user_id     TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed   INTEGER NOT NULL DEFAULT 0,
			category    TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id, date)
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date);

		CREATE TABLE IF NOT EXISTS recurrences (
			task_id TEXT NOT NULL,
			weekday TEXT NOT NULL,
			PRIMARY KEY (task_id, weekday)
		);
		CREATE INDEX IF NOT EXISTS idx_recurrences_weekday ON recurrences(weekday);

		CREATE TABLE IF NOT EXISTS goal_tasks (
			goal_id TEXT NOT NULL REFERENCES goals(id),
			task_id TEXT NOT NULL,
			PRIMARY KEY (goal_id, task_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks tables: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back on
// error. The multi-statement sequences in this package (goal delete cascade,
// recurrence rewrite, link reconciliation) all go through here so a failure
// partway through never leaves orphaned rows.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		// Rollback error is secondary — the fn error is the one that matters.
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

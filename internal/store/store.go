package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, drv: entsql.OpenDB(dialect.SQLite, db), seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// AttemptRepo returns an AttemptRepo backed by this store.
func (s *Store) AttemptRepo() AttemptRepo {
	return &attemptRepo{drv: s.drv, seq: s.seq}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{drv: s.drv, seq: s.seq}
}

// applyPragmas configures SQLite for single-user use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS attempts (
		id            TEXT PRIMARY KEY,
		seq           INTEGER NOT NULL,
		user_id       TEXT NOT NULL,
		target_major  TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		trigger_kind  TEXT NOT NULL DEFAULT '',
		answered      INTEGER NOT NULL DEFAULT 0,
		total         INTEGER NOT NULL DEFAULT 0,
		duration_secs INTEGER NOT NULL DEFAULT 0,
		receipt_id    TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		answered_ids  TEXT NOT NULL DEFAULT '[]',
		final_score   INTEGER NOT NULL DEFAULT 0,
		readiness     TEXT NOT NULL DEFAULT '',
		started_at    DATETIME NOT NULL,
		finished_at   DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_user_started ON attempts (user_id, started_at)`,
	`CREATE TABLE IF NOT EXISTS attempt_events (
		sequence   INTEGER PRIMARY KEY,
		attempt_id TEXT NOT NULL REFERENCES attempts (id) ON DELETE CASCADE,
		timestamp  DATETIME NOT NULL,
		action     TEXT NOT NULL,
		trigger_kind TEXT NOT NULL DEFAULT '',
		answered   INTEGER NOT NULL DEFAULT 0,
		message    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS attempt_events_attempt ON attempt_events (attempt_id)`,
}

// addedColumns are attempts columns that databases created by older
// releases lack.
var addedColumns = []struct{ name, def string }{
	{"answered_ids", `TEXT NOT NULL DEFAULT '[]'`},
	{"final_score", `INTEGER NOT NULL DEFAULT 0`},
	{"readiness", `TEXT NOT NULL DEFAULT ''`},
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	existing, err := tableColumns(ctx, db, attemptsTable)
	if err != nil {
		return err
	}
	for _, c := range addedColumns {
		if existing[c.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", attemptsTable, c.name, c.def)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", c.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PRODIPLAN_DB environment variable
// 2. $XDG_DATA_HOME/prodiplan/prodiplan.db
// 3. ~/.local/share/prodiplan/prodiplan.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PRODIPLAN_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "prodiplan", "prodiplan.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Package sqlite is an embedded, file- or memory-backed implementation of
// storage.Store built on modernc.org/sqlite. It backs the demo mode and the
// unit tests of every package above the store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/oilfield-ai/drillquery/internal/storage"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS wells (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	block         TEXT NOT NULL DEFAULT '',
	target_depth  REAL NOT NULL DEFAULT 0,
	spud_date     TEXT,
	status        TEXT NOT NULL DEFAULT 'Active',
	well_type     TEXT NOT NULL DEFAULT '',
	team          TEXT NOT NULL DEFAULT '',
	rig           TEXT NOT NULL DEFAULT '',
	owner_user_id TEXT,
	owner_email   TEXT
);
CREATE TABLE IF NOT EXISTS daily_reports (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	well_id           TEXT NOT NULL REFERENCES wells (id) ON DELETE CASCADE,
	report_date       TEXT NOT NULL,
	report_no         INTEGER NOT NULL DEFAULT 0,
	current_depth     REAL NOT NULL DEFAULT 0,
	progress          REAL NOT NULL DEFAULT 0,
	mud_density       REAL NOT NULL DEFAULT 0,
	mud_viscosity     REAL NOT NULL DEFAULT 0,
	mud_ph            REAL NOT NULL DEFAULT 0,
	avg_rop           REAL NOT NULL DEFAULT 0,
	bit_number        INTEGER NOT NULL DEFAULT 0,
	operation_summary TEXT NOT NULL DEFAULT '',
	next_plan         TEXT NOT NULL DEFAULT '',
	UNIQUE (well_id, report_date)
);
CREATE INDEX IF NOT EXISTS idx_daily_reports_well_date ON daily_reports (well_id, report_date);
CREATE TABLE IF NOT EXISTS npt_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id   INTEGER NOT NULL REFERENCES daily_reports (id) ON DELETE CASCADE,
	category    TEXT NOT NULL,
	duration    REAL NOT NULL DEFAULT 0,
	severity    TEXT NOT NULL DEFAULT 'Low',
	description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS casing_programs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	well_id    TEXT NOT NULL REFERENCES wells (id) ON DELETE CASCADE,
	run_number INTEGER NOT NULL,
	run_date   TEXT,
	size       REAL NOT NULL,
	shoe_depth REAL NOT NULL,
	cement_top REAL NOT NULL DEFAULT 0,
	UNIQUE (well_id, run_number)
);
`

// Store implements storage.Store and storage.Seeder over SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Seeder = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies the
// schema. Use MemoryPath for a throwaway database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory for %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// OpenDemo opens path and loads the demo fixtures.
func OpenDemo(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	s, err := Open(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Seed(ctx, storage.DemoFixtures()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

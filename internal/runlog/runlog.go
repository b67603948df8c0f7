// Package runlog persists checklist runs to SQLite so hosts keep a local
// history of their readiness over time.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"benchenv/internal/config"
	"benchenv/internal/preflight"
)

// Timestamps are stored fixed-width so lexicographic ORDER BY and range
// comparisons match chronological order. RFC3339Nano is unsuitable: it
// drops trailing fractional zeros.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded checklist execution.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  string
	Passed    int
	Failed    int
	Results   []preflight.Result
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "runs.db"))
}

// OpenPath opens the database at an explicit path and applies the schema.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    duration TEXT NOT NULL,
    passed INTEGER NOT NULL,
    failed INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_results (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    passed INTEGER NOT NULL,
    optional INTEGER NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Record persists a checklist summary and returns the new run ID.
func (s *Store) Record(ctx context.Context, summary preflight.Summary) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration, passed, failed) VALUES (?, ?, ?, ?, ?)`,
		runID,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.Duration,
		summary.Passed(),
		summary.Failed(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for position, result := range summary.Results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_results (run_id, position, name, passed, optional, detail) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, position, result.Name, boolToInt(result.Passed), boolToInt(result.Optional), result.Detail,
		)
		if err != nil {
			return "", fmt.Errorf("insert result %q: %w", result.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// Recent returns the most recent runs, newest first, without per-check
// results. Use Results to hydrate an individual run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration, passed, failed FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(&run.ID, &startedAt, &run.Duration, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the per-check results of a run in execution order.
func (s *Store) Results(ctx context.Context, runID string) ([]preflight.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, passed, optional, detail FROM run_results WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []preflight.Result
	for rows.Next() {
		var result preflight.Result
		var passed, optional int
		if err := rows.Scan(&result.Name, &passed, &optional, &result.Detail); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		result.Passed = passed != 0
		result.Optional = optional != 0
		results = append(results, result)
	}
	return results, rows.Err()
}

// Prune deletes runs older than the cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ?`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// Package history records finished matrix runs in a SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flatsurf/flatci/internal/results"
)

// Run summarizes one recorded run.
type Run struct {
	ID        string
	Name      string
	Branch    string
	Commit    string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Rows      []RowOutcome
}

// RowOutcome is the stored outcome of one row.
type RowOutcome struct {
	Name        string
	Status      results.Status
	FailedPhase string
	Duration    time.Duration
}

// OK reports whether every row of the run passed.
func (r Run) OK() bool { return r.Failed == 0 }

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		branch TEXT,
		commit_sha TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS run_rows (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		failed_phase TEXT,
		duration_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create history tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a results file as one run.
func (s *Store) Record(f *results.File) error {
	startedAt, err := time.Parse(time.RFC3339, f.GeneratedAt)
	if err != nil {
		return fmt.Errorf("parsing generated_at: %w", err)
	}
	passed, failed := 0, 0
	for _, name := range f.Order {
		if f.Rows[name].Status == results.StatusFailed {
			failed++
		} else {
			passed++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(`INSERT INTO runs (id, name, branch, commit_sha, started_at, duration_ms, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.Name, f.Source.Branch, f.Source.Commit, startedAt.Unix(), f.Duration.Milliseconds(), passed, failed)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", f.RunID, err)
	}
	for i, name := range f.Order {
		r := f.Rows[name]
		_, err = tx.Exec(`INSERT INTO run_rows (run_id, position, name, status, failed_phase, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			f.RunID, i, name, string(r.Status), r.FailedPhase, r.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("inserting row %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Run, error) {
	query := `SELECT id, name, branch, commit_sha, started_at, duration_ms, passed, failed
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var branch, commit sql.NullString
		var started, durMS int64
		if err := rows.Scan(&r.ID, &r.Name, &branch, &commit, &started, &durMS, &r.Passed, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Branch, r.Commit = branch.String, commit.String
		r.StartedAt = time.Unix(started, 0).UTC()
		r.Duration = time.Duration(durMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		outcomes, err := s.rowsOf(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Rows = outcomes
	}
	return runs, nil
}

func (s *Store) rowsOf(runID string) ([]RowOutcome, error) {
	rows, err := s.db.Query(`SELECT name, status, failed_phase, duration_ms
		FROM run_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying rows of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []RowOutcome
	for rows.Next() {
		var o RowOutcome
		var status string
		var phase sql.NullString
		var durMS int64
		if err := rows.Scan(&o.Name, &status, &phase, &durMS); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		o.Status = results.Status(status)
		o.FailedPhase = phase.String
		o.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, o)
	}
	return out, rows.Err()
}

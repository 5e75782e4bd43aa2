// Package runstore keeps a SQLite journal of supervised run sessions.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is one journal entry.
type Run struct {
	ID         string     `json:"id"`
	Executable string     `json:"executable"`
	StudyPath  string     `json:"study_path"`
	StudyName  string     `json:"study_name"`
	StartedAt  time.Time  `json:"started_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	PausedFor  float64    `json:"paused_seconds"`
	RunDir     string     `json:"run_dir,omitempty"`
	Rows       int        `json:"rows"`
	Feasible   int        `json:"feasible"`
}

// Store is a SQLite-backed run journal.
type Store struct {
	db *sql.DB
}

// New opens (and creates) the journal at dbPath. ":memory:" keeps the
// journal in memory.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		executable TEXT NOT NULL,
		study_path TEXT NOT NULL,
		study_name TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		stopped_at INTEGER,
		stop_reason TEXT,
		exit_code INTEGER,
		paused_seconds REAL NOT NULL DEFAULT 0,
		run_dir TEXT NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		feasible_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate run journal: %w", err)
	}
	return nil
}

// Begin records a new run.
func (s *Store) Begin(run Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, executable, study_path, study_name, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Executable, run.StudyPath, run.StudyName, run.StartedAt.UnixMilli(),
	)
	return err
}

// SetRunDir records the directory a run writes into.
func (s *Store) SetRunDir(id, dir string) error {
	return s.exec(id, `UPDATE runs SET run_dir = ? WHERE id = ?`, dir, id)
}

// Progress records the latest history row counts of a run.
func (s *Store) Progress(id string, rows, feasible int) error {
	return s.exec(id, `UPDATE runs SET row_count = ?, feasible_count = ? WHERE id = ?`, rows, feasible, id)
}

// Finish marks a run as stopped. exitCode is nil when the process was
// killed or its status is unknown.
func (s *Store) Finish(id string, stoppedAt time.Time, reason string, exitCode *int, paused time.Duration) error {
	var code sql.NullInt64
	if exitCode != nil {
		code = sql.NullInt64{Int64: int64(*exitCode), Valid: true}
	}
	return s.exec(id,
		`UPDATE runs SET stopped_at = ?, stop_reason = ?, exit_code = ?, paused_seconds = ? WHERE id = ?`,
		stoppedAt.UnixMilli(), reason, code, paused.Seconds(), id,
	)
}

func (s *Store) exec(id, query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const selectRuns = `SELECT id, executable, study_path, study_name, started_at, stopped_at,
	stop_reason, exit_code, paused_seconds, run_dir, row_count, feasible_count FROM runs`

// Get returns a run by id.
func (s *Store) Get(id string) (*Run, error) {
	row := s.db.QueryRow(selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// List returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) List(limit int) ([]Run, error) {
	query := selectRuns + ` ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run       Run
		startedAt int64
		stoppedAt sql.NullInt64
		reason    sql.NullString
		exitCode  sql.NullInt64
	)
	err := sc.Scan(
		&run.ID, &run.Executable, &run.StudyPath, &run.StudyName, &startedAt, &stoppedAt,
		&reason, &exitCode, &run.PausedFor, &run.RunDir, &run.Rows, &run.Feasible,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.UnixMilli(startedAt)
	if stoppedAt.Valid {
		t := time.UnixMilli(stoppedAt.Int64)
		run.StoppedAt = &t
	}
	if reason.Valid {
		run.StopReason = reason.String
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		run.ExitCode = &code
	}
	return &run, nil
}

// Package store persists batch runs and their per-replicate results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/biofilm-sim/biofilm-sim/sim"
	"github.com/biofilm-sim/biofilm-sim/sim/batch"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// ErrRunNotFound is returned when a run id has no stored row.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT    NOT NULL,
	seed       INTEGER NOT NULL,
	duration   REAL    NOT NULL,
	replicates INTEGER NOT NULL,
	model      TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id        INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	replicate     INTEGER NOT NULL,
	edge          INTEGER NOT NULL,
	deaths        INTEGER NOT NULL,
	detachments   INTEGER NOT NULL,
	immigrations  INTEGER NOT NULL,
	replications  INTEGER NOT NULL,
	migrations    INTEGER NOT NULL,
	exit_time     REAL    NOT NULL,
	thickness     INTEGER NOT NULL,
	population    INTEGER NOT NULL,
	reached_limit INTEGER NOT NULL,
	steps         INTEGER NOT NULL,
	leap_retries  INTEGER NOT NULL,
	PRIMARY KEY (run_id, replicate)
);`

// Run describes one stored batch.
type Run struct {
	ID         int64
	CreatedAt  time.Time
	Seed       int64
	Duration   float64
	Replicates int
	Model      sim.Config
}

// Store is a SQLite-backed archive of batch results. It is safe for
// concurrent use through database/sql.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path, creating parent directories
// and the schema as needed. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("open store: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores a batch and all of its results in one transaction and
// returns the new run id.
func (s *Store) SaveRun(ctx context.Context, cfg batch.RunConfig, results []batch.Result) (int64, error) {
	model, err := json.Marshal(cfg.Model)
	if err != nil {
		return 0, fmt.Errorf("encode model: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, seed, duration, replicates, model) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), cfg.Seed, cfg.Duration, len(results), string(model))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (
		run_id, replicate, edge, deaths, detachments, immigrations, replications, migrations,
		exit_time, thickness, population, reached_limit, steps, leap_retries
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		c := r.Counters
		if _, err := stmt.ExecContext(ctx,
			runID, r.Replicate, r.Edge, c.Deaths, c.Detachments, c.Immigrations, c.Replications, c.Migrations,
			r.ExitTime, r.Thickness, r.Population, r.ReachedLimit, r.Steps, r.LeapRetries,
		); err != nil {
			return 0, fmt.Errorf("insert replicate %d: %w", r.Replicate, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Run loads the metadata of one stored batch.
func (s *Store) Run(ctx context.Context, id int64) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, seed, duration, replicates, model FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return run, err
}

// Runs lists every stored batch, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, seed, duration, replicates, model FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Results loads the replicates of a stored batch ordered by replicate index.
// Snapshot traces are not stored.
func (s *Store) Results(ctx context.Context, runID int64) ([]batch.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		replicate, edge, deaths, detachments, immigrations, replications, migrations,
		exit_time, thickness, population, reached_limit, steps, leap_retries
	FROM results WHERE run_id = ? ORDER BY replicate`, runID)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []batch.Result
	for rows.Next() {
		var r batch.Result
		c := &r.Counters
		if err := rows.Scan(
			&r.Replicate, &r.Edge, &c.Deaths, &c.Detachments, &c.Immigrations, &c.Replications, &c.Migrations,
			&r.ExitTime, &r.Thickness, &r.Population, &r.ReachedLimit, &r.Steps, &r.LeapRetries,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run     Run
		created string
		model   string
	)
	if err := sc.Scan(&run.ID, &created, &run.Seed, &run.Duration, &run.Replicates, &model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	run.CreatedAt = t
	if err := json.Unmarshal([]byte(model), &run.Model); err != nil {
		return Run{}, fmt.Errorf("decode model: %w", err)
	}
	return run, nil
}

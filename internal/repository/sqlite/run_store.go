// Package sqlite keeps batch run results in a local SQLite file so offline
// bot matches need no database server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/freeeve/salvo/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	batch_id    TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	size        INTEGER NOT NULL,
	fleet       TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	moves       INTEGER NOT NULL,
	won         INTEGER NOT NULL,
	layout      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_batch ON runs (batch_id);
`

// RunStore is a RunRepository backed by SQLite.
type RunStore struct {
	db *sql.DB
}

// NewRunStore opens a SQLite database and runs migrations.
func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; botmatch saves from many goroutines.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &RunStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts one finished run.
func (s *RunStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, batch_id, strategy, size, fleet, seed, moves, won, layout, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.BatchID, run.Strategy, run.Size, run.Fleet, run.Seed, run.Moves, run.Won,
		run.Layout, run.DurationMs, run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// ListRuns returns every run of a batch in insertion order.
func (s *RunStore) ListRuns(ctx context.Context, batchID string) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, strategy, size, fleet, seed, moves, won, layout, duration_ms, created_at
		 FROM runs WHERE batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var created string
		if err := rows.Scan(&run.ID, &run.BatchID, &run.Strategy, &run.Size, &run.Fleet, &run.Seed,
			&run.Moves, &run.Won, &run.Layout, &run.DurationMs, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

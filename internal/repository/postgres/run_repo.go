package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/salvo/internal/model"
)

// RunRepo stores bot batch runs.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// SaveRun inserts one finished run.
func (r *RunRepo) SaveRun(ctx context.Context, run *model.Run) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO runs (id, batch_id, strategy, size, fleet, seed, moves, won, layout, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		run.ID, run.BatchID, run.Strategy, run.Size, run.Fleet, run.Seed, run.Moves, run.Won, run.Layout, run.DurationMs,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// ListRuns returns every run of a batch in insertion order.
func (r *RunRepo) ListRuns(ctx context.Context, batchID string) ([]model.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, batch_id, strategy, size, fleet, seed, moves, won, layout, duration_ms, created_at
		 FROM runs WHERE batch_id = $1 ORDER BY created_at, id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]model.Run, error) {
	var runs []model.Run
	for rows.Next() {
		var run model.Run
		if err := rows.Scan(&run.ID, &run.BatchID, &run.Strategy, &run.Size, &run.Fleet, &run.Seed,
			&run.Moves, &run.Won, &run.Layout, &run.DurationMs, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

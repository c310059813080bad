package postgres

import (
	"context"
	"fmt"

	"github.com/freeeve/salvo/internal/model"
)

// SaveShot appends a shot and bumps the game's move counter in one
// transaction.
func (r *GameRepo) SaveShot(ctx context.Context, shot *model.Shot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO shots (game_id, seq, row, col, result)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		shot.GameID, shot.Seq, shot.Row, shot.Col, shot.Result,
	).Scan(&shot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert shot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET moves = $1 WHERE id = $2`, shot.Seq, shot.GameID); err != nil {
		return fmt.Errorf("update moves: %w", err)
	}
	return tx.Commit()
}

// ListShots returns a game's shots in firing order.
func (r *GameRepo) ListShots(ctx context.Context, gameID string) ([]model.Shot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, seq, row, col, result, created_at
		 FROM shots WHERE game_id = $1 ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list shots: %w", err)
	}
	defer rows.Close()

	var shots []model.Shot
	for rows.Next() {
		var s model.Shot
		if err := rows.Scan(&s.GameID, &s.Seq, &s.Row, &s.Col, &s.Result, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shot: %w", err)
		}
		shots = append(shots, s)
	}
	return shots, rows.Err()
}

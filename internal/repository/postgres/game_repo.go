package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/salvo/internal/model"
)

// GameRepo handles game and shot database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

const gameColumns = `id, creator_id, status, size, fleet, adjacency, seed, layout, moves, created_at, finished_at`

func scanGame(row interface{ Scan(...any) error }, g *model.Game) error {
	return row.Scan(&g.ID, &g.CreatorID, &g.Status, &g.Size, &g.Fleet, &g.Adjacency, &g.Seed,
		&g.Layout, &g.Moves, &g.CreatedAt, &g.FinishedAt)
}

// Create inserts a new game. The caller supplies the ID; status and
// creation time are filled in from the database.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (id, creator_id, size, fleet, adjacency, seed, layout)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING status, created_at`,
		g.ID, g.CreatorID, g.Size, g.Fleet, g.Adjacency, g.Seed, g.Layout,
	).Scan(&g.Status, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// FindByID returns a game by ID, or nil when it does not exist.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	err := scanGame(r.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, id), &g)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	return &g, nil
}

// ListByUser returns the games a user created, newest first.
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE creator_id = $1 ORDER BY created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("list games by user: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := scanGame(rows, &g); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// SetFinished marks a game finished with its final move count.
func (r *GameRepo) SetFinished(ctx context.Context, gameID string, moves int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', moves = $1, finished_at = now() WHERE id = $2`,
		moves, gameID)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a game and its shots.
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/internal/repository"
	"github.com/freeeve/salvo/pkg/battleship"
)

// ArenaConfig configures a single bot game against a generated board.
type ArenaConfig struct {
	BatchID    string
	Difficulty string
	Size       int
	Fleet      battleship.Fleet
	Adjacency  bool  // allow ships to touch
	Seed       int64 // 0 = random
	DryRun     bool  // skip run persistence
}

// ArenaResult describes the outcome of a completed arena game.
type ArenaResult struct {
	RunID    string
	Strategy string
	Seed     int64
	Moves    int
	Won      bool
	Layout   string
	Duration time.Duration
}

// RunGame generates a board and lets the configured strategy shoot at it
// until the fleet is sunk. Pass a nil repo for dry-run mode.
func RunGame(ctx context.Context, cfg ArenaConfig, runs repository.RunRepository) (*ArenaResult, error) {
	if cfg.Size == 0 {
		cfg.Size = battleship.DefaultSize
	}
	if len(cfg.Fleet) == 0 {
		cfg.Fleet = battleship.DefaultFleet
	}
	if err := cfg.Fleet.Validate(cfg.Size); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = botInt63()
	}

	rng := NewRand(cfg.Seed)
	board, err := battleship.Generate(cfg.Fleet, cfg.Size, cfg.Adjacency, rng)
	if err != nil {
		return nil, fmt.Errorf("generate board: %w", err)
	}
	var strategy Strategy
	if cfg.Difficulty == "random" {
		// Parallel games must not share the package source.
		strategy = newRandomStrategy(cfg.Size, rng.Shuffle)
	} else {
		strategy = StrategyForDifficulty(cfg.Difficulty, cfg.Size, cfg.Fleet)
	}

	start := time.Now()
	moves, err := Play(ctx, strategy, board)
	if err != nil {
		return nil, fmt.Errorf("seed %d (%s): %w", cfg.Seed, strategy.Name(), err)
	}

	result := &ArenaResult{
		RunID:    uuid.NewString(),
		Strategy: strategy.Name(),
		Seed:     cfg.Seed,
		Moves:    moves,
		Won:      board.Remaining() == 0,
		Layout:   battleship.EncodeLayout(board.Layout()),
		Duration: time.Since(start),
	}

	if !cfg.DryRun && runs != nil {
		run := &model.Run{
			ID:         result.RunID,
			BatchID:    cfg.BatchID,
			Strategy:   result.Strategy,
			Size:       cfg.Size,
			Fleet:      cfg.Fleet.String(),
			Seed:       cfg.Seed,
			Moves:      result.Moves,
			Won:        result.Won,
			Layout:     result.Layout,
			DurationMs: result.Duration.Milliseconds(),
		}
		if err := runs.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	log.Debug().Str("strategy", result.Strategy).Int64("seed", cfg.Seed).Int("moves", moves).Msg("Arena game finished")
	return result, nil
}

// Play drives s against b until every ship is sunk, feeding each result back
// to s. It returns the number of moves fired.
func Play(ctx context.Context, s Strategy, b *battleship.Board) (int, error) {
	limit := b.Size() * b.Size()
	for !b.Finished() {
		if err := ctx.Err(); err != nil {
			return b.Moves(), err
		}
		if b.Moves() >= limit {
			return b.Moves(), fmt.Errorf("fleet still afloat after %d moves", b.Moves())
		}
		c, err := s.NextShot()
		if err != nil {
			return b.Moves(), err
		}
		res, err := b.Move(c.Row, c.Col)
		if errors.Is(err, battleship.ErrAlreadyShot) {
			return b.Moves(), fmt.Errorf("%s repeated %s: %w", s.Name(), c, err)
		}
		if err != nil {
			return b.Moves(), err
		}
		if err := s.Observe(c, res); err != nil {
			return b.Moves(), fmt.Errorf("observe %s %s: %w", c, res, err)
		}
	}
	return b.Moves(), nil
}

package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/pkg/battleship"
)

// Orchestrator plays one game against a remote server: it creates the game,
// picks shots locally with its strategy, and fires them over HTTP.
type Orchestrator struct {
	client     *Client
	opts       GameOptions
	difficulty string
	strategy   Strategy
	delay      time.Duration
}

// NewOrchestrator creates a new Orchestrator. difficulty selects the local
// strategy; "server" delegates every shot to the server's autoplay.
func NewOrchestrator(client *Client, opts GameOptions, difficulty string, delay time.Duration) *Orchestrator {
	return &Orchestrator{client: client, opts: opts, difficulty: difficulty, delay: delay}
}

// Run executes a full game: login, create game, subscribe, play loop.
func (o *Orchestrator) Run(ctx context.Context) (string, int, error) {
	if err := o.client.Login(); err != nil {
		return "", 0, fmt.Errorf("login %s: %w", o.client.Name(), err)
	}
	gameID, err := o.client.CreateGame(o.opts)
	if err != nil {
		return "", 0, fmt.Errorf("create game: %w", err)
	}
	log.Info().Str("gameId", gameID).Msg("Game created")

	if o.difficulty != "server" {
		// The server's rules fill in whatever opts left out.
		info, err := o.client.GetGame(gameID)
		if err != nil {
			return gameID, 0, fmt.Errorf("get game: %w", err)
		}
		o.strategy = StrategyForDifficulty(o.difficulty, info.Size, info.Fleet)
	}

	if err := o.client.ConnectWS(); err != nil {
		return gameID, 0, fmt.Errorf("ws connect: %w", err)
	}
	defer o.client.CloseWS()
	if err := o.client.SubscribeGame(gameID); err != nil {
		return gameID, 0, fmt.Errorf("ws subscribe: %w", err)
	}

	moves, err := o.playLoop(ctx, gameID)
	if err != nil {
		return gameID, moves, err
	}

	event, err := o.waitForEvent(ctx, "game_ended")
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("No game_ended event")
		return gameID, moves, nil
	}
	log.Info().Str("gameId", gameID).Interface("data", event.Data).Msg("Game ended")
	return gameID, moves, nil
}

// playLoop fires until the server reports the fleet sunk.
func (o *Orchestrator) playLoop(ctx context.Context, gameID string) (int, error) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping bot")
			return 0, ctx.Err()
		default:
		}

		var (
			cell battleship.Cell
			out  ShotOutcome
			err  error
		)
		if o.strategy == nil {
			cell, out, err = o.client.Autoplay(gameID)
			if err != nil {
				return 0, fmt.Errorf("autoplay: %w", err)
			}
		} else {
			cell, err = o.strategy.NextShot()
			if err != nil {
				return 0, err
			}
			out, err = o.client.Fire(gameID, cell)
			if err != nil {
				return 0, fmt.Errorf("fire %s: %w", cell, err)
			}
			if err := o.strategy.Observe(cell, out.Result); err != nil {
				return out.Moves, fmt.Errorf("observe %s: %w", cell, err)
			}
		}
		log.Debug().Str("cell", cell.String()).Str("result", out.Result.String()).Int("moves", out.Moves).Msg("Shot fired")

		if out.Finished {
			return out.Moves, nil
		}
		if o.delay > 0 {
			time.Sleep(o.delay)
		}
	}
}

// waitForEvent blocks until one of the given event types is received or context cancels.
func (o *Orchestrator) waitForEvent(ctx context.Context, eventTypes ...string) (WSEvent, error) {
	typeSet := make(map[string]bool)
	for _, t := range eventTypes {
		typeSet[t] = true
	}

	timeout := time.After(10 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return WSEvent{}, ctx.Err()
		case <-timeout:
			return WSEvent{}, fmt.Errorf("timeout waiting for events %v", eventTypes)
		case event, ok := <-o.client.Events():
			if !ok {
				return WSEvent{}, fmt.Errorf("ws connection closed")
			}
			if typeSet[event.Type] {
				return event, nil
			}
			log.Debug().Str("type", event.Type).Msg("Ignoring event")
		}
	}
}

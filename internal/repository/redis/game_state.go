package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/salvo/internal/model"
)

// Key patterns for Redis game state.
func boardKey(gameID string) string { return "game:" + gameID + ":board" }
func shotsKey(gameID string) string { return "game:" + gameID + ":shots" }

// SetLayout caches the hidden ship layout of a live game.
func (c *Client) SetLayout(ctx context.Context, gameID, layout string, size int) error {
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, boardKey(gameID), "layout", layout, "size", size)
	pipe.Expire(ctx, boardKey(gameID), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetLayout returns the cached layout, or an empty layout when the game is
// not cached.
func (c *Client) GetLayout(ctx context.Context, gameID string) (string, int, error) {
	vals, err := c.rdb.HGetAll(ctx, boardKey(gameID)).Result()
	if err == redis.Nil || (err == nil && len(vals) == 0) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("get layout: %w", err)
	}
	size, err := strconv.Atoi(vals["size"])
	if err != nil {
		return "", 0, fmt.Errorf("parse cached size %q: %w", vals["size"], err)
	}
	return vals["layout"], size, nil
}

// AppendShot pushes a shot onto the game's shot log.
func (c *Client) AppendShot(ctx context.Context, gameID string, shot model.Shot) error {
	data, err := json.Marshal(shot)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, shotsKey(gameID), data)
	pipe.Expire(ctx, shotsKey(gameID), c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Shots returns the shot log in firing order.
func (c *Client) Shots(ctx context.Context, gameID string) ([]model.Shot, error) {
	raw, err := c.rdb.LRange(ctx, shotsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get shots: %w", err)
	}
	shots := make([]model.Shot, 0, len(raw))
	for _, r := range raw {
		var s model.Shot
		if err := json.Unmarshal([]byte(r), &s); err != nil {
			return nil, fmt.Errorf("decode shot: %w", err)
		}
		shots = append(shots, s)
	}
	return shots, nil
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, boardKey(gameID), shotsKey(gameID)).Err()
}

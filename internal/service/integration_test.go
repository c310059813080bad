//go:build integration

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/internal/repository/postgres"
	redisrepo "github.com/freeeve/salvo/internal/repository/redis"
	"github.com/freeeve/salvo/internal/testutil"
	"github.com/freeeve/salvo/pkg/battleship"
)

// testEnv holds shared test infrastructure.
type testEnv struct {
	db       *sql.DB
	rdb      *goredis.Client
	userRepo *postgres.UserRepo
	gameRepo *postgres.GameRepo
	cache    *redisrepo.Client
}

var env *testEnv

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	if env == nil {
		db := testutil.SetupDB(t)
		rdb := testutil.SetupRedis(t)
		env = &testEnv{
			db:       db,
			rdb:      rdb,
			userRepo: postgres.NewUserRepo(db),
			gameRepo: postgres.NewGameRepo(db),
			cache:    redisrepo.NewClientFromPool(rdb),
		}
	}
	testutil.CleanupDB(t, env.db)
	testutil.CleanupRedis(t, env.rdb)
	return env
}

func createUser(t *testing.T, e *testEnv) *model.User {
	t.Helper()
	u, err := e.userRepo.Upsert(context.Background(), "test", "test-player", "Player", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// TestFullGameLifecycle plays a whole game through postgres and redis.
func TestFullGameLifecycle(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	u := createUser(t, e)

	svc := NewGameService(e.gameRepo, e.cache, testRules(), nil)
	g, err := svc.CreateGame(ctx, u.ID, CreateOptions{Seed: 11})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	layout, _, err := e.cache.GetLayout(ctx, g.ID)
	if err != nil || layout != g.Layout {
		t.Fatalf("cached layout %q, err %v", layout, err)
	}

	var out *ShotOutcome
	for !(out != nil && out.Finished) {
		if out, err = svc.Autoplay(ctx, u.ID, g.ID); err != nil {
			t.Fatalf("autoplay: %v", err)
		}
	}

	stored, err := e.gameRepo.FindByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("find game: %v", err)
	}
	if stored.Status != model.GameFinished || stored.Moves != out.Moves {
		t.Errorf("expected finished with %d moves, got %s with %d", out.Moves, stored.Status, stored.Moves)
	}
	shots, err := e.gameRepo.ListShots(ctx, g.ID)
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}
	if len(shots) != out.Moves {
		t.Errorf("expected %d shots, got %d", out.Moves, len(shots))
	}
	if layout, _, _ := e.cache.GetLayout(ctx, g.ID); layout != "" {
		t.Error("expected cache cleared after the game ended")
	}
}

// TestRestartRebuildsFromDatabase simulates a server restart with a cold cache.
func TestRestartRebuildsFromDatabase(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	u := createUser(t, e)

	svc := NewGameService(e.gameRepo, e.cache, testRules(), nil)
	g, err := svc.CreateGame(ctx, u.ID, CreateOptions{Seed: 3})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	first := ships(t, g)[0][0]
	if _, err := svc.Fire(ctx, u.ID, g.ID, first); err != nil {
		t.Fatalf("fire: %v", err)
	}
	testutil.CleanupRedis(t, e.rdb)

	restarted := NewGameService(e.gameRepo, e.cache, testRules(), nil)
	if _, err := restarted.Fire(ctx, u.ID, g.ID, first); !errors.Is(err, battleship.ErrAlreadyShot) {
		t.Fatalf("expected ErrAlreadyShot after restart, got %v", err)
	}
	sg, err := restarted.Suggest(ctx, g.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !sg.HitMode {
		t.Error("expected the rebuilt solver to be in hit mode")
	}
	shots, err := e.cache.Shots(ctx, g.ID)
	if err != nil || len(shots) != 1 {
		t.Errorf("expected cache refilled with 1 shot, got %d (err %v)", len(shots), err)
	}
}

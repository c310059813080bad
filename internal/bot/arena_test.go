package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/pkg/battleship"
)

type mockRunRepo struct {
	runs []model.Run
}

func (m *mockRunRepo) SaveRun(_ context.Context, run *model.Run) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockRunRepo) ListRuns(_ context.Context, batchID string) ([]model.Run, error) {
	var out []model.Run
	for _, r := range m.runs {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestRunGameDryRun(t *testing.T) {
	repo := &mockRunRepo{}
	cfg := ArenaConfig{Difficulty: "hard", Seed: 42, DryRun: true}

	result, err := RunGame(context.Background(), cfg, repo)
	if err != nil {
		t.Fatalf("RunGame failed: %v", err)
	}
	if !result.Won {
		t.Error("expected the fleet to be sunk")
	}
	if result.Strategy != "hard" || result.Seed != 42 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Moves < battleship.DefaultFleet.Total() || result.Moves > 100 {
		t.Errorf("implausible move count %d", result.Moves)
	}
	if len(repo.runs) != 0 {
		t.Errorf("dry run persisted %d runs", len(repo.runs))
	}
}

func TestRunGamePersistsRun(t *testing.T) {
	repo := &mockRunRepo{}
	cfg := ArenaConfig{
		BatchID:    "batch-1",
		Difficulty: "easy",
		Size:       6,
		Fleet:      battleship.NewFleet(3, 2),
		Adjacency:  true,
		Seed:       9,
	}

	result, err := RunGame(context.Background(), cfg, repo)
	if err != nil {
		t.Fatalf("RunGame failed: %v", err)
	}
	runs, _ := repo.ListRuns(context.Background(), "batch-1")
	if len(runs) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != result.RunID || run.Strategy != "easy" || run.Size != 6 || run.Fleet != "3,2" {
		t.Errorf("unexpected run %+v", run)
	}
	if run.Moves != result.Moves || !run.Won || run.Layout != result.Layout {
		t.Errorf("run does not match result: %+v vs %+v", run, result)
	}
}

func TestRunGameSeedIsReproducible(t *testing.T) {
	cfg := ArenaConfig{Difficulty: "hard", Size: 8, Fleet: battleship.NewFleet(4, 3, 2), Seed: 1234, DryRun: true}
	a, err := RunGame(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunGame(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Layout != b.Layout || a.Moves != b.Moves {
		t.Errorf("seed 1234 gave %s/%d then %s/%d", a.Layout, a.Moves, b.Layout, b.Moves)
	}
	if a.RunID == b.RunID {
		t.Error("run IDs must be unique")
	}
}

func TestRandomRunsReproducibleInParallel(t *testing.T) {
	cfg := ArenaConfig{Difficulty: "random", Size: 6, Fleet: battleship.NewFleet(3, 2), Seed: 77, DryRun: true}
	want, err := RunGame(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	moves := make(chan int, 8)
	for i := 0; i < 8; i++ {
		go func() {
			r, err := RunGame(context.Background(), cfg, nil)
			if err != nil {
				moves <- -1
				return
			}
			moves <- r.Moves
		}()
	}
	for i := 0; i < 8; i++ {
		if got := <-moves; got != want.Moves {
			t.Errorf("seed 77 random run took %d moves, want %d", got, want.Moves)
		}
	}
}

func TestRunGameRejectsBadFleet(t *testing.T) {
	cfg := ArenaConfig{Size: 4, Fleet: battleship.NewFleet(5), DryRun: true}
	if _, err := RunGame(context.Background(), cfg, nil); err == nil {
		t.Error("expected a 5-ship on a 4x4 board to be rejected")
	}
}

func TestPlayHonoursContext(t *testing.T) {
	board, err := battleship.Generate(battleship.DefaultFleet, battleship.DefaultSize, true, NewRand(3))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	moves, err := Play(ctx, NewSolver(battleship.DefaultSize, battleship.DefaultFleet), board)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if moves != 0 {
		t.Errorf("expected no moves, got %d", moves)
	}
}

// stuckStrategy always fires at the same cell.
type stuckStrategy struct{}

func (stuckStrategy) Name() string { return "stuck" }

func (stuckStrategy) NextShot() (battleship.Cell, error) { return battleship.Cell{}, nil }

func (stuckStrategy) Observe(battleship.Cell, battleship.Result) error { return nil }

func TestPlayReportsRepeatedShot(t *testing.T) {
	board, err := battleship.Generate(battleship.NewFleet(2), 4, true, NewRand(1))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Play(context.Background(), stuckStrategy{}, board)
	if !errors.Is(err, battleship.ErrAlreadyShot) {
		t.Errorf("expected ErrAlreadyShot, got %v", err)
	}
}

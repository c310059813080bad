package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/freeeve/salvo/internal/bot/hypothesis"
	"github.com/freeeve/salvo/pkg/battleship"
)

func TestSolverWinsDefaultBoards(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		board, err := battleship.Generate(battleship.DefaultFleet, battleship.DefaultSize, true, NewRand(seed))
		if err != nil {
			t.Fatalf("seed %d: generate: %v", seed, err)
		}
		s := NewSolver(battleship.DefaultSize, battleship.DefaultFleet)
		moves, err := Play(context.Background(), s, board)
		if err != nil {
			t.Fatalf("seed %d: play: %v", seed, err)
		}
		if board.Remaining() != 0 {
			t.Errorf("seed %d: %d ship cells left", seed, board.Remaining())
		}
		if !s.Won() {
			t.Errorf("seed %d: solver does not consider the game won", seed)
		}
		if moves > 100 || moves < battleship.DefaultFleet.Total() {
			t.Errorf("seed %d: implausible move count %d", seed, moves)
		}
		if s.Moves() != moves {
			t.Errorf("seed %d: solver saw %d results, board fired %d", seed, s.Moves(), moves)
		}
		t.Logf("seed %d: %d moves, %d live nodes", seed, moves, s.Registry().Len())
	}
}

func TestSolverTouchingShips(t *testing.T) {
	// Two ships side by side force the tree to branch on the first sunk.
	board, err := battleship.NewBoard(6, []battleship.ShipPlacement{
		{Anchor: battleship.Cell{Row: 2, Col: 1}, Orientation: battleship.Horizontal, Length: 3},
		{Anchor: battleship.Cell{Row: 3, Col: 1}, Orientation: battleship.Horizontal, Length: 2},
	})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	s := NewSolver(6, battleship.NewFleet(3, 2))
	moves, err := Play(context.Background(), s, board)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !board.Finished() || !s.Won() {
		t.Fatalf("game not finished after %d moves", moves)
	}
}

func TestSolverOpeningShot(t *testing.T) {
	s := NewSolver(battleship.DefaultSize, battleship.DefaultFleet)
	c, err := s.NextShot()
	if err != nil {
		t.Fatal(err)
	}
	// The four centre cells tie; parity on the shortest ship picks (4,4).
	if want := (battleship.Cell{Row: 4, Col: 4}); c != want {
		t.Errorf("opening shot = %s, want %s", c, want)
	}
}

func TestSolverHitModeTargetsNeighbour(t *testing.T) {
	s := NewSolver(battleship.DefaultSize, battleship.DefaultFleet)
	if err := s.Observe(battleship.Cell{Row: 4, Col: 4}, battleship.ResultHit); err != nil {
		t.Fatal(err)
	}
	if !s.Registry().HitMode() {
		t.Fatal("expected hit mode after a hit")
	}
	c, err := s.NextShot()
	if err != nil {
		t.Fatal(err)
	}
	neighbours := map[battleship.Cell]bool{
		{Row: 3, Col: 4}: true, {Row: 5, Col: 4}: true,
		{Row: 4, Col: 3}: true, {Row: 4, Col: 5}: true,
	}
	if !neighbours[c] {
		t.Errorf("hit mode shot %s is not adjacent to the hit", c)
	}
}

func TestSolverRejectsRepeatedShot(t *testing.T) {
	s := NewSolver(5, battleship.NewFleet(2))
	c := battleship.Cell{Row: 0, Col: 0}
	if err := s.Observe(c, battleship.ResultMiss); err != nil {
		t.Fatal(err)
	}
	if err := s.Observe(c, battleship.ResultMiss); !errors.Is(err, battleship.ErrAlreadyShot) {
		t.Errorf("expected ErrAlreadyShot, got %v", err)
	}
	if s.Moves() != 1 {
		t.Errorf("rejected shot was counted: moves=%d", s.Moves())
	}
}

func TestSolverNeverPicksTriedCell(t *testing.T) {
	s := NewSolver(4, battleship.NewFleet(2))
	seen := map[battleship.Cell]bool{}
	for i := 0; i < 15; i++ {
		c, err := s.NextShot()
		if err != nil {
			t.Fatalf("shot %d: %v", i, err)
		}
		if seen[c] {
			t.Fatalf("shot %d repeats %s", i, c)
		}
		seen[c] = true
		if err := s.Observe(c, battleship.ResultMiss); err != nil {
			// Misses eventually leave no room for the ship.
			if errors.Is(err, hypothesis.ErrContradiction) {
				return
			}
			t.Fatalf("observe %s: %v", c, err)
		}
	}
}

func TestPickCellZeroFieldFallback(t *testing.T) {
	g := battleship.NewGrid(3).With(battleship.Cell{Row: 0, Col: 0}, battleship.Miss)
	c, ok := pickCell(hypothesis.NewField(3), g, true, 1)
	if !ok {
		t.Fatal("expected a fallback cell")
	}
	if want := (battleship.Cell{Row: 0, Col: 1}); c != want {
		t.Errorf("fallback = %s, want %s", c, want)
	}

	full := battleship.NewGrid(1).With(battleship.Cell{}, battleship.Miss)
	if _, ok := pickCell(hypothesis.NewField(1), full, false, 1); ok {
		t.Error("expected no cell on an exhausted grid")
	}
}

func TestPickCellParityOnlyInSearchMode(t *testing.T) {
	f := hypothesis.NewField(3)
	f.Set(battleship.Cell{Row: 0, Col: 1}, 5)
	f.Set(battleship.Cell{Row: 1, Col: 1}, 5)
	g := battleship.NewGrid(3)

	c, _ := pickCell(f, g, false, 2)
	if want := (battleship.Cell{Row: 1, Col: 1}); c != want {
		t.Errorf("search mode pick = %s, want %s", c, want)
	}
	c, _ = pickCell(f, g, true, 2)
	if want := (battleship.Cell{Row: 0, Col: 1}); c != want {
		t.Errorf("hit mode pick = %s, want %s", c, want)
	}
}

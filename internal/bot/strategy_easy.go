package bot

import (
	"fmt"

	"github.com/freeeve/salvo/internal/bot/hypothesis"
	"github.com/freeeve/salvo/pkg/battleship"
)

// hitModeThreshold is the score below which a cell is ignored while any hit
// is unresolved. A single placement through one hit already scores above it.
const hitModeThreshold = 100.0

// HeuristicStrategy scores the observed grid directly, with no branching.
// A sunk report retires the longest straight hit run through the sunk cell
// if its length is still in the fleet; otherwise the hits stay live.
type HeuristicStrategy struct {
	grid  battleship.Grid
	fleet battleship.Fleet
}

// NewHeuristicStrategy starts with an empty view of the board.
func NewHeuristicStrategy(size int, fleet battleship.Fleet) *HeuristicStrategy {
	return &HeuristicStrategy{grid: battleship.NewGrid(size), fleet: fleet}
}

func (s *HeuristicStrategy) Name() string { return "easy" }

// Grid returns the strategy's view of the board.
func (s *HeuristicStrategy) Grid() battleship.Grid { return s.grid }

// Fleet returns the ships the strategy still believes afloat.
func (s *HeuristicStrategy) Fleet() battleship.Fleet { return s.fleet }

// HitMode reports whether any hit is still unexplained.
func (s *HeuristicStrategy) HitMode() bool { return s.grid.Count(battleship.Hit) > 0 }

// Field is the heat map NextShot chooses from.
func (s *HeuristicStrategy) Field() hypothesis.Field { return s.Score() }

// Score returns the thresholded heat map used to pick shots.
func (s *HeuristicStrategy) Score() hypothesis.Field {
	raw := hypothesis.Accumulate(s.grid, s.fleet)
	out := hypothesis.NewField(s.grid.Size())
	hit := s.HitMode()
	for _, c := range s.grid.Cells(battleship.Untried) {
		v := raw.At(c)
		if hit && v < hitModeThreshold {
			continue
		}
		out.Set(c, v)
	}
	return out
}

func (s *HeuristicStrategy) NextShot() (battleship.Cell, error) {
	c, ok := pickCell(s.Score(), s.grid, s.HitMode(), s.fleet.Min())
	if !ok {
		return battleship.Cell{}, fmt.Errorf("easy: board exhausted")
	}
	return c, nil
}

func (s *HeuristicStrategy) Observe(c battleship.Cell, res battleship.Result) error {
	if !s.grid.InBounds(c) {
		return battleship.ErrOutOfBounds
	}
	switch res {
	case battleship.ResultMiss:
		s.grid = s.grid.With(c, battleship.Miss)
	case battleship.ResultHit:
		s.grid = s.grid.With(c, battleship.Hit)
	case battleship.ResultSunk:
		s.grid = s.grid.With(c, battleship.Hit)
		s.retire(c)
	}
	return nil
}

// retire marks the run through c as sunk and removes its length from the fleet.
func (s *HeuristicStrategy) retire(c battleship.Cell) {
	var best []battleship.Cell
	for _, o := range battleship.Orientations() {
		run := s.hitRun(c, o)
		if len(run) > len(best) && s.fleet.Contains(len(run)) {
			best = run
		}
	}
	if best == nil {
		s.grid = s.grid.With(c, battleship.Sunk)
		return
	}
	s.fleet, _ = s.fleet.Remove(len(best))
	s.grid = s.grid.WithAll(best, battleship.Sunk)
}

// hitRun returns the contiguous Hit cells through c along o.
func (s *HeuristicStrategy) hitRun(c battleship.Cell, o battleship.Orientation) []battleship.Cell {
	start := c
	for s.grid.At(start.Step(o, -1)) == battleship.Hit {
		start = start.Step(o, -1)
	}
	var run []battleship.Cell
	for cur := start; s.grid.At(cur) == battleship.Hit; cur = cur.Step(o, 1) {
		run = append(run, cur)
	}
	return run
}

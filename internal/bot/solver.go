package bot

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/internal/bot/hypothesis"
	"github.com/freeeve/salvo/pkg/battleship"
)

// Shooter is the ground-truth side of a game: it answers shots.
type Shooter interface {
	Move(row, col int) (battleship.Result, error)
}

// Solver picks shots from the hypothesis tree's probability field and feeds
// every result back into the tree. One Solver owns one tree; it is not safe
// for concurrent use.
type Solver struct {
	reg   *hypothesis.Registry
	moves int
}

// NewSolver starts a solver for a fresh size×size board holding fleet.
func NewSolver(size int, fleet battleship.Fleet) *Solver {
	return &Solver{
		reg: hypothesis.NewRegistry(size, fleet),
	}
}

func (s *Solver) Name() string { return "hard" }

// Registry exposes the hypothesis tree for inspection.
func (s *Solver) Registry() *hypothesis.Registry { return s.reg }

// Moves returns the number of results observed.
func (s *Solver) Moves() int { return s.moves }

// Won reports whether every interpretation has sunk the whole fleet.
func (s *Solver) Won() bool { return s.reg.Won() }

// Field evaluates the current probability field.
func (s *Solver) Field() hypothesis.Field { return s.reg.Evaluate() }

// HitMode reports whether some hit is not yet explained by a sunk ship.
func (s *Solver) HitMode() bool { return s.reg.HitMode() }

// LiveNodes is the number of hypothesis nodes currently held.
func (s *Solver) LiveNodes() int { return s.reg.Len() }

// Stats reports the tree's lifetime branch, prune, collapse and merge counts.
func (s *Solver) Stats() hypothesis.Stats { return s.reg.Stats() }

// NextShot returns the highest-scoring untried cell.
func (s *Solver) NextShot() (battleship.Cell, error) {
	root := s.reg.Root()
	c, ok := pickCell(s.reg.Evaluate(), root.Grid, s.reg.HitMode(), root.Fleet.Min())
	if !ok {
		return battleship.Cell{}, fmt.Errorf("no untried cell left after %d moves", s.moves)
	}
	return c, nil
}

// Observe feeds a shot result into the tree. The tree is fully pruned and
// collapsed when Observe returns.
func (s *Solver) Observe(c battleship.Cell, res battleship.Result) error {
	if err := s.reg.Apply(c, res); err != nil {
		return err
	}
	s.moves++
	return nil
}

// Step plays one move against b.
func (s *Solver) Step(b Shooter) (battleship.Cell, battleship.Result, error) {
	c, err := s.NextShot()
	if err != nil {
		return c, 0, err
	}
	res, err := b.Move(c.Row, c.Col)
	if err != nil {
		return c, 0, fmt.Errorf("shoot %s: %w", c, err)
	}
	if err := s.Observe(c, res); err != nil {
		return c, res, err
	}
	log.Debug().Str("cell", c.String()).Str("result", res.String()).Int("live", s.reg.Len()).Msg("Solver move")
	return c, res, nil
}

// pickCell chooses the argmax of f among untried cells of g. Ties go to the
// cell whose parity suits the shortest remaining ship when no hit is
// unresolved, and otherwise to the lowest row, then column. An all-zero
// field falls back to the first untried cell under the same parity rule.
func pickCell(f hypothesis.Field, g battleship.Grid, hitMode bool, minLen int) (battleship.Cell, bool) {
	_, cands := f.Max()
	if len(cands) == 0 {
		cands = g.Cells(battleship.Untried)
	}
	if len(cands) == 0 {
		return battleship.Cell{}, false
	}
	if !hitMode && minLen > 1 {
		for _, c := range cands {
			if (c.Row+c.Col)%minLen == 0 {
				return c, true
			}
		}
	}
	return cands[0], true
}

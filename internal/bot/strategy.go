package bot

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/internal/bot/hypothesis"
	"github.com/freeeve/salvo/pkg/battleship"
)

// Strategy picks shots for one game. Implementations keep their own view of
// the opponent board and learn from every result passed to Observe.
type Strategy interface {
	Name() string
	NextShot() (battleship.Cell, error)
	Observe(c battleship.Cell, res battleship.Result) error
}

// FieldReporter is implemented by strategies that score every cell.
type FieldReporter interface {
	Field() hypothesis.Field
	HitMode() bool
}

// Difficulties lists the names accepted by StrategyForDifficulty.
func Difficulties() []string {
	return []string{"random", "easy", "hard", "neural"}
}

// StrategyForDifficulty returns a fresh strategy for a size×size board
// holding fleet. Unknown names get the hypothesis solver.
func StrategyForDifficulty(difficulty string, size int, fleet battleship.Fleet) Strategy {
	switch difficulty {
	case "random":
		return NewRandomStrategy(size)
	case "easy":
		return NewHeuristicStrategy(size, fleet)
	case "neural":
		return newNeuralOrFallback(size, fleet)
	default:
		return NewSolver(size, fleet)
	}
}

// --- RandomStrategy ---

// RandomStrategy fires at untried cells in a uniformly random order.
type RandomStrategy struct {
	order []battleship.Cell
	next  int
}

// NewRandomStrategy shuffles every cell of the board once up front.
func NewRandomStrategy(size int) *RandomStrategy {
	return newRandomStrategy(size, botShuffle)
}

func newRandomStrategy(size int, shuffle func(n int, swap func(i, j int))) *RandomStrategy {
	order := make([]battleship.Cell, 0, size*size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			order = append(order, battleship.Cell{Row: r, Col: c})
		}
	}
	shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return &RandomStrategy{order: order}
}

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) NextShot() (battleship.Cell, error) {
	if s.next >= len(s.order) {
		return battleship.Cell{}, fmt.Errorf("random: board exhausted")
	}
	return s.order[s.next], nil
}

// Observe advances past c. Shots chosen elsewhere are moved out of the
// remaining order so they are never repeated.
func (s *RandomStrategy) Observe(c battleship.Cell, _ battleship.Result) error {
	for i := s.next; i < len(s.order); i++ {
		if s.order[i] == c {
			s.order[s.next], s.order[i] = s.order[i], s.order[s.next]
			s.next++
			return nil
		}
	}
	log.Debug().Str("cell", c.String()).Msg("random: observed cell already consumed")
	return nil
}

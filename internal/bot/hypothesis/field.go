package hypothesis

import (
	"gonum.org/v1/gonum/floats"

	"github.com/freeeve/salvo/pkg/battleship"
)

const (
	// BaseWeight is added by every valid placement.
	BaseWeight = 1.0
	// HitBoost scales the squared number of unconfirmed hits a placement
	// passes through.
	HitBoost = 50.0
)

// tieEpsilon is the relative tolerance under which two scores are equal.
const tieEpsilon = 1e-9

// Field is a per-cell shot score. Scores are non-negative; an all-zero
// field is legal and means there is nothing worth shooting.
type Field struct {
	size  int
	cells []float64
}

// NewField returns an all-zero field.
func NewField(size int) Field {
	return Field{size: size, cells: make([]float64, size*size)}
}

// Size returns the side length.
func (f Field) Size() int { return f.size }

// At returns the score of c.
func (f Field) At(c battleship.Cell) float64 {
	return f.cells[c.Row*f.size+c.Col]
}

// Set overwrites the score of c.
func (f Field) Set(c battleship.Cell, v float64) {
	f.cells[c.Row*f.size+c.Col] = v
}

func (f Field) add(c battleship.Cell, v float64) {
	f.cells[c.Row*f.size+c.Col] += v
}

// Sum is the total mass of the field.
func (f Field) Sum() float64 {
	return floats.Sum(f.cells)
}

// Rows returns the field as a row-major matrix.
func (f Field) Rows() [][]float64 {
	out := make([][]float64, f.size)
	for r := range out {
		out[r] = append([]float64(nil), f.cells[r*f.size:(r+1)*f.size]...)
	}
	return out
}

// Flat returns the backing scores in row-major order.
func (f Field) Flat() []float64 {
	return append([]float64(nil), f.cells...)
}

// Max returns the highest score and the cells holding it, in row-major order.
func (f Field) Max() (float64, []battleship.Cell) {
	best := 0.0
	for _, v := range f.cells {
		if v > best {
			best = v
		}
	}
	if best <= 0 {
		return 0, nil
	}
	var cells []battleship.Cell
	for i, v := range f.cells {
		if v >= best*(1-tieEpsilon) {
			cells = append(cells, battleship.Cell{Row: i / f.size, Col: i % f.size})
		}
	}
	return best, cells
}

// addScaled adds k*other into f.
func (f Field) addScaled(other Field, k float64) {
	floats.AddScaled(f.cells, k, other.cells)
}

// normalize scales f so its total equals mass. A zero field stays zero.
func (f Field) normalize(mass float64) {
	sum := f.Sum()
	if sum <= 0 || mass <= 0 {
		clear(f.cells)
		return
	}
	floats.Scale(mass/sum, f.cells)
}

// mask zeroes every cell of g that is not untried.
func (f Field) mask(g battleship.Grid) {
	for i := range f.cells {
		if g.At(battleship.Cell{Row: i / f.size, Col: i % f.size}) != battleship.Untried {
			f.cells[i] = 0
		}
	}
}

// PlacementWeight is the score one valid placement adds to each of its
// cells: a base weight plus HitBoost times the square of the unconfirmed
// hits it runs through.
func PlacementWeight(hits int) float64 {
	return BaseWeight + HitBoost*float64(hits*hits)
}

// Accumulate sums PlacementWeight over every valid placement of every
// remaining ship, without masking or normalization.
func Accumulate(g battleship.Grid, fleet battleship.Fleet) Field {
	f := NewField(g.Size())
	for _, length := range fleet {
		forEach(g, length, func(p Placement) {
			if !valid(g, p) {
				return
			}
			w := PlacementWeight(hitsCovered(g, p))
			for i := 0; i < p.Length; i++ {
				f.add(p.Anchor.Step(p.Orientation, i), w)
			}
		})
	}
	return f
}

// Mass is the number of fleet cells not yet located: remaining ship length
// minus the hits not yet attributed to a sunk ship.
func Mass(g battleship.Grid, fleet battleship.Fleet) int {
	return fleet.Total() - g.Count(battleship.Hit)
}

// Evaluate scores every cell for the given observations and remaining
// fleet. Only untried cells score; the total equals Mass(g, fleet), or zero
// when no placement remains.
func Evaluate(g battleship.Grid, fleet battleship.Fleet) Field {
	f := Accumulate(g, fleet)
	f.mask(g)
	f.normalize(float64(Mass(g, fleet)))
	return f
}

package battleship

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrOutOfBounds = errors.New("shot outside grid")
	ErrAlreadyShot = errors.New("cell already targeted")
	ErrGameOver    = errors.New("all ships already sunk")
)

// maxPlacementAttempts caps rejection sampling per ship in Generate.
const maxPlacementAttempts = 10000

// ShipPlacement is the position of one ship: its top/left cell, axis and length.
type ShipPlacement struct {
	Anchor      Cell        `json:"anchor"`
	Orientation Orientation `json:"orientation"`
	Length      int         `json:"length"`
}

// Cells returns the squares the placement covers.
func (p ShipPlacement) Cells() []Cell {
	return Span(p.Anchor, p.Orientation, p.Length)
}

func (p ShipPlacement) String() string {
	return fmt.Sprintf("%d,%d,%s,%d", p.Anchor.Row, p.Anchor.Col, p.Orientation, p.Length)
}

type ship struct {
	ShipPlacement
	hits int
}

func (s *ship) sunk() bool { return s.hits == s.Length }

// Board is the ground truth: hidden ship positions plus the shots taken so far.
type Board struct {
	size     int
	ships    []*ship
	occupant [][]int // ship index + 1, 0 for water
	observed Grid
	moves    int
	sunk     int
}

// NewBoard lays out the given ships. Ships may touch but not overlap.
func NewBoard(size int, placements []ShipPlacement) (*Board, error) {
	b := &Board{
		size:     size,
		occupant: make([][]int, size),
		observed: NewGrid(size),
	}
	for i := range b.occupant {
		b.occupant[i] = make([]int, size)
	}
	for _, p := range placements {
		if !b.fits(p, true) {
			return nil, fmt.Errorf("ship %s does not fit", p)
		}
		b.place(p)
	}
	return b, nil
}

// Generate places every ship of the fleet uniformly at random. When
// adjacencyAllowed is false no two ships may touch, diagonals included.
func Generate(fleet Fleet, size int, adjacencyAllowed bool, rng *rand.Rand) (*Board, error) {
	if err := fleet.Validate(size); err != nil {
		return nil, err
	}
	b, _ := NewBoard(size, nil)
	for _, length := range fleet {
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			o := Orientation(rng.Intn(2))
			var anchor Cell
			if o == Horizontal {
				anchor = Cell{Row: rng.Intn(size), Col: rng.Intn(size - length + 1)}
			} else {
				anchor = Cell{Row: rng.Intn(size - length + 1), Col: rng.Intn(size)}
			}
			p := ShipPlacement{Anchor: anchor, Orientation: o, Length: length}
			if b.fits(p, adjacencyAllowed) {
				b.place(p)
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("could not place ship of length %d after %d attempts", length, maxPlacementAttempts)
		}
	}
	return b, nil
}

func (b *Board) fits(p ShipPlacement, adjacencyAllowed bool) bool {
	if p.Length <= 0 {
		return false
	}
	for _, c := range p.Cells() {
		if c.Row < 0 || c.Row >= b.size || c.Col < 0 || c.Col >= b.size {
			return false
		}
		if b.occupant[c.Row][c.Col] != 0 {
			return false
		}
		if adjacencyAllowed {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				r, col := c.Row+dr, c.Col+dc
				if r >= 0 && r < b.size && col >= 0 && col < b.size && b.occupant[r][col] != 0 {
					return false
				}
			}
		}
	}
	return true
}

func (b *Board) place(p ShipPlacement) {
	b.ships = append(b.ships, &ship{ShipPlacement: p})
	idx := len(b.ships)
	for _, c := range p.Cells() {
		b.occupant[c.Row][c.Col] = idx
	}
}

// Move fires at (row, col). SUNK is returned exactly once per ship, on the
// shot that hits its last intact cell.
func (b *Board) Move(row, col int) (Result, error) {
	c := Cell{Row: row, Col: col}
	if !b.observed.InBounds(c) {
		return 0, fmt.Errorf("%w: %s on %dx%d", ErrOutOfBounds, c, b.size, b.size)
	}
	if b.Finished() {
		return 0, ErrGameOver
	}
	if b.observed.At(c) != Untried {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyShot, c)
	}
	b.moves++

	idx := b.occupant[row][col]
	if idx == 0 {
		b.observed = b.observed.With(c, Miss)
		return ResultMiss, nil
	}
	s := b.ships[idx-1]
	s.hits++
	if !s.sunk() {
		b.observed = b.observed.With(c, Hit)
		return ResultHit, nil
	}
	b.sunk++
	b.observed = b.observed.WithAll(s.Cells(), Sunk)
	return ResultSunk, nil
}

// Size returns the side length.
func (b *Board) Size() int { return b.size }

// Moves returns the number of shots fired.
func (b *Board) Moves() int { return b.moves }

// SunkCount returns the number of ships sunk.
func (b *Board) SunkCount() int { return b.sunk }

// Finished reports whether every ship is sunk.
func (b *Board) Finished() bool { return b.sunk == len(b.ships) }

// Remaining counts ship cells not yet hit.
func (b *Board) Remaining() int {
	n := 0
	for _, s := range b.ships {
		n += s.Length - s.hits
	}
	return n
}

// Fleet returns the lengths of all ships on the board.
func (b *Board) Fleet() Fleet {
	lengths := make([]int, len(b.ships))
	for i, s := range b.ships {
		lengths[i] = s.Length
	}
	return NewFleet(lengths...)
}

// Layout returns the hidden ship positions.
func (b *Board) Layout() []ShipPlacement {
	out := make([]ShipPlacement, len(b.ships))
	for i, s := range b.ships {
		out[i] = s.ShipPlacement
	}
	return out
}

// Observed is the public view of the board: misses, hits, and whole sunk ships.
func (b *Board) Observed() Grid { return b.observed }

// Occupied reports whether a ship covers c.
func (b *Board) Occupied(c Cell) bool {
	return b.observed.InBounds(c) && b.occupant[c.Row][c.Col] != 0
}

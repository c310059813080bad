package battleship

// Status is what an observer knows about a single cell.
type Status uint8

const (
	Untried Status = iota
	Miss
	Hit
	Sunk
)

func (s Status) String() string {
	switch s {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case Sunk:
		return "sunk"
	default:
		return "untried"
	}
}

// Blocked reports whether a placement may not run through a cell with this status.
func (s Status) Blocked() bool {
	return s == Miss || s == Sunk
}

// Grid is an immutable N×N status matrix. Writes return a new Grid that
// shares every untouched row with its source, so sibling hypotheses can hold
// their own snapshot without cloning the whole board.
type Grid struct {
	size int
	rows [][]Status
}

// NewGrid returns an all-untried grid. Every row initially aliases one
// shared zero row; the first write to a row copies it.
func NewGrid(size int) Grid {
	zero := make([]Status, size)
	rows := make([][]Status, size)
	for i := range rows {
		rows[i] = zero
	}
	return Grid{size: size, rows: rows}
}

// Size returns the side length.
func (g Grid) Size() int { return g.size }

// InBounds reports whether c lies on the grid.
func (g Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.size && c.Col >= 0 && c.Col < g.size
}

// At returns the status of c. Out-of-bounds cells read as Miss so that
// callers walking off an edge see a wall.
func (g Grid) At(c Cell) Status {
	if !g.InBounds(c) {
		return Miss
	}
	return g.rows[c.Row][c.Col]
}

// With returns a copy of g with c set to s.
func (g Grid) With(c Cell, s Status) Grid {
	return g.WithAll([]Cell{c}, s)
}

// WithAll returns a copy of g with every cell in cells set to s. Each
// touched row is copied once; all other rows stay shared.
func (g Grid) WithAll(cells []Cell, s Status) Grid {
	rows := make([][]Status, g.size)
	copy(rows, g.rows)
	copied := make(map[int]bool, len(cells))
	for _, c := range cells {
		if !g.InBounds(c) {
			continue
		}
		if !copied[c.Row] {
			row := make([]Status, g.size)
			copy(row, rows[c.Row])
			rows[c.Row] = row
			copied[c.Row] = true
		}
		rows[c.Row][c.Col] = s
	}
	return Grid{size: g.size, rows: rows}
}

// Count returns the number of cells with status s.
func (g Grid) Count(s Status) int {
	n := 0
	for _, row := range g.rows {
		for _, v := range row {
			if v == s {
				n++
			}
		}
	}
	return n
}

// Cells lists the cells with status s in row-major order.
func (g Grid) Cells(s Status) []Cell {
	var out []Cell
	for r, row := range g.rows {
		for c, v := range row {
			if v == s {
				out = append(out, Cell{Row: r, Col: c})
			}
		}
	}
	return out
}

// Equal reports whether both grids hold the same statuses.
func (g Grid) Equal(other Grid) bool {
	if g.size != other.size {
		return false
	}
	for r := range g.rows {
		for c := range g.rows[r] {
			if g.rows[r][c] != other.rows[r][c] {
				return false
			}
		}
	}
	return true
}

// sharesRow reports whether g and other alias the same backing row r.
func (g Grid) sharesRow(other Grid, r int) bool {
	if len(g.rows[r]) == 0 || len(other.rows[r]) == 0 {
		return false
	}
	return &g.rows[r][0] == &other.rows[r][0]
}

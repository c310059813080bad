package battleship

import "fmt"

// DefaultSize is the side length of the standard grid.
const DefaultSize = 10

// Cell addresses one square of the grid.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Step returns the cell n squares away from c along o.
func (c Cell) Step(o Orientation, n int) Cell {
	dr, dc := o.Delta()
	return Cell{Row: c.Row + dr*n, Col: c.Col + dc*n}
}

// Less orders cells by row, then column.
func (c Cell) Less(other Cell) bool {
	if c.Row != other.Row {
		return c.Row < other.Row
	}
	return c.Col < other.Col
}

// Orientation is the axis a ship or placement runs along.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Orientations returns both axes in canonical order.
func Orientations() []Orientation {
	return []Orientation{Horizontal, Vertical}
}

func (o Orientation) String() string {
	if o == Vertical {
		return "v"
	}
	return "h"
}

// Delta is the row/column step taken when moving one square along o.
func (o Orientation) Delta() (dr, dc int) {
	if o == Vertical {
		return 1, 0
	}
	return 0, 1
}

// ParseOrientation accepts "h"/"v" and the long forms.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "h", "H", "horizontal":
		return Horizontal, nil
	case "v", "V", "vertical":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}

// Span returns the cells covered by a run of the given length starting at anchor.
func Span(anchor Cell, o Orientation, length int) []Cell {
	cells := make([]Cell, length)
	for i := range cells {
		cells[i] = anchor.Step(o, i)
	}
	return cells
}

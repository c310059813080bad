package battleship

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Grid notation: rows top to bottom separated by '/', one character per cell.
//
//	.  untried
//	o  miss
//	x  hit
//	#  sunk
var statusToChar = map[Status]byte{
	Untried: '.',
	Miss:    'o',
	Hit:     'x',
	Sunk:    '#',
}

var charToStatus = map[byte]Status{
	'.': Untried,
	'o': Miss,
	'x': Hit,
	'#': Sunk,
}

// EncodeGrid renders g in grid notation.
func EncodeGrid(g Grid) string {
	var sb strings.Builder
	sb.Grow(g.size * (g.size + 1))
	for r := 0; r < g.size; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		for c := 0; c < g.size; c++ {
			sb.WriteByte(statusToChar[g.rows[r][c]])
		}
	}
	return sb.String()
}

// DecodeGrid parses grid notation. The grid must be square.
func DecodeGrid(s string) (Grid, error) {
	lines := strings.Split(strings.TrimSpace(s), "/")
	size := len(lines)
	g := NewGrid(size)
	var cells = map[Status][]Cell{}
	for r, line := range lines {
		if len(line) != size {
			return Grid{}, fmt.Errorf("row %d has %d cells, want %d", r, len(line), size)
		}
		for c := 0; c < size; c++ {
			st, ok := charToStatus[line[c]]
			if !ok {
				return Grid{}, fmt.Errorf("row %d col %d: unknown cell %q", r, c, line[c])
			}
			if st != Untried {
				cells[st] = append(cells[st], Cell{Row: r, Col: c})
			}
		}
	}
	for st, cs := range cells {
		g = g.WithAll(cs, st)
	}
	return g, nil
}

// EncodeLayout renders placements as "row,col,o,len;..." in the order given.
func EncodeLayout(ships []ShipPlacement) string {
	parts := make([]string, len(ships))
	for i, p := range ships {
		parts[i] = p.String()
	}
	return strings.Join(parts, ";")
}

// DecodeLayout parses the output of EncodeLayout.
func DecodeLayout(s string) ([]ShipPlacement, error) {
	var out []ShipPlacement
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("ship %q: want row,col,orientation,length", part)
		}
		length, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("ship %q: bad length: %w", part, err)
		}
		p, err := ParsePlacement(strings.Join(fields[:3], " "), length)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ParsePlacement reads a manually entered ship position. Accepted forms are
// "row col o", "row,col,o" and the compact single-digit "12h".
func ParsePlacement(s string, length int) (ShipPlacement, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 1 && len(fields[0]) == 3 {
		f := fields[0]
		fields = []string{f[0:1], f[1:2], f[2:3]}
	}
	if len(fields) != 3 {
		return ShipPlacement{}, fmt.Errorf("placement %q: want row, col and orientation", s)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return ShipPlacement{}, fmt.Errorf("placement %q: bad row: %w", s, err)
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return ShipPlacement{}, fmt.Errorf("placement %q: bad col: %w", s, err)
	}
	o, err := ParseOrientation(fields[2])
	if err != nil {
		return ShipPlacement{}, fmt.Errorf("placement %q: %w", s, err)
	}
	return ShipPlacement{Anchor: Cell{Row: row, Col: col}, Orientation: o, Length: length}, nil
}

// ParseCell reads "row col", "row,col" or compact "37".
func ParseCell(s string) (Cell, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 1 && len(fields[0]) == 2 {
		fields = []string{fields[0][0:1], fields[0][1:2]}
	}
	if len(fields) != 2 {
		return Cell{}, fmt.Errorf("cell %q: want row and col", s)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return Cell{}, fmt.Errorf("cell %q: bad row: %w", s, err)
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return Cell{}, fmt.Errorf("cell %q: bad col: %w", s, err)
	}
	return Cell{Row: row, Col: col}, nil
}

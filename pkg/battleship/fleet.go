package battleship

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Fleet is a multiset of ship lengths, kept sorted longest first.
type Fleet []int

// DefaultFleet is the classic carrier, battleship, cruiser, submarine, destroyer set.
var DefaultFleet = Fleet{5, 4, 3, 3, 2}

// NewFleet returns a sorted copy of the given lengths.
func NewFleet(lengths ...int) Fleet {
	f := make(Fleet, len(lengths))
	copy(f, lengths)
	sort.Sort(sort.Reverse(sort.IntSlice(f)))
	return f
}

// ParseFleet parses a comma separated list such as "5,4,3,3,2".
func ParseFleet(s string) (Fleet, error) {
	var lengths []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid ship length %q: %w", part, err)
		}
		lengths = append(lengths, n)
	}
	if len(lengths) == 0 {
		return nil, fmt.Errorf("empty fleet")
	}
	return NewFleet(lengths...), nil
}

func (f Fleet) String() string {
	parts := make([]string, len(f))
	for i, n := range f {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Total is the number of cells the fleet occupies.
func (f Fleet) Total() int {
	t := 0
	for _, n := range f {
		t += n
	}
	return t
}

// Min returns the shortest length, or 0 for an empty fleet.
func (f Fleet) Min() int {
	if len(f) == 0 {
		return 0
	}
	return f[len(f)-1]
}

// Contains reports whether a ship of length l is present.
func (f Fleet) Contains(l int) bool {
	for _, n := range f {
		if n == l {
			return true
		}
	}
	return false
}

// Remove returns a copy of f with one ship of length l taken out.
func (f Fleet) Remove(l int) (Fleet, bool) {
	for i, n := range f {
		if n == l {
			out := make(Fleet, 0, len(f)-1)
			out = append(out, f[:i]...)
			out = append(out, f[i+1:]...)
			return out, true
		}
	}
	return f, false
}

// Distinct returns each length once, longest first.
func (f Fleet) Distinct() []int {
	var out []int
	for i, n := range f {
		if i > 0 && f[i-1] == n {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Validate checks that the fleet can be laid out on a size×size grid.
func (f Fleet) Validate(size int) error {
	if size <= 0 {
		return fmt.Errorf("grid size must be positive, got %d", size)
	}
	if len(f) == 0 {
		return fmt.Errorf("fleet is empty")
	}
	for _, n := range f {
		if n <= 0 || n > size {
			return fmt.Errorf("ship length %d does not fit a %dx%d grid", n, size, size)
		}
	}
	if f.Total() > size*size {
		return fmt.Errorf("fleet occupies %d cells, grid has %d", f.Total(), size*size)
	}
	return nil
}

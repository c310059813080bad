// Package hypothesis tracks the mutually exclusive interpretations of which
// ship was sunk where, weights them by how many fleet placements each one
// leaves open, and folds them into a single shot-probability field.
package hypothesis

import (
	"github.com/freeeve/salvo/pkg/battleship"
)

// Placement is a candidate contiguous run of one ship length.
type Placement = battleship.ShipPlacement

// valid reports whether every cell of p is on the grid and none is a miss or
// a sunk ship. Hit cells are passable.
func valid(g battleship.Grid, p Placement) bool {
	for i := 0; i < p.Length; i++ {
		c := p.Anchor.Step(p.Orientation, i)
		if !g.InBounds(c) || g.At(c).Blocked() {
			return false
		}
	}
	return true
}

// hitsCovered counts the unconfirmed hit cells p runs through.
func hitsCovered(g battleship.Grid, p Placement) int {
	n := 0
	for i := 0; i < p.Length; i++ {
		if g.At(p.Anchor.Step(p.Orientation, i)) == battleship.Hit {
			n++
		}
	}
	return n
}

// forEach visits every in-bounds placement of the given length, horizontal
// rows first, then vertical columns, each in row-major anchor order.
func forEach(g battleship.Grid, length int, fn func(Placement)) {
	size := g.Size()
	if length <= 0 || length > size {
		return
	}
	for _, o := range battleship.Orientations() {
		rows, cols := size, size-length+1
		if o == battleship.Vertical {
			rows, cols = size-length+1, size
		}
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				fn(Placement{Anchor: battleship.Cell{Row: r, Col: c}, Orientation: o, Length: length})
			}
		}
	}
}

// Count returns the number of valid placements of the given length.
func Count(g battleship.Grid, length int) int {
	n := 0
	forEach(g, length, func(p Placement) {
		if valid(g, p) {
			n++
		}
	})
	return n
}

// Enumerate lists the valid placements of the given length. With
// mustCoverHit set, only placements through at least one unconfirmed hit are
// returned.
func Enumerate(g battleship.Grid, length int, mustCoverHit bool) []Placement {
	var out []Placement
	forEach(g, length, func(p Placement) {
		if !valid(g, p) {
			return
		}
		if mustCoverHit && hitsCovered(g, p) == 0 {
			return
		}
		out = append(out, p)
	})
	return out
}

// Through lists the placements of the given length that contain c and
// consist only of unconfirmed hit cells. These are the ways a ship whose
// sinking shot landed on c can be laid over the hits seen so far.
func Through(g battleship.Grid, c battleship.Cell, length int) []Placement {
	var out []Placement
	for _, o := range battleship.Orientations() {
		for k := 0; k < length; k++ {
			p := Placement{Anchor: c.Step(o, -k), Orientation: o, Length: length}
			if hitsCovered(g, p) == length {
				out = append(out, p)
			}
		}
	}
	return out
}

// coverable reports whether some valid placement of any fleet length runs
// through c.
func coverable(g battleship.Grid, c battleship.Cell, fleet battleship.Fleet) bool {
	for _, length := range fleet.Distinct() {
		for _, o := range battleship.Orientations() {
			for k := 0; k < length; k++ {
				if valid(g, Placement{Anchor: c.Step(o, -k), Orientation: o, Length: length}) {
					return true
				}
			}
		}
	}
	return false
}

package hypothesis

import (
	"fmt"

	"github.com/freeeve/salvo/pkg/battleship"
)

// NodeID is a node's stable identity inside its Registry. IDs are never reused.
type NodeID int

// noNode is the parent of the root.
const noNode NodeID = 0

// State is the lifecycle stage of a hypothesis node.
type State int

const (
	// Active nodes are leaves with no unresolved branch.
	Active State = iota
	// Branched nodes have two or more live children.
	Branched
	// Collapsed nodes have been folded into their parent. Transient.
	Collapsed
	// Dead nodes have zero weight and are about to be discarded.
	Dead
)

func (s State) String() string {
	switch s {
	case Branched:
		return "branched"
	case Collapsed:
		return "collapsed"
	case Dead:
		return "dead"
	default:
		return "active"
	}
}

// ConfirmedShip is a ship whose position and length a hypothesis has
// committed to. Once recorded it is never revised.
type ConfirmedShip Placement

func (s ConfirmedShip) String() string { return Placement(s).String() }

// Cells returns the squares the ship covers.
func (s ConfirmedShip) Cells() []battleship.Cell { return Placement(s).Cells() }

// Node is one interpretation of the sunk signals seen so far.
type Node struct {
	ID       NodeID
	Parent   NodeID
	Children []NodeID

	Grid      battleship.Grid
	Fleet     battleship.Fleet // lengths not yet confirmed sunk
	Confirmed []ConfirmedShip
	Depth     int // ships confirmed in this node's accounting; never exceeds the fleet size

	State  State
	weight float64
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Weight is the value computed by the last sweep.
func (n *Node) Weight() float64 { return n.weight }

// Outstanding counts hit cells not yet attributed to a confirmed ship.
func (n *Node) Outstanding() int { return n.Grid.Count(battleship.Hit) }

// Mass is the number of fleet cells this node has not located yet.
func (n *Node) Mass() int { return Mass(n.Grid, n.Fleet) }

// HasConfirmed reports whether s is already part of this node's accounting.
func (n *Node) HasConfirmed(s ConfirmedShip) bool {
	for _, c := range n.Confirmed {
		if c == s {
			return true
		}
	}
	return false
}

func (n *Node) observe(c battleship.Cell, st battleship.Status) {
	if n.Grid.At(c) == battleship.Untried {
		n.Grid = n.Grid.With(c, st)
	}
}

// confirm commits s: its cells become sunk and its length leaves the fleet.
func (n *Node) confirm(s ConfirmedShip) error {
	fleet, ok := n.Fleet.Remove(s.Length)
	if !ok {
		return fmt.Errorf("node %d: no ship of length %d left to confirm %s", n.ID, s.Length, s)
	}
	n.Fleet = fleet
	n.Grid = n.Grid.WithAll(s.Cells(), battleship.Sunk)
	n.Confirmed = append(append([]ConfirmedShip(nil), n.Confirmed...), s)
	n.Depth++
	return nil
}

// interpretations lists every ship that could have been sunk by the shot at
// c: one per remaining length and per all-hit run through c.
func (n *Node) interpretations(c battleship.Cell) []ConfirmedShip {
	var out []ConfirmedShip
	for _, length := range n.Fleet.Distinct() {
		for _, p := range Through(n.Grid, c, length) {
			out = append(out, ConfirmedShip(p))
		}
	}
	return out
}

// leafWeight counts the placements left open by this node's accounting:
// the product over remaining ships of their valid placement counts. A node
// is impossible, and weighs zero, when it holds more unattributed hits than
// remaining ship cells, or when some hit cannot be covered by any remaining
// ship.
func (n *Node) leafWeight() float64 {
	if n.State == Dead {
		return 0
	}
	hits := n.Grid.Cells(battleship.Hit)
	if len(hits) > n.Fleet.Total() {
		return 0
	}
	for _, c := range hits {
		if !coverable(n.Grid, c, n.Fleet) {
			return 0
		}
	}
	w := 1.0
	for _, length := range n.Fleet {
		cnt := Count(n.Grid, length)
		if cnt == 0 {
			return 0
		}
		w *= float64(cnt)
	}
	return w
}

func (n *Node) child(id NodeID, s ConfirmedShip) (*Node, error) {
	c := &Node{
		ID:        id,
		Parent:    n.ID,
		Grid:      n.Grid,
		Fleet:     n.Fleet,
		Confirmed: n.Confirmed,
		Depth:     n.Depth,
		State:     Active,
	}
	if err := c.confirm(s); err != nil {
		return nil, err
	}
	return c, nil
}

package hypothesis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/pkg/battleship"
)

var (
	// ErrContradiction means no interpretation of the observed results is
	// possible: the root weighs zero. Either the board broke its rules or
	// the solver has a bug.
	ErrContradiction = errors.New("observations contradict every hypothesis")
	ErrUnknownNode   = errors.New("unknown hypothesis node")
)

// Stats counts structural changes made over a registry's lifetime.
type Stats struct {
	Branches  int `json:"branches"`
	Pruned    int `json:"pruned"`
	Collapses int `json:"collapses"`
	Merges    int `json:"merges"`
	MaxLive   int `json:"max_live"`
}

// Registry owns the hypothesis tree for one game: an arena of nodes keyed by
// stable IDs, with parent links. It is not safe for concurrent use.
type Registry struct {
	nodes     map[NodeID]*Node
	root      NodeID
	next      NodeID
	fleetSize int
	stats     Stats
}

// NewRegistry starts a tree whose root knows nothing about the board.
func NewRegistry(size int, fleet battleship.Fleet) *Registry {
	r := &Registry{
		nodes:     make(map[NodeID]*Node),
		fleetSize: len(fleet),
	}
	root := r.alloc()
	root.Parent = noNode
	root.Grid = battleship.NewGrid(size)
	root.Fleet = append(battleship.Fleet(nil), fleet...)
	r.root = root.ID
	r.Sweep()
	return r
}

func (r *Registry) alloc() *Node {
	r.next++
	n := &Node{ID: r.next, State: Active}
	r.nodes[n.ID] = n
	return n
}

// Root returns the root node.
func (r *Registry) Root() *Node { return r.nodes[r.root] }

// Node looks up a live node by ID.
func (r *Registry) Node(id NodeID) (*Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n, nil
}

// Len returns the number of live nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// Stats returns the structural change counters.
func (r *Registry) Stats() Stats { return r.stats }

// FleetSize is the number of ships in the full fleet.
func (r *Registry) FleetSize() int { return r.fleetSize }

// Leaves returns the live leaves in ID order.
func (r *Registry) Leaves() []*Node {
	var out []*Node
	r.walk(r.root, func(n *Node) {
		if n.IsLeaf() {
			out = append(out, n)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// walk visits id and its descendants in pre-order.
func (r *Registry) walk(id NodeID, fn func(*Node)) {
	n := r.nodes[id]
	fn(n)
	for _, c := range n.Children {
		r.walk(c, fn)
	}
}

// HitMode reports whether any live interpretation has an unattributed hit.
func (r *Registry) HitMode() bool {
	for _, l := range r.Leaves() {
		if l.Outstanding() > 0 {
			return true
		}
	}
	return false
}

// Won reports whether every live interpretation has confirmed the whole fleet.
func (r *Registry) Won() bool {
	for _, l := range r.Leaves() {
		if l.Depth < r.fleetSize {
			return false
		}
	}
	return true
}

// Apply feeds one shot result into every live node, branches leaves on a
// sunk signal, and sweeps the tree to a fixed point. It fails with
// ErrContradiction when no interpretation survives.
func (r *Registry) Apply(c battleship.Cell, res battleship.Result) error {
	root := r.Root()
	if !root.Grid.InBounds(c) {
		return fmt.Errorf("%w: %s", battleship.ErrOutOfBounds, c)
	}
	if root.Grid.At(c) != battleship.Untried {
		return fmt.Errorf("%w: %s", battleship.ErrAlreadyShot, c)
	}

	st := battleship.Miss
	if res != battleship.ResultMiss {
		st = battleship.Hit
	}
	r.walk(r.root, func(n *Node) { n.observe(c, st) })

	if res == battleship.ResultSunk {
		for _, leaf := range r.Leaves() {
			if err := r.branch(leaf, c); err != nil {
				return err
			}
		}
	}

	r.Sweep()
	if r.Root().weight == 0 {
		return fmt.Errorf("%w: after %s at %s with %d unattributed hits",
			ErrContradiction, res, c, r.Root().Outstanding())
	}
	return nil
}

// branch spawns one child per way the ship sunk at c can be laid over the
// leaf's hits. A leaf with no such way, or with the whole fleet already
// confirmed, is dead.
func (r *Registry) branch(leaf *Node, c battleship.Cell) error {
	if leaf.Depth >= r.fleetSize {
		leaf.State = Dead
		return nil
	}
	cands := leaf.interpretations(c)
	if len(cands) == 0 {
		leaf.State = Dead
		return nil
	}
	for _, s := range cands {
		child, err := leaf.child(r.next+1, s)
		if err != nil {
			return err
		}
		r.next++
		r.nodes[child.ID] = child
		leaf.Children = append(leaf.Children, child.ID)
	}
	leaf.State = Branched
	r.stats.Branches += len(cands)
	log.Debug().Int("node", int(leaf.ID)).Int("children", len(cands)).Str("cell", c.String()).Msg("Hypothesis branched")
	return nil
}

// Sweep removes dead subtrees, folds single-child nodes into their parents
// and promotes ships every leaf agrees on, repeating until nothing changes.
// It returns the number of passes that made a change.
func (r *Registry) Sweep() int {
	passes := 0
	for {
		_, pruned := r.prune(r.root)
		collapsed := r.collapse(r.root)
		merged := r.merge(r.root)
		if !pruned && !collapsed && !merged {
			break
		}
		passes++
	}
	if live := len(r.nodes); live > r.stats.MaxLive {
		r.stats.MaxLive = live
	}
	return passes
}

// prune recomputes weights bottom-up and drops zero-weight children.
func (r *Registry) prune(id NodeID) (float64, bool) {
	n := r.nodes[id]
	if n.IsLeaf() {
		n.weight = n.leafWeight()
		if n.weight == 0 {
			n.State = Dead
		}
		return n.weight, false
	}

	changed := false
	live := n.Children[:0]
	sum := 0.0
	for _, cid := range n.Children {
		w, ch := r.prune(cid)
		changed = changed || ch
		if w == 0 {
			r.remove(cid)
			r.stats.Pruned++
			changed = true
			continue
		}
		live = append(live, cid)
		sum += w
	}
	n.Children = live
	n.weight = sum
	if len(live) == 0 {
		n.State = Dead
	}
	return sum, changed
}

// remove deletes a subtree from the arena.
func (r *Registry) remove(id NodeID) {
	n := r.nodes[id]
	for _, c := range n.Children {
		r.remove(c)
	}
	delete(r.nodes, id)
}

// collapse folds every node with exactly one child into that node's parent
// position: the parent takes over the child's grid, fleet and confirmed
// ships and adopts the child's children.
func (r *Registry) collapse(id NodeID) bool {
	n := r.nodes[id]
	changed := false
	for len(n.Children) == 1 {
		child := r.nodes[n.Children[0]]
		n.Grid = child.Grid
		n.Fleet = child.Fleet
		n.Confirmed = child.Confirmed
		n.Depth = child.Depth
		n.weight = child.weight
		n.Children = child.Children
		for _, gc := range n.Children {
			r.nodes[gc].Parent = n.ID
		}
		child.State = Collapsed
		delete(r.nodes, child.ID)
		r.stats.Collapses++
		changed = true
		log.Debug().Int("node", int(n.ID)).Int("absorbed", int(child.ID)).Msg("Hypothesis collapsed")
	}
	if n.IsLeaf() {
		if n.State == Branched {
			n.State = Active
		}
		return changed
	}
	n.State = Branched
	for _, c := range n.Children {
		if r.collapse(c) {
			changed = true
		}
	}
	return changed
}

// merge promotes, at every branched node, the confirmed ships shared by all
// live leaves beneath it.
func (r *Registry) merge(id NodeID) bool {
	n := r.nodes[id]
	if n.IsLeaf() {
		return false
	}
	changed := false
	for _, s := range r.agreed(n) {
		if err := r.promote(n.ID, s); err != nil {
			log.Error().Err(err).Int("node", int(n.ID)).Msg("Hypothesis merge failed")
			continue
		}
		r.stats.Merges++
		changed = true
		log.Debug().Int("node", int(n.ID)).Str("ship", s.String()).Msg("Hypothesis merged")
	}
	for _, c := range n.Children {
		if r.merge(c) {
			changed = true
		}
	}
	return changed
}

// agreed returns the ships every leaf under n has confirmed that n has not.
func (r *Registry) agreed(n *Node) []ConfirmedShip {
	var leaves []*Node
	r.walk(n.ID, func(x *Node) {
		if x.IsLeaf() {
			leaves = append(leaves, x)
		}
	})
	if len(leaves) == 0 {
		return nil
	}
	var out []ConfirmedShip
	for _, s := range leaves[0].Confirmed {
		if n.HasConfirmed(s) {
			continue
		}
		shared := true
		for _, l := range leaves[1:] {
			if !l.HasConfirmed(s) {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, s)
		}
	}
	return out
}

// promote applies s to id and to every internal descendant lacking it.
// Leaves already hold it.
func (r *Registry) promote(id NodeID, s ConfirmedShip) error {
	n := r.nodes[id]
	if n.HasConfirmed(s) {
		return nil
	}
	if err := n.confirm(s); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := r.promote(c, s); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate folds the live tree into one shot field. Branched nodes mix their
// children's fields by normalized weight and rescale the mix to their own
// unlocated mass; leaves evaluate directly.
func (r *Registry) Evaluate() Field {
	return r.evaluate(r.Root())
}

func (r *Registry) evaluate(n *Node) Field {
	if n.IsLeaf() {
		return Evaluate(n.Grid, n.Fleet)
	}
	f := NewField(n.Grid.Size())
	total := 0.0
	for _, cid := range n.Children {
		total += r.nodes[cid].weight
	}
	if total == 0 {
		return f
	}
	for _, cid := range n.Children {
		c := r.nodes[cid]
		f.addScaled(r.evaluate(c), c.weight/total)
	}
	f.mask(n.Grid)
	f.normalize(float64(n.Mass()))
	return f
}

// NodeInfo is a read-only view of one node for inspection.
type NodeInfo struct {
	ID        NodeID   `json:"id"`
	Parent    NodeID   `json:"parent"`
	Children  []NodeID `json:"children,omitempty"`
	State     string   `json:"state"`
	Depth     int      `json:"depth"`
	Weight    float64  `json:"weight"`
	Fleet     string   `json:"fleet"`
	Confirmed []string `json:"confirmed,omitempty"`
	Grid      string   `json:"grid"`
}

// Snapshot describes every live node in ID order.
func (r *Registry) Snapshot() []NodeInfo {
	out := make([]NodeInfo, 0, len(r.nodes))
	for _, n := range r.nodes {
		info := NodeInfo{
			ID:       n.ID,
			Parent:   n.Parent,
			Children: append([]NodeID(nil), n.Children...),
			State:    n.State.String(),
			Depth:    n.Depth,
			Weight:   n.weight,
			Fleet:    n.Fleet.String(),
			Grid:     battleship.EncodeGrid(n.Grid),
		}
		for _, s := range n.Confirmed {
			info.Confirmed = append(info.Confirmed, s.String())
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

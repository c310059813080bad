package battleship

import "testing"

func TestGridWithSharesUntouchedRows(t *testing.T) {
	g := NewGrid(DefaultSize)
	h := g.With(Cell{Row: 3, Col: 4}, Hit)

	if g.At(Cell{Row: 3, Col: 4}) != Untried {
		t.Fatal("source grid was mutated")
	}
	if h.At(Cell{Row: 3, Col: 4}) != Hit {
		t.Fatalf("expected hit, got %s", h.At(Cell{Row: 3, Col: 4}))
	}
	for r := 0; r < DefaultSize; r++ {
		shared := g.sharesRow(h, r)
		if r == 3 && shared {
			t.Error("written row should be copied")
		}
		if r != 3 && !shared {
			t.Errorf("row %d should be shared", r)
		}
	}
}

func TestGridOutOfBoundsReadsAsMiss(t *testing.T) {
	g := NewGrid(5)
	for _, c := range []Cell{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		if g.At(c) != Miss {
			t.Errorf("%s: expected miss wall, got %s", c, g.At(c))
		}
	}
}

func TestGridCountAndCells(t *testing.T) {
	g := NewGrid(4).WithAll([]Cell{{0, 0}, {2, 3}, {1, 1}}, Hit).With(Cell{3, 3}, Miss)
	if g.Count(Hit) != 3 {
		t.Errorf("hits: got %d, want 3", g.Count(Hit))
	}
	cells := g.Cells(Hit)
	want := []Cell{{0, 0}, {1, 1}, {2, 3}}
	if len(cells) != len(want) {
		t.Fatalf("cells: got %v, want %v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d: got %s, want %s", i, cells[i], want[i])
		}
	}
}

func TestFleetRemoveAndDistinct(t *testing.T) {
	f := NewFleet(3, 5, 2, 3, 4)
	if f.String() != "5,4,3,3,2" {
		t.Fatalf("sorted fleet: got %s", f)
	}
	g, ok := f.Remove(3)
	if !ok || g.String() != "5,4,3,2" {
		t.Fatalf("remove 3: got %s ok=%v", g, ok)
	}
	if f.String() != "5,4,3,3,2" {
		t.Fatal("Remove mutated its receiver")
	}
	if _, ok := f.Remove(7); ok {
		t.Error("removing a missing length should fail")
	}
	if d := f.Distinct(); len(d) != 4 {
		t.Errorf("distinct: got %v", d)
	}
	if f.Total() != 17 || f.Min() != 2 {
		t.Errorf("total/min: got %d/%d", f.Total(), f.Min())
	}
}

func TestFleetValidate(t *testing.T) {
	tests := []struct {
		name  string
		fleet Fleet
		size  int
		ok    bool
	}{
		{"default", DefaultFleet, 10, true},
		{"too long", NewFleet(6), 5, false},
		{"empty", Fleet{}, 10, false},
		{"too many cells", NewFleet(2, 2, 2), 2, false},
		{"zero length", NewFleet(0), 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fleet.Validate(tt.size)
			if (err == nil) != tt.ok {
				t.Errorf("Validate: got err=%v, want ok=%v", err, tt.ok)
			}
		})
	}
}

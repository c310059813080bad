package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/freeeve/salvo/internal/model"
)

func tempStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := NewRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewRunStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListRuns(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	want := []model.Run{
		{ID: "r1", BatchID: "b1", Strategy: "hard", Size: 10, Fleet: "5,4,3,3,2", Seed: 1, Moves: 44, Won: true, Layout: "0,0,h,5", DurationMs: 12},
		{ID: "r2", BatchID: "b1", Strategy: "hard", Size: 10, Fleet: "5,4,3,3,2", Seed: 2, Moves: 51, Won: true, Layout: "1,1,v,5", DurationMs: 9},
	}
	for i := range want {
		if err := s.SaveRun(ctx, &want[i]); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	other := model.Run{ID: "r3", BatchID: "b2", Strategy: "easy", Layout: "x"}
	if err := s.SaveRun(ctx, &other); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.ListRuns(ctx, "b1")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateRunRejected(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	run := model.Run{ID: "dup", BatchID: "b", Strategy: "hard", Layout: "x"}
	if err := s.SaveRun(ctx, &run); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRun(ctx, &run); err == nil {
		t.Fatal("expected a duplicate id to fail")
	}
}

func TestEmptyBatch(t *testing.T) {
	s := tempStore(t)
	runs, err := s.ListRuns(context.Background(), "none")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}

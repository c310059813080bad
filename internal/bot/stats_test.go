package bot

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistogram(t *testing.T) {
	h := NewHistogram([]int{3, 5, 5, 7})
	if diff := cmp.Diff([]int{0, 0, 0, 1, 0, 2, 0, 1}, h.Counts); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 0, 0, 1, 1, 3, 3, 4}, h.Cumulative()); diff != "" {
		t.Errorf("cumulative (-want +got):\n%s", diff)
	}
	if h.Mean() != 5 {
		t.Errorf("mean = %f", h.Mean())
	}
	if h.Min() != 3 || h.Max() != 7 {
		t.Errorf("min/max = %d/%d", h.Min(), h.Max())
	}
}

func TestEmptyHistogram(t *testing.T) {
	var h Histogram
	if h.Mean() != 0 || h.Min() != 0 || h.Max() != 0 {
		t.Error("empty histogram should report zeros")
	}
	if got := h.SampleMeans(rand.New(rand.NewSource(1)), 10, 10); got != nil {
		t.Errorf("expected no samples, got %v", got)
	}
}

func TestSampleMeansTrackPopulationMean(t *testing.T) {
	h := NewHistogram([]int{40, 50, 50, 60, 45, 55})
	rng := rand.New(rand.NewSource(3))
	means := h.SampleMeans(rng, 500, 50)
	if len(means) != 50 {
		t.Fatalf("got %d sample means", len(means))
	}
	if got := Mean(means); math.Abs(got-h.Mean()) > 1 {
		t.Errorf("bootstrap mean %f far from population mean %f", got, h.Mean())
	}
}

func TestSamplerStaysInSupport(t *testing.T) {
	h := NewHistogram([]int{2, 9, 9, 9})
	sp := h.Sampler(rand.New(rand.NewSource(5)))
	seen := map[int]int{}
	for i := 0; i < 400; i++ {
		d := sp.Draw()
		if d != 2 && d != 9 {
			t.Fatalf("drew %d", d)
		}
		seen[d]++
	}
	if seen[2] == 0 || seen[9] <= seen[2] {
		t.Errorf("draws should follow the counts, got %v", seen)
	}
}

func TestSamplerReproducible(t *testing.T) {
	h := NewHistogram([]int{30, 35, 35, 41, 50, 62})
	a := h.SampleMeans(rand.New(rand.NewSource(11)), 100, 5)
	b := h.SampleMeans(rand.New(rand.NewSource(11)), 100, 5)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed gave different samples (-a +b):\n%s", diff)
	}
}

func TestEmptyHistogramHasNoSampler(t *testing.T) {
	var h Histogram
	if h.Sampler(rand.New(rand.NewSource(1))) != nil {
		t.Error("empty histogram should have no sampler")
	}
}

func TestSummarizeCountsOnlyWins(t *testing.T) {
	results := []*ArenaResult{
		{Moves: 40, Won: true},
		{Moves: 60, Won: true},
		{Moves: 100, Won: false},
	}
	s := Summarize("hard", results, rand.New(rand.NewSource(1)))
	if s.Games != 3 || s.Wins != 2 {
		t.Errorf("games/wins = %d/%d", s.Games, s.Wins)
	}
	if s.Mean != 50 {
		t.Errorf("mean = %f", s.Mean)
	}
	if s.SRSMean < 40 || s.SRSMean > 60 {
		t.Errorf("srs mean %f outside support", s.SRSMean)
	}
}

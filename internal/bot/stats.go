package bot

import (
	"math/rand"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

const (
	// SRSSize is the number of draws in one simple random sample.
	SRSSize = 1000
	// SRSSamples is the number of samples drawn.
	SRSSamples = 1000
)

// Histogram counts finished games by move count. Counts[k] is the number of
// games won in exactly k moves.
type Histogram struct {
	Counts []int `json:"counts"`
	Total  int   `json:"total"`
}

// NewHistogram buckets move counts.
func NewHistogram(moves []int) Histogram {
	h := Histogram{}
	for _, m := range moves {
		h.Add(m)
	}
	return h
}

// Add records one game.
func (h *Histogram) Add(moves int) {
	if moves < 0 {
		return
	}
	for len(h.Counts) <= moves {
		h.Counts = append(h.Counts, 0)
	}
	h.Counts[moves]++
	h.Total++
}

// Cumulative returns running totals: the k-th entry is the number of games
// finished within k moves.
func (h Histogram) Cumulative() []int {
	out := make([]int, len(h.Counts))
	run := 0
	for k, n := range h.Counts {
		run += n
		out[k] = run
	}
	return out
}

// Mean is the average move count, or 0 for an empty histogram.
func (h Histogram) Mean() float64 {
	if h.Total == 0 {
		return 0
	}
	return stat.Mean(h.support(), h.weights())
}

// support is the move count of every bucket: 0, 1, 2, ...
func (h Histogram) support() []float64 {
	xs := make([]float64, len(h.Counts))
	for k := range xs {
		xs[k] = float64(k)
	}
	return xs
}

func (h Histogram) weights() []float64 {
	ws := make([]float64, len(h.Counts))
	for k, n := range h.Counts {
		ws[k] = float64(n)
	}
	return ws
}

// Min and Max return the smallest and largest recorded move counts.
func (h Histogram) Min() int {
	for k, n := range h.Counts {
		if n > 0 {
			return k
		}
	}
	return 0
}

func (h Histogram) Max() int {
	for k := len(h.Counts) - 1; k >= 0; k-- {
		if h.Counts[k] > 0 {
			return k
		}
	}
	return 0
}

// Sampler draws move counts with replacement from a histogram's empirical
// distribution.
type Sampler struct {
	w       sampleuv.Weighted
	weights []float64
}

// Sampler returns a Sampler seeded from rng, or nil for an empty histogram.
func (h Histogram) Sampler(rng *rand.Rand) *Sampler {
	if h.Total == 0 {
		return nil
	}
	ws := h.weights()
	return &Sampler{
		w:       sampleuv.NewWeighted(ws, xrand.NewSource(uint64(rng.Int63()))),
		weights: ws,
	}
}

// Draw returns one move count.
func (s *Sampler) Draw() int {
	k, ok := s.w.Take()
	if !ok {
		return 0
	}
	// Take removes the bucket; put it back so draws stay independent.
	s.w.Reweight(k, s.weights[k])
	return k
}

// SampleMeans draws samples simple random samples of size draws each from
// the histogram and returns the mean of each sample.
func (h Histogram) SampleMeans(rng *rand.Rand, size, samples int) []float64 {
	sp := h.Sampler(rng)
	if sp == nil || size <= 0 {
		return nil
	}
	means := make([]float64, samples)
	draws := make([]float64, size)
	for i := range means {
		for j := range draws {
			draws[j] = float64(sp.Draw())
		}
		means[i] = stat.Mean(draws, nil)
	}
	return means
}

// Summary is the report printed after a batch.
type Summary struct {
	Strategy  string    `json:"strategy"`
	Games     int       `json:"games"`
	Wins      int       `json:"wins"`
	Mean      float64   `json:"mean"`
	Min       int       `json:"min"`
	Max       int       `json:"max"`
	SRSMean   float64   `json:"srs_mean"`
	Histogram Histogram `json:"histogram"`
}

// Summarize aggregates arena results for one strategy.
func Summarize(strategy string, results []*ArenaResult, rng *rand.Rand) Summary {
	s := Summary{Strategy: strategy, Games: len(results)}
	for _, r := range results {
		if r.Won {
			s.Wins++
			s.Histogram.Add(r.Moves)
		}
	}
	s.Mean = s.Histogram.Mean()
	s.Min = s.Histogram.Min()
	s.Max = s.Histogram.Max()
	s.SRSMean = Mean(s.Histogram.SampleMeans(rng, SRSSize, SRSSamples))
	return s
}

// Mean averages xs, returning 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

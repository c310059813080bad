package bot

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"

	"github.com/freeeve/salvo/internal/bot/hypothesis"
	"github.com/freeeve/salvo/pkg/battleship"
)

// GonnxModelPath is the directory containing shot_policy.onnx.
// Set at startup from the GONNX_MODEL_PATH env var or default to "models".
var GonnxModelPath string

const (
	policyFile   = "shot_policy.onnx"
	policyInput  = "grid"
	policyOutput = "shot_logits"
	// gridPlanes is one input plane per cell status.
	gridPlanes = 4
)

var (
	policyMu    sync.Mutex
	policyCache = map[string]*policyModel{}
)

// policyModel serializes access to one loaded network.
type policyModel struct {
	mu    sync.Mutex
	model *gonnx.Model
}

func loadPolicy() (*policyModel, error) {
	dir := GonnxModelPath
	if dir == "" {
		dir = "models"
	}
	path := filepath.Join(dir, policyFile)

	policyMu.Lock()
	defer policyMu.Unlock()
	if m, ok := policyCache[path]; ok {
		return m, nil
	}
	model, err := gonnx.NewModelFromFile(path)
	if err != nil {
		return nil, err
	}
	m := &policyModel{model: model}
	policyCache[path] = m
	return m, nil
}

// newNeuralOrFallback attempts to create a NeuralStrategy. If the model
// cannot be loaded it falls back to the hypothesis solver.
func newNeuralOrFallback(size int, fleet battleship.Fleet) Strategy {
	s, err := NewNeuralStrategy(size, fleet)
	if err != nil {
		log.Warn().Err(err).Msg("bot: neural requested but model load failed; falling back to hard")
		return NewSolver(size, fleet)
	}
	return s
}

// NeuralStrategy asks an ONNX policy network for shot logits over the board
// and fires at the best untried cell. A hypothesis solver tracks the same
// observations and answers whenever inference fails.
type NeuralStrategy struct {
	policy *policyModel
	solver *Solver
}

// NewNeuralStrategy loads the policy network.
func NewNeuralStrategy(size int, fleet battleship.Fleet) (*NeuralStrategy, error) {
	p, err := loadPolicy()
	if err != nil {
		return nil, err
	}
	return &NeuralStrategy{policy: p, solver: NewSolver(size, fleet)}, nil
}

func (s *NeuralStrategy) Name() string { return "neural" }

func (s *NeuralStrategy) NextShot() (battleship.Cell, error) {
	g := s.solver.Registry().Root().Grid
	logits, err := s.runPolicy(g)
	if err != nil {
		log.Warn().Err(err).Msg("bot/gonnx: policy inference failed, falling back to hard")
		return s.solver.NextShot()
	}
	c, ok := bestUntried(logits, g)
	if !ok {
		return s.solver.NextShot()
	}
	return c, nil
}

func (s *NeuralStrategy) Observe(c battleship.Cell, res battleship.Result) error {
	return s.solver.Observe(c, res)
}

// Field reports the backing solver's field; the network's logits are not
// probabilities.
func (s *NeuralStrategy) Field() hypothesis.Field { return s.solver.Field() }

func (s *NeuralStrategy) HitMode() bool { return s.solver.HitMode() }

func (s *NeuralStrategy) LiveNodes() int { return s.solver.LiveNodes() }

func (s *NeuralStrategy) Stats() hypothesis.Stats { return s.solver.Stats() }

// EncodeGrid lays g out as [planes][row][col] one-hot status planes in the
// order untried, miss, hit, sunk.
func EncodeGrid(g battleship.Grid) []float32 {
	n := g.Size()
	out := make([]float32, gridPlanes*n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			plane := int(g.At(battleship.Cell{Row: r, Col: c}))
			out[plane*n*n+r*n+c] = 1
		}
	}
	return out
}

// runPolicy encodes g and runs the policy model, returning flat logits.
func (s *NeuralStrategy) runPolicy(g battleship.Grid) ([]float32, error) {
	n := g.Size()
	input := tensor.New(
		tensor.WithShape(1, gridPlanes, n, n),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(EncodeGrid(g)),
	)

	s.policy.mu.Lock()
	outputs, err := s.policy.model.Run(gonnx.Tensors{policyInput: input})
	s.policy.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("policy run: %w", err)
	}

	out, ok := outputs[policyOutput]
	if !ok {
		return nil, fmt.Errorf("output %q not found", policyOutput)
	}

	var logits []float32
	switch d := out.Data().(type) {
	case []float32:
		logits = d
	case []float64:
		logits = make([]float32, len(d))
		for i, v := range d {
			logits[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("unexpected output type %T", d)
	}
	if len(logits) != n*n {
		return nil, fmt.Errorf("policy returned %d logits for a %dx%d board", len(logits), n, n)
	}
	return logits, nil
}

// bestUntried returns the untried cell with the largest logit.
func bestUntried(logits []float32, g battleship.Grid) (battleship.Cell, bool) {
	n := g.Size()
	best := float32(math.Inf(-1))
	var pick battleship.Cell
	found := false
	for i, v := range logits {
		c := battleship.Cell{Row: i / n, Col: i % n}
		if g.At(c) != battleship.Untried || math.IsNaN(float64(v)) {
			continue
		}
		if !found || v > best {
			best, pick, found = v, c, true
		}
	}
	return pick, found
}

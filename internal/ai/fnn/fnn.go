// Package fnn implements a feed-forward neural network (FNN) action scorer, built on go-deep.
//
// It maps the board features (one input per cell) to one score per cell, and it is trained one
// (features, targets) pair at a time with plain SGD on the squared error.
package fnn

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/features"
	deep "github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Config of a Network.
type Config struct {
	// Layers are the widths of each layer, starting with the input and ending with the output.
	// There must be at least 2 layers (input and output).
	Layers []int

	// Activation of the hidden layers: one of "tanh", "relu", "sigmoid" or "linear".
	// The output layer is always linear.
	Activation string

	// LearningRate used by Learn.
	LearningRate float64

	// InitStdDev is the standard deviation of the normal distribution used to initialize weights.
	InitStdDev float64

	// Seed for the weights initialization.
	Seed uint64
}

// DefaultLayers returns the layer widths for a board of the given size:
// N², 2N², 2N², N², N².
func DefaultLayers(boardSize int) []int {
	dim := features.Dim(boardSize)
	return []int{dim, 2 * dim, 2 * dim, dim, dim}
}

// DefaultConfig for a board of the given size.
func DefaultConfig(boardSize int) Config {
	return Config{
		Layers:       DefaultLayers(boardSize),
		Activation:   "tanh",
		LearningRate: 0.01,
		InitStdDev:   0.1,
	}
}

var activations = map[string]deep.ActivationType{
	"tanh":    deep.ActivationTanh,
	"relu":    deep.ActivationReLU,
	"sigmoid": deep.ActivationSigmoid,
	"linear":  deep.ActivationLinear,
}

// Network is a feed-forward network implementing ai.ActionLearner.
//
// It is safe for concurrent use, but calls are serialized: go-deep keeps the activations
// inside the neurons. Use Clone to evaluate in parallel.
type Network struct {
	cfg Config

	mu     sync.Mutex
	net    *deep.Neural
	solver *training.SGD

	// FileName where to Save the model. Optional.
	FileName string
}

var (
	// Assert Network is an ai.ActionLearner, an ai.Snapshotter and an ai.Saver.
	_ ai.ActionLearner = (*Network)(nil)
	_ ai.Snapshotter   = (*Network)(nil)
	_ ai.Saver         = (*Network)(nil)
)

// New creates a Network with freshly initialized weights. The initialization is deterministic
// given cfg.Seed.
//
// It panics if the configuration is invalid.
func New(cfg Config) *Network {
	if len(cfg.Layers) < 2 {
		exceptions.Panicf("fnn.New requires at least 2 layers (input and output), got %v", cfg.Layers)
	}
	for _, width := range cfg.Layers {
		if width <= 0 {
			exceptions.Panicf("fnn.New requires positive layer widths, got %v", cfg.Layers)
		}
	}
	if cfg.Activation == "" {
		cfg.Activation = "tanh"
	}
	if _, found := activations[cfg.Activation]; !found {
		exceptions.Panicf("fnn.New: unknown activation %q", cfg.Activation)
	}
	if cfg.InitStdDev <= 0 {
		cfg.InitStdDev = 0.1
	}
	cfg.Layers = slices.Clone(cfg.Layers)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5eed))
	stdDev := cfg.InitStdDev
	return &Network{
		cfg:    cfg,
		net:    newNeural(cfg, func() float64 { return rng.NormFloat64() * stdDev }),
		solver: newSolver(cfg),
	}
}

// newSolver is plain SGD: no momentum, no decay.
func newSolver(cfg Config) *training.SGD {
	return training.NewSGD(cfg.LearningRate, 0, 0, false)
}

func newNeural(cfg Config, init deep.WeightInitializer) *deep.Neural {
	return deep.NewNeural(&deep.Config{
		Inputs:     cfg.Layers[0],
		Layout:     slices.Clone(cfg.Layers[1:]),
		Activation: activations[cfg.Activation],
		Mode:       deep.ModeRegression,
		Loss:       deep.LossMeanSquared,
		Weight:     init,
		Bias:       true,
	})
}

// Config returns the network configuration.
func (n *Network) Config() Config {
	cfg := n.cfg
	cfg.Layers = slices.Clone(cfg.Layers)
	return cfg
}

// String implements ai.ActionScorer.
func (n *Network) String() string {
	widths := make([]string, len(n.cfg.Layers))
	for ii, w := range n.cfg.Layers {
		widths[ii] = fmt.Sprint(w)
	}
	return fmt.Sprintf("fnn[%s]/%s", strings.Join(widths, ","), n.cfg.Activation)
}

func (n *Network) numInputs() int  { return n.cfg.Layers[0] }
func (n *Network) numOutputs() int { return n.cfg.Layers[len(n.cfg.Layers)-1] }

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for ii, v := range values {
		out[ii] = float64(v)
	}
	return out
}

// ActionScores implements ai.ActionScorer: it is the forward pass of the network.
func (n *Network) ActionScores(input []float32) []float32 {
	if len(input) != n.numInputs() {
		exceptions.Panicf("fnn: input has dimension %d, network %s expects %d", len(input), n, n.numInputs())
	}
	n.mu.Lock()
	output := n.net.Predict(toFloat64(input))
	n.mu.Unlock()
	scores := make([]float32, len(output))
	for ii, v := range output {
		scores[ii] = float32(v)
	}
	return scores
}

// Learn implements ai.ActionLearner: it takes one SGD step minimizing the squared error between
// ActionScores(input) and target.
func (n *Network) Learn(input, target []float32) {
	if len(input) != n.numInputs() || len(target) != n.numOutputs() {
		exceptions.Panicf("fnn: Learn got input/target dimensions %d/%d, network %s expects %d/%d",
			len(input), len(target), n, n.numInputs(), n.numOutputs())
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	// The solver is shared across steps. The trainer wrapping it is not: go-deep's stats printer
	// buffers a header on every Train call and only flushes when verbose.
	trainer := training.NewTrainer(n.solver, 0)
	trainer.Train(n.net, training.Examples{{Input: toFloat64(input), Response: toFloat64(target)}}, nil, 1)
}

// Loss returns the squared error between ActionScores(input) and target, summed over the outputs.
func (n *Network) Loss(input, target []float32) float64 {
	scores := n.ActionScores(input)
	var loss float64
	for ii, s := range scores {
		diff := float64(s) - float64(target[ii])
		loss += diff * diff
	}
	return loss
}

// Clone returns an independent copy of the network, with the same configuration and weights.
func (n *Network) Clone() *Network {
	n.mu.Lock()
	weights := n.net.Dump().Weights
	n.mu.Unlock()
	cfg := n.Config()
	newN := &Network{
		cfg:      cfg,
		net:      newNeural(cfg, func() float64 { return 0 }),
		solver:   newSolver(cfg),
		FileName: n.FileName,
	}
	newN.net.ApplyWeights(weights)
	return newN
}

// Snapshot implements ai.Snapshotter.
func (n *Network) Snapshot() ai.ActionScorer { return n.Clone() }

// ShapeMismatchError is returned when loading parameters whose shapes don't match the network topology.
type ShapeMismatchError struct {
	// Expected and Got are the layer widths of the network and of the parameters being loaded.
	Expected, Got []int

	// Detail, if set, describes which weight matrix disagrees.
	Detail string
}

// Error implements error.
func (e *ShapeMismatchError) Error() string {
	msg := fmt.Sprintf("parameters shape mismatch: network has layers %v, parameters have layers %v", e.Expected, e.Got)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// paramsVersion of the serialized format.
const paramsVersion = 1

// params is the serialized form of the network: the layer widths are the shape metadata, and Weights
// are indexed by [layer][neuron][input], where the last input of each neuron is its bias.
type params struct {
	Version    int           `json:"version"`
	Layers     []int         `json:"layers"`
	Activation string        `json:"activation"`
	Weights    [][][]float64 `json:"weights"`
}

// Serialize the network parameters into an opaque blob.
func (n *Network) Serialize() ([]byte, error) {
	n.mu.Lock()
	p := params{
		Version:    paramsVersion,
		Layers:     slices.Clone(n.cfg.Layers),
		Activation: n.cfg.Activation,
		Weights:    n.net.Dump().Weights,
	}
	n.mu.Unlock()
	blob, err := json.Marshal(&p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %s", n)
	}
	return blob, nil
}

// Deserialize replaces the network parameters with the ones in blob, created by Serialize.
//
// If the layer widths (or any weight matrix dimension) in blob don't match the network, it returns
// a *ShapeMismatchError and the network is left unchanged.
func (n *Network) Deserialize(blob []byte) error {
	var p params
	if err := json.Unmarshal(blob, &p); err != nil {
		return errors.Wrapf(err, "failed to parse parameters for %s", n)
	}
	if p.Version != paramsVersion {
		return errors.Errorf("unsupported parameters version %d (expected %d)", p.Version, paramsVersion)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if !slices.Equal(p.Layers, n.cfg.Layers) {
		return &ShapeMismatchError{Expected: slices.Clone(n.cfg.Layers), Got: p.Layers}
	}
	current := n.net.Dump().Weights
	if detail := compareShapes(current, p.Weights); detail != "" {
		return &ShapeMismatchError{Expected: slices.Clone(n.cfg.Layers), Got: p.Layers, Detail: detail}
	}
	if p.Activation != n.cfg.Activation {
		return errors.Errorf("parameters were trained with activation %q, but network %s uses %q",
			p.Activation, n, n.cfg.Activation)
	}
	n.net.ApplyWeights(p.Weights)
	return nil
}

// compareShapes returns a description of the first difference in shape, or "" if they match.
func compareShapes(want, got [][][]float64) string {
	if len(want) != len(got) {
		return fmt.Sprintf("%d weight layers, expected %d", len(got), len(want))
	}
	for layer := range want {
		if len(want[layer]) != len(got[layer]) {
			return fmt.Sprintf("layer #%d has %d neurons, expected %d", layer, len(got[layer]), len(want[layer]))
		}
		for neuron := range want[layer] {
			if len(want[layer][neuron]) != len(got[layer][neuron]) {
				return fmt.Sprintf("layer #%d neuron #%d has %d inputs, expected %d",
					layer, neuron, len(got[layer][neuron]), len(want[layer][neuron]))
			}
		}
	}
	return ""
}

// Save model to n.FileName. If the file already exists, it is first renamed with a "~" suffix.
func (n *Network) Save() error {
	if n.FileName == "" {
		klog.Errorf("Model %s not saved, because no file name was specified", n)
		return nil
	}
	blob, err := n.Serialize()
	if err != nil {
		return err
	}

	// Rename existing file, if it exists.
	file := n.FileName
	if _, err := os.Stat(file); err == nil {
		err = os.Rename(file, file+"~")
		if err != nil {
			return errors.Wrapf(err, "failed to rename %s to %s", file, file+"~")
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat %s", file)
	}
	if err := os.WriteFile(file, blob, 0644); err != nil {
		return errors.Wrapf(err, "failed to save %s", file)
	}
	klog.V(1).Infof("Saved %s to %s", n, file)
	return nil
}

// LoadOrCreate creates a network with cfg and, if fileName exists, loads its parameters.
// The returned network has FileName set, so Save writes back to the same file.
//
// A file whose shapes don't match cfg.Layers yields a *ShapeMismatchError.
func LoadOrCreate(fileName string, cfg Config) (*Network, error) {
	n := New(cfg)
	n.FileName = fileName
	if fileName == "" {
		return n, nil
	}
	blob, err := os.ReadFile(fileName)
	if os.IsNotExist(err) {
		klog.V(1).Infof("Model file %s not found, created new model %s", fileName, n)
		return n, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "LoadOrCreate failed to read file %s", fileName)
	}
	if err := n.Deserialize(blob); err != nil {
		return nil, errors.WithMessagef(err, "LoadOrCreate failed to load %s", fileName)
	}
	klog.V(1).Infof("Loaded %s from %s", n, fileName)
	return n, nil
}

// Package _default registers the default players that can be included in any
// front-end for othelloGo.
//
// Currently, it includes the network agent ("agent", backed by go-deep or GoMLX), a uniformly random player ("random") and a human
// playing on the terminal ("human").
package _default

import (
	"math/rand/v2"
	"os"

	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/ai/fnn"
	"github.com/janpfeifer/othelloGo/internal/ai/gomlx"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/players"
	"github.com/janpfeifer/othelloGo/internal/ui/cli"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func init() {
	players.RegisterModule("agent", &Agent{})
	players.RegisterModule("random", &Random{})
	players.RegisterModule("human", &Human{})
}

// Agent creates players.Agent players. Parameters:
//
//   - model (string): "fnn" (default) for the go-deep network, or "gomlx" for the GoMLX one.
//   - weights (string): file (fnn) or checkpoint directory (gomlx) with the model parameters.
//     If empty or missing, a freshly initialized model is used.
//   - preset (string): difficulty, one of "easy", "medium" or "hard" (default). See players.Presets.
//   - epsilon (float): exploration rate, it overrides the preset.
//   - seed (int): seed for the network initialization and the policy. If 0 (default) a random seed is used.
//   - lr (float): learning rate, only relevant if the agent is trained.
type Agent struct{}

var _ players.Module = (*Agent)(nil)

// NewPlayer implements players.Module.
func (m *Agent) NewPlayer(boardSize int, params parameters.Params) (players.Player, error) {
	modelType, err := parameters.PopParamOr(params, "model", ModelFNN)
	if err != nil {
		return nil, err
	}
	weights, err := parameters.PopParamOr(params, "weights", "")
	if err != nil {
		return nil, err
	}
	preset, err := parameters.PopParamOr(params, "preset", "hard")
	if err != nil {
		return nil, err
	}
	epsilon, found := players.Presets[preset]
	if !found {
		return nil, errors.Errorf("unknown preset %q, valid values are \"easy\", \"medium\" or \"hard\"", preset)
	}
	epsilon, err = parameters.PopParamOr(params, "epsilon", epsilon)
	if err != nil {
		return nil, err
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, errors.Errorf("epsilon=%g must be in the range [0, 1]", epsilon)
	}
	lr, err := parameters.PopParamOr(params, "lr", 0.0)
	if err != nil {
		return nil, err
	}
	seed, err := parameters.PopParamOr(params, "seed", 0)
	if err != nil {
		return nil, err
	}
	rng := newRNG(seed)

	model, err := NewModel(modelType, weights, boardSize, lr, rng.Uint64())
	if err != nil {
		return nil, err
	}
	if weights == "" {
		klog.Warningf("Agent created without weights: it will play with an untrained model %s", model)
	}
	return players.NewAgent(model, epsilon, rng), nil
}

// Model types accepted by NewModel.
const (
	ModelFNN   = "fnn"
	ModelGoMLX = "gomlx"
)

// NewModel creates a learner of the given type (ModelFNN or ModelGoMLX) for the board size, loading its
// parameters from weights, if it exists. The returned model saves back to weights.
//
// A learning rate of 0 uses the model's default.
func NewModel(modelType, weights string, boardSize int, lr float64, seed uint64) (ai.ActionLearner, error) {
	switch modelType {
	case ModelFNN:
		cfg := fnn.DefaultConfig(boardSize)
		if lr > 0 {
			cfg.LearningRate = lr
		}
		cfg.Seed = seed
		net, err := fnn.LoadOrCreate(weights, cfg)
		if err != nil {
			return nil, err
		}
		return net, nil
	case ModelGoMLX:
		cfg := gomlx.DefaultConfig(boardSize)
		if lr > 0 {
			cfg.LearningRate = lr
		}
		cfg.Seed = seed
		cfg.Dir = weights
		learner, err := gomlx.New(cfg)
		if err != nil {
			return nil, err
		}
		return learner, nil
	}
	return nil, errors.Errorf("unknown model %q, valid values are %q or %q", modelType, ModelFNN, ModelGoMLX)
}

// Random creates players that play uniformly at random among the valid moves. Parameters:
//
//   - seed (int): if 0 (default) a random seed is used.
type Random struct{}

var _ players.Module = (*Random)(nil)

// NewPlayer implements players.Module.
func (m *Random) NewPlayer(boardSize int, params parameters.Params) (players.Player, error) {
	seed, err := parameters.PopParamOr(params, "seed", 0)
	if err != nil {
		return nil, err
	}
	rng := newRNG(seed)
	cfg := fnn.DefaultConfig(boardSize)
	cfg.Seed = rng.Uint64()
	// Epsilon=1: the network is never evaluated.
	return players.NewAgent(fnn.New(cfg), 1, rng), nil
}

// Human creates cli.Human players, reading moves from os.Stdin. Parameters:
//
//   - color (bool): whether to use colors in the terminal, default is true.
type Human struct{}

var _ players.Module = (*Human)(nil)

// NewPlayer implements players.Module.
func (m *Human) NewPlayer(_ int, params parameters.Params) (players.Player, error) {
	color, err := parameters.PopParamOr(params, "color", true)
	if err != nil {
		return nil, err
	}
	return cli.NewHuman(cli.New(os.Stdout, color), os.Stdin), nil
}

func newRNG(seed int) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

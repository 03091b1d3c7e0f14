// Package gomlx implements an ai.ActionLearner on a GoMLX feed-forward network, an alternative to the
// go-deep model of package fnn.
//
// A GoMLX backend must be linked in the binary, e.g.: import _ "github.com/gomlx/gomlx/backends/simplego".
package gomlx

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/checkpoints"
	"github.com/gomlx/gomlx/ml/layers"
	"github.com/gomlx/gomlx/ml/layers/activations"
	fnnLayer "github.com/gomlx/gomlx/ml/layers/fnn"
	"github.com/gomlx/gomlx/ml/layers/regularizers"
	"github.com/gomlx/gomlx/ml/train"
	"github.com/gomlx/gomlx/ml/train/losses"
	"github.com/gomlx/gomlx/ml/train/optimizers"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/features"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// backend is a singleton, the same for all models.
	backend = sync.OnceValue(func() backends.Backend { return backends.New() })

	// muNewExec serializes the creation of executors.
	muNewExec sync.Mutex
)

// ParamBoardSize is the context hyperparameter with the board size the model was built for.
const ParamBoardSize = "board_size"

// Config of a Learner.
type Config struct {
	BoardSize int

	// HiddenLayers and HiddenNodes (per layer) of the network. The output layer is linear, with one
	// score per board cell.
	HiddenLayers, HiddenNodes int

	// Activation of the hidden layers, e.g.: "tanh", "relu", "sigmoid" or "swish".
	Activation string

	// Optimizer, e.g.: "sgd" or "adam".
	Optimizer    string
	LearningRate float64

	// Seed for the initialization of the variables.
	Seed uint64

	// Dir where the model is checkpointed. If it holds a checkpoint, it is loaded, and the
	// hyperparameters saved with it take precedence. Optional.
	Dir string

	// Keep is the number of older checkpoints to keep in Dir.
	Keep int
}

// DefaultConfig for a board of the given size: it mirrors the default topology of fnn.DefaultLayers.
func DefaultConfig(boardSize int) Config {
	return Config{
		BoardSize:    boardSize,
		HiddenLayers: 2,
		HiddenNodes:  2 * features.Dim(boardSize),
		Activation:   "tanh",
		Optimizer:    "sgd",
		LearningRate: 0.01,
		Keep:         10,
	}
}

// Learner is an ai.ActionLearner backed by a GoMLX model.
//
// It is safe for concurrent use: scores are evaluated concurrently, and Learn is exclusive.
type Learner struct {
	cfg Config
	dim int
	ctx *context.Context

	// Executors.
	scoreExec, lossExec, trainStepExec *context.Exec
	optimizer                          optimizers.Interface

	// checkpoint handler, if Config.Dir was given.
	checkpoint *checkpoints.Handler

	// mu is "write" locked for learning, and "read" locked for scoring.
	mu sync.RWMutex

	// muSave makes saving sequential.
	muSave sync.Mutex
}

var (
	// Assert Learner is an ai.ActionLearner and an ai.Saver.
	_ ai.ActionLearner = (*Learner)(nil)
	_ ai.Saver         = (*Learner)(nil)
)

// New creates a Learner with freshly initialized variables, or loaded from cfg.Dir if it has a checkpoint.
//
// It fails if no GoMLX backend is available, or if the checkpoint was saved for a different board size.
func New(cfg Config) (l *Learner, err error) {
	if cfg.BoardSize <= 0 || cfg.HiddenLayers < 0 || (cfg.HiddenLayers > 0 && cfg.HiddenNodes <= 0) {
		return nil, errors.Errorf("invalid gomlx model configuration: board size %d, %d hidden layers of %d nodes",
			cfg.BoardSize, cfg.HiddenLayers, cfg.HiddenNodes)
	}
	if cfg.Activation == "" {
		cfg.Activation = "tanh"
	}
	if cfg.Optimizer == "" {
		cfg.Optimizer = "sgd"
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 10
	}
	l = &Learner{cfg: cfg, dim: features.Dim(cfg.BoardSize)}

	err = exceptions.TryCatch[error](func() {
		_ = backend()
		l.ctx = l.newContext()
		if cfg.Dir != "" {
			l.checkpoint = must.M1(checkpoints.Build(l.ctx).Dir(cfg.Dir).Immediate().Keep(cfg.Keep).Done())
		}
		if boardSize := paramBoardSize(l.ctx); boardSize != cfg.BoardSize {
			exceptions.Panicf("model in %q was built for board size %d, not %d", cfg.Dir, boardSize, cfg.BoardSize)
		}
		l.buildExecs()

		// Force creating (or loading) the variables.
		_ = l.ActionScores(make([]float32, l.dim))
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create gomlx model %s", l)
	}
	return l, nil
}

// newContext with the hyperparameters from the configuration.
func (l *Learner) newContext() *context.Context {
	ctx := context.New()
	ctx.RngStateFromSeed(int64(l.cfg.Seed))
	ctx.SetParams(map[string]any{
		ParamBoardSize: l.cfg.BoardSize,

		optimizers.ParamOptimizer:    l.cfg.Optimizer,
		optimizers.ParamLearningRate: l.cfg.LearningRate,
		activations.ParamActivation:  l.cfg.Activation,
		layers.ParamDropoutRate:      0.0,
		regularizers.ParamL2:         0.0,

		fnnLayer.ParamNumHiddenLayers: l.cfg.HiddenLayers,
		fnnLayer.ParamNumHiddenNodes:  l.cfg.HiddenNodes,
		fnnLayer.ParamResidual:        false,
		fnnLayer.ParamNormalization:   "none",
	})
	return ctx.Checked(false)
}

// paramBoardSize returns the board size stored in the context: checkpoints may restore it as a float64.
func paramBoardSize(ctx *context.Context) int {
	value, found := ctx.GetParam(ParamBoardSize)
	if !found {
		return 0
	}
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (l *Learner) buildExecs() {
	muNewExec.Lock()
	defer muNewExec.Unlock()
	l.optimizer = optimizers.FromContext(l.ctx)
	l.scoreExec = context.NewExec(backend(), l.ctx,
		func(ctx *context.Context, inputs []*graph.Node) *graph.Node {
			// Remove the batch axis.
			return graph.Squeeze(l.forwardGraph(ctx, inputs[0]), 0)
		})
	l.lossExec = context.NewExec(backend(), l.ctx,
		func(ctx *context.Context, inputsAndLabels []*graph.Node) *graph.Node {
			return l.lossGraph(ctx, inputsAndLabels[0], inputsAndLabels[1])
		})
	l.trainStepExec = context.NewExec(backend(), l.ctx,
		func(ctx *context.Context, inputsAndLabels []*graph.Node) *graph.Node {
			labels := inputsAndLabels[1]
			g := labels.Graph()
			ctx.SetTraining(g, true)
			loss := l.lossGraph(ctx, inputsAndLabels[0], labels)
			l.optimizer.UpdateGraph(ctx, g, loss)
			train.ExecPerStepUpdateGraphFn(ctx, g)
			return loss
		})
}

// forwardGraph maps the features, shaped [batch, dim], to the scores, also shaped [batch, dim].
func (l *Learner) forwardGraph(ctx *context.Context, x *graph.Node) *graph.Node {
	scores := fnnLayer.New(ctx.In("fnn"), x, l.dim).Done()
	scores.AssertDims(x.Shape().Dim(0), l.dim)
	return scores
}

func (l *Learner) lossGraph(ctx *context.Context, x, labels *graph.Node) *graph.Node {
	predictions := l.forwardGraph(ctx, x)
	loss := losses.MeanSquaredError([]*graph.Node{labels}, []*graph.Node{predictions})
	if !loss.IsScalar() {
		loss = graph.ReduceAllMean(loss)
	}
	return loss
}

// String implements ai.ActionScorer.
func (l *Learner) String() string {
	desc := fmt.Sprintf("gomlx[%dx%d]/%s", l.cfg.HiddenLayers, l.cfg.HiddenNodes, l.cfg.Activation)
	if l.cfg.Dir != "" {
		desc += "@" + l.cfg.Dir
	}
	return desc
}

// Config returns the model configuration.
func (l *Learner) Config() Config { return l.cfg }

// createInput returns a donated [1, dim] tensor with values.
func (l *Learner) createInput(values []float32) any {
	if len(values) != l.dim {
		exceptions.Panicf("gomlx: got vector of dimension %d, model %s expects %d", len(values), l, l.dim)
	}
	t := tensors.FromShape(shapes.Make(dtypes.Float32, 1, l.dim))
	tensors.MutableFlatData(t, func(flat []float32) {
		copy(flat, values)
	})
	return graph.DonateTensorBuffer(t, backend())
}

// ActionScores implements ai.ActionScorer.
func (l *Learner) ActionScores(input []float32) []float32 {
	x := l.createInput(input)
	l.mu.RLock()
	defer l.mu.RUnlock()
	scoresT := l.scoreExec.Call(x)[0]
	return slices.Clone(scoresT.Value().([]float32))
}

// Learn implements ai.ActionLearner: one optimizer step on the mean squared error between
// ActionScores(input) and target.
func (l *Learner) Learn(input, target []float32) {
	_ = l.LearnWithLoss(input, target)
}

// LearnWithLoss is like Learn, and it returns the loss before the step.
func (l *Learner) LearnWithLoss(input, target []float32) float32 {
	x, labels := l.createInput(input), l.createInput(target)
	l.mu.Lock()
	defer l.mu.Unlock()
	lossT := l.trainStepExec.Call(x, labels)[0]
	return tensors.ToScalar[float32](lossT)
}

// Loss returns the mean squared error between ActionScores(input) and target.
func (l *Learner) Loss(input, target []float32) float32 {
	x, labels := l.createInput(input), l.createInput(target)
	l.mu.RLock()
	defer l.mu.RUnlock()
	lossT := l.lossExec.Call(x, labels)[0]
	return tensors.ToScalar[float32](lossT)
}

// Save a new checkpoint in Config.Dir. It is a no-op, with a warning, if no directory was configured.
func (l *Learner) Save() error {
	if l.checkpoint == nil {
		klog.Warningf("Model %s is not associated to a checkpoint directory, not saving", l)
		return nil
	}
	l.muSave.Lock()
	defer l.muSave.Unlock()
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.checkpoint.Save(); err != nil {
		return errors.WithMessagef(err, "failed to save %s", l)
	}
	klog.V(1).Infof("Saved %s", l)
	return nil
}

package fnn

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomBoardInput returns a vector with values in {-1, 0, +1}, like a board encoding.
func randomBoardInput(rng *rand.Rand, dim int) []float32 {
	x := make([]float32, dim)
	for ii := range x {
		x[ii] = float32(rng.IntN(3) - 1)
	}
	return x
}

func smallConfig(seed uint64) Config {
	return Config{
		Layers:       []int{16, 32, 32, 16},
		Activation:   "tanh",
		LearningRate: 0.01,
		Seed:         seed,
	}
}

func TestDefaultLayers(t *testing.T) {
	assert.Equal(t, []int{64, 128, 128, 64, 64}, DefaultLayers(8))
	n := New(DefaultConfig(8))
	assert.Equal(t, "fnn[64,128,128,64,64]/tanh", n.String())
	assert.Len(t, n.ActionScores(make([]float32, 64)), 64)
}

func TestDeterministicInit(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	n1, n2, n3 := New(smallConfig(7)), New(smallConfig(7)), New(smallConfig(8))
	for range 10 {
		x := randomBoardInput(rng, 16)
		assert.Equal(t, n1.ActionScores(x), n2.ActionScores(x))
		// Also repeated evaluation gives the same answer.
		assert.Equal(t, n1.ActionScores(x), n1.ActionScores(x))
	}
	x := randomBoardInput(rng, 16)
	assert.NotEqual(t, n1.ActionScores(x), n3.ActionScores(x))
}

func TestLearnDecreasesLoss(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	n := New(smallConfig(1))
	x := randomBoardInput(rng, 16)
	target := make([]float32, 16)
	for ii := range target {
		target[ii] = 2*rng.Float32() - 1
	}
	prevLoss := n.Loss(x, target)
	require.Greater(t, prevLoss, 0.0)
	for step := range 5 {
		n.Learn(x, target)
		loss := n.Loss(x, target)
		assert.Lessf(t, loss, prevLoss, "loss didn't decrease at step %d", step)
		prevLoss = loss
	}
}

func TestLearnReusesSolver(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	n1, n2 := New(smallConfig(3)), New(smallConfig(3))
	solver := n1.solver
	require.NotNil(t, solver)
	for range 20 {
		x := randomBoardInput(rng, 16)
		target := make([]float32, 16)
		for ii := range target {
			target[ii] = 2*rng.Float32() - 1
		}
		n1.Learn(x, target)
		n2.Learn(x, target)
	}
	assert.Same(t, solver, n1.solver)
	x := randomBoardInput(rng, 16)
	assert.Equal(t, n1.ActionScores(x), n2.ActionScores(x))

	// Clones get their own solver.
	assert.NotSame(t, n1.solver, n1.Clone().solver)
}

func TestSerializeRoundTrip(t *testing.T) {
	original := New(smallConfig(11))
	blob, err := original.Serialize()
	require.NoError(t, err)

	// Different seed: different initial weights, that must be overwritten.
	restored := New(smallConfig(12))
	require.NoError(t, restored.Deserialize(blob))

	rng := rand.New(rand.NewPCG(5, 5))
	for range 100 {
		x := randomBoardInput(rng, 16)
		assert.InDeltaSlice(t, original.ActionScores(x), restored.ActionScores(x), 1e-6)
	}
}

func TestDeserializeShapeMismatch(t *testing.T) {
	other := New(Config{Layers: []int{16, 8, 16}, Seed: 1})
	blob, err := other.Serialize()
	require.NoError(t, err)

	n := New(smallConfig(1))
	x := randomBoardInput(rand.New(rand.NewPCG(1, 1)), 16)
	before := n.ActionScores(x)

	err = n.Deserialize(blob)
	require.Error(t, err)
	var shapeErr *ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr), "expected *ShapeMismatchError, got %T: %v", err, err)
	assert.Equal(t, []int{16, 32, 32, 16}, shapeErr.Expected)
	assert.Equal(t, []int{16, 8, 16}, shapeErr.Got)

	// Network is unchanged.
	assert.Equal(t, before, n.ActionScores(x))

	// Metadata claiming the right layers, but with truncated weights is also caught.
	good, err := n.Serialize()
	require.NoError(t, err)
	bad := []byte(`{"version":1,"layers":[16,32,32,16],"activation":"tanh","weights":[[[0.1]]]}`)
	err = n.Deserialize(bad)
	require.True(t, errors.As(err, &shapeErr))
	assert.NotEmpty(t, shapeErr.Detail)
	require.NoError(t, n.Deserialize(good))

	// Corrupted blob is an error, but not a shape mismatch.
	err = n.Deserialize([]byte("not json"))
	require.Error(t, err)
	assert.False(t, errors.As(err, &shapeErr))
}

func TestClone(t *testing.T) {
	n := New(smallConfig(2))
	c := n.Clone()
	rng := rand.New(rand.NewPCG(9, 9))
	x := randomBoardInput(rng, 16)
	assert.Equal(t, n.ActionScores(x), c.ActionScores(x))

	target := make([]float32, 16)
	c.Learn(x, target)
	assert.NotEqual(t, n.ActionScores(x), c.ActionScores(x))
}

func TestSaveAndLoadOrCreate(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "model.json")

	// File doesn't exist: a new model is created.
	n, err := LoadOrCreate(fileName, smallConfig(3))
	require.NoError(t, err)
	require.NoError(t, n.Save())
	_, err = os.Stat(fileName)
	require.NoError(t, err)

	// Saving again keeps a backup of the previous version.
	x := randomBoardInput(rand.New(rand.NewPCG(4, 4)), 16)
	n.Learn(x, make([]float32, 16))
	require.NoError(t, n.Save())
	_, err = os.Stat(fileName + "~")
	require.NoError(t, err)

	loaded, err := LoadOrCreate(fileName, smallConfig(99))
	require.NoError(t, err)
	assert.InDeltaSlice(t, n.ActionScores(x), loaded.ActionScores(x), 1e-6)

	// Loading into a different topology fails with ShapeMismatchError.
	_, err = LoadOrCreate(fileName, Config{Layers: []int{16, 4, 16}})
	var shapeErr *ShapeMismatchError
	assert.True(t, errors.As(err, &shapeErr))
}

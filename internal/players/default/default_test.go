package _default

import (
	"path/filepath"
	"testing"

	"github.com/janpfeifer/othelloGo/internal/ai/fnn"
	"github.com/janpfeifer/othelloGo/internal/ai/gomlx"
	"github.com/janpfeifer/othelloGo/internal/players"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/ui/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/gomlx/gomlx/backends/simplego"
)

func TestNewAgent(t *testing.T) {
	p, err := players.New("agent:preset=easy,seed=3", 8)
	require.NoError(t, err)
	agent, ok := p.(*players.Agent)
	require.True(t, ok)
	assert.Equal(t, float32(0.6), agent.Epsilon())

	p, err = players.New("agent,epsilon=0.2", 6)
	require.NoError(t, err)
	agent = p.(*players.Agent)
	assert.Equal(t, float32(0.2), agent.Epsilon())
	assert.Equal(t, fnn.DefaultLayers(6), agent.Model.(*fnn.Network).Config().Layers)

	// Default configuration.
	p, err = players.New("", 8)
	require.NoError(t, err)
	assert.Equal(t, float32(0), p.(*players.Agent).Epsilon())
}

func TestNewAgentWithWeights(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "agent.json")
	net := fnn.New(fnn.DefaultConfig(4))
	net.FileName = fileName
	require.NoError(t, net.Save())

	p, err := players.New("agent:weights="+fileName, 4)
	require.NoError(t, err)
	agent := p.(*players.Agent)
	x := make([]float32, 16)
	x[5] = 1
	assert.Equal(t, net.ActionScores(x), agent.Model.ActionScores(x))

	// Weights for a 4x4 board can't be used on a 6x6 board.
	_, err = players.New("agent:weights="+fileName, 6)
	var shapeErr *fnn.ShapeMismatchError
	assert.ErrorAs(t, err, &shapeErr)
}

func TestNewGoMLXAgent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gomlx_agent")
	p, err := players.New("agent:model=gomlx,seed=3,weights="+dir, 4)
	require.NoError(t, err)
	agent := p.(*players.Agent)
	learner, ok := agent.Model.(*gomlx.Learner)
	require.True(t, ok)
	assert.Equal(t, 4, learner.Config().BoardSize)
	require.NoError(t, learner.Save())

	board := NewBoard(4)
	legal := board.LegalMoves(Black)
	pos, moved := agent.Play(board, Black, false)
	require.True(t, moved)
	assert.Contains(t, legal, pos)

	// Loaded back from the checkpoint.
	p, err = players.New("agent:model=gomlx,weights="+dir, 4)
	require.NoError(t, err)
	x := make([]float32, 16)
	x[5] = 1
	assert.InDeltaSlice(t, learner.ActionScores(x), p.(*players.Agent).Model.ActionScores(x), 1e-5)
}

func TestNewPlayerErrors(t *testing.T) {
	for _, config := range []string{
		"unknown",
		"agent:preset=impossible",
		"agent:epsilon=2",
		"agent:epsilon=abc",
		"agent:foo=bar",
		"agent:model=xgboost",
		"random:seed=1,depth=3",
		"human:color=maybe",
	} {
		_, err := players.New(config, 8)
		assert.Errorf(t, err, "config %q should fail", config)
	}
}

func TestRandom(t *testing.T) {
	p, err := players.New("random:seed=5", 8)
	require.NoError(t, err)
	board := NewBoard(8)
	legal := board.LegalMoves(Black)
	pos, moved := p.Play(board, Black, false)
	require.True(t, moved)
	assert.Contains(t, legal, pos)
	assert.Equal(t, []string{"agent", "human", "random"}, players.Modules())
}

func TestHuman(t *testing.T) {
	p, err := players.New("human:color=false", 8)
	require.NoError(t, err)
	assert.IsType(t, &cli.Human{}, p)
}

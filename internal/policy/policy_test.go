package policy

import (
	"math/rand/v2"
	"testing"

	"github.com/janpfeifer/othelloGo/internal/features"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScorer returns always the same scores, and counts how many times it was called.
type fixedScorer struct {
	scores []float32
	calls  int
}

func (s *fixedScorer) ActionScores(features []float32) []float32 {
	s.calls++
	return s.scores
}

func (s *fixedScorer) String() string { return "fixed" }

// scoresFavoring returns scores for a 8x8 board where the given positions have decreasing scores,
// and all others are 0.
func scoresFavoring(positions ...Pos) []float32 {
	scores := make([]float32, 64)
	for ii, pos := range positions {
		scores[pos.Index(8)] = float32(len(positions) - ii)
	}
	return scores
}

func TestExploit(t *testing.T) {
	scorer := &fixedScorer{scores: scoresFavoring(Pos{5, 4}, Pos{2, 3})}
	p := New(scorer, 0, rand.New(rand.NewPCG(1, 1)))
	board := NewBoard(DefaultSize)
	before := features.ForBoard(board, Black)

	pos, moved := p.Play(board, Black, true)
	require.True(t, moved)
	assert.Equal(t, Pos{5, 4}, pos)
	assert.Equal(t, Black, board.At(Pos{5, 4}))
	assert.Equal(t, 1, scorer.calls)

	require.Len(t, p.History(), 1)
	assert.Equal(t, Pos{5, 4}.Index(8), p.History()[0].Action)
	assert.Equal(t, before, p.History()[0].State)
}

func TestExploitSkipsInvalidCells(t *testing.T) {
	// Best scored cells are occupied or invalid: the first valid one in the ranking is played.
	scorer := &fixedScorer{scores: scoresFavoring(Pos{0, 0}, Pos{3, 3}, Pos{7, 7}, Pos{3, 2}, Pos{2, 3})}
	p := New(scorer, 0, nil)
	board := NewBoard(DefaultSize)
	pos, moved := p.Play(board, Black, false)
	require.True(t, moved)
	assert.Equal(t, Pos{3, 2}, pos)
	assert.Empty(t, p.History(), "record=false should not record")
}

func TestExploitAsWhiteUsesRelativeFeatures(t *testing.T) {
	scorer := &fixedScorer{scores: scoresFavoring(Pos{2, 4})}
	p := New(scorer, 0, nil)
	board := NewBoard(DefaultSize)
	want := features.ForBoard(board, White)
	pos, moved := p.Play(board, White, true)
	require.True(t, moved)
	assert.Equal(t, Pos{2, 4}, pos)
	assert.Equal(t, want, p.History()[0].State)
}

func TestExplore(t *testing.T) {
	scorer := &fixedScorer{scores: make([]float32, 64)}
	rng := rand.New(rand.NewPCG(7, 7))
	p := New(scorer, 1, rng)
	for range 20 {
		board := NewBoard(DefaultSize)
		legal := board.LegalMoves(Black)
		pos, moved := p.Play(board, Black, true)
		require.True(t, moved)
		assert.Contains(t, legal, pos)
	}
	assert.Equal(t, 0, scorer.calls, "exploring should not evaluate the model")
	assert.Len(t, p.History(), 20)

	p.ResetHistory()
	assert.Empty(t, p.History())
}

func TestExploreIsDeterministicGivenSeed(t *testing.T) {
	play := func() []Pos {
		p := New(&fixedScorer{}, 1, rand.New(rand.NewPCG(3, 4)))
		board := NewBoard(DefaultSize)
		var moves []Pos
		tile := Black
		for range 10 {
			if pos, moved := p.Play(board, tile, false); moved {
				moves = append(moves, pos)
			}
			tile = tile.Enemy()
		}
		return moves
	}
	assert.Equal(t, play(), play())
}

func TestPass(t *testing.T) {
	// The only White stone is in the corner, it can't be flanked: no valid move for Black.
	board := statetest.BuildBoard(
		"XXXX",
		"XXXX",
		"XX..",
		"XX.O",
	)
	require.Empty(t, board.LegalMoves(Black))
	before := board.Clone()
	for _, epsilon := range []float32{0, 1} {
		p := New(&fixedScorer{scores: make([]float32, 16)}, epsilon, nil)
		_, moved := p.Play(board, Black, true)
		assert.False(t, moved)
		assert.Empty(t, p.History())
		assert.True(t, board.Equal(before))
	}
}

// Package policy implements the epsilon-greedy move selection used by the learning agents.
//
// With probability Epsilon it explores: it tries the board cells in a random order. Otherwise it
// exploits: it tries the cells in decreasing order of the scores given by the model. Either way the
// first cell accepted by the board is played, and if none is, the player passes.
package policy

import (
	"math/rand/v2"

	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/features"
	"github.com/janpfeifer/othelloGo/internal/generics"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"k8s.io/klog/v2"
)

// Transition is one recorded decision: the board features from the point of view of the player
// that moved, and the flat index of the cell it played.
type Transition struct {
	State  []float32
	Action int
}

// History is the ordered list of decisions of one player during one game.
type History []Transition

// Policy is an epsilon-greedy move selector over an ai.ActionScorer.
//
// It is not safe for concurrent use: each game should use its own Policy (they can share the scorer,
// if the scorer is itself safe).
type Policy struct {
	scorer  ai.ActionScorer
	epsilon float32
	rng     *rand.Rand
	history History
}

// New creates a Policy. If rng is nil, a randomly seeded one is created.
func New(scorer ai.ActionScorer, epsilon float32, rng *rand.Rand) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Policy{scorer: scorer, epsilon: epsilon, rng: rng}
}

// Scorer returns the model used to exploit.
func (p *Policy) Scorer() ai.ActionScorer { return p.scorer }

// Epsilon returns the current exploration rate.
func (p *Policy) Epsilon() float32 { return p.epsilon }

// SetEpsilon changes the exploration rate.
func (p *Policy) SetEpsilon(epsilon float32) { p.epsilon = epsilon }

// History returns the decisions recorded since the last ResetHistory.
func (p *Policy) History() History { return p.history }

// ResetHistory discards the recorded decisions, typically at the start of a game.
func (p *Policy) ResetHistory() { p.history = nil }

// Play selects and applies a move for tile on board.
//
// It returns the position played and true, or false if no cell is a valid move (a pass).
// If record is true, the decision is appended to the History.
func (p *Policy) Play(board *Board, tile Tile, record bool) (Pos, bool) {
	state := features.ForBoard(board, tile)
	var candidates []int
	if p.rng.Float32() < p.epsilon {
		candidates = p.rng.Perm(board.NumCells())
		if klog.V(2).Enabled() {
			klog.Infof("%s explores (epsilon=%.3f)", tile, p.epsilon)
		}
	} else {
		scores := p.scorer.ActionScores(state)
		candidates = generics.SliceOrdering(scores, true)
	}
	for _, idx := range candidates {
		pos := PosFromIndex(idx, board.Size())
		if board.Apply(tile, pos.Row, pos.Col) {
			if record {
				p.history = append(p.history, Transition{State: state, Action: idx})
			}
			return pos, true
		}
	}
	return Pos{}, false
}

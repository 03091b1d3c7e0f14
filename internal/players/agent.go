package players

import (
	"fmt"
	"math/rand/v2"

	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/policy"
)

// Agent is an AI player: an epsilon-greedy policy over a model.
// It implements Player.
type Agent struct {
	*policy.Policy

	// Model used by the policy.
	Model ai.ActionScorer
}

var _ Player = (*Agent)(nil)

// NewAgent creates an Agent playing with model. If rng is nil a randomly seeded one is used.
func NewAgent(model ai.ActionScorer, epsilon float32, rng *rand.Rand) *Agent {
	return &Agent{
		Policy: policy.New(model, epsilon, rng),
		Model:  model,
	}
}

// String implements fmt.Stringer.
func (a *Agent) String() string {
	return fmt.Sprintf("agent(%s, epsilon=%.2f)", a.Model, a.Epsilon())
}

// Presets of difficulty, mapped to the exploration rate of the agent: easier agents play randomly more often.
var Presets = map[string]float32{
	"easy":   0.6,
	"medium": 0.3,
	"hard":   0,
}

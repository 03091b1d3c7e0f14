// Package trainer implements self-play training: a learning agent plays batches of games
// ("matches") against a fixed opponent, and after each batch its network is updated from the
// recorded decisions with a one-step lookahead (TD-like) target.
package trainer

import (
	"context"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"github.com/chewxy/math32"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/match"
	"github.com/janpfeifer/othelloGo/internal/policy"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Config of the training.
type Config struct {
	// Epochs to train, each one playing MatchSize games followed by the updates.
	Epochs, MatchSize int

	// Discount applied to the lookahead value of the next state.
	Discount float32

	// OpponentEpsilon is the exploration rate of the opponent, constant over the training.
	OpponentEpsilon float32

	// BoardSize used in the games.
	BoardSize int

	// Parallelism is the number of games played simultaneously. Values <= 0 mean runtime.GOMAXPROCS(0).
	Parallelism int

	// Seed for the policies of each game. If 0 a random seed is picked.
	Seed uint64

	// AlternateColors makes the learner play White (second) in every other game. Otherwise,
	// it always plays Black, and moves first.
	AlternateColors bool

	// EpsilonSchedule returns the learner's exploration rate for the given epoch (starting at 1).
	EpsilonSchedule func(epoch int) float32
}

// DefaultConfig returns the configuration used to train the agents.
func DefaultConfig() Config {
	return Config{
		Epochs:          100,
		MatchSize:       10,
		Discount:        0.8,
		OpponentEpsilon: 0.6,
		BoardSize:       DefaultSize,
		Parallelism:     1,
		EpsilonSchedule: AnnealEpsilon,
	}
}

// AnnealEpsilon is the default exploration schedule: it starts close to 1 and decreases monotonically
// towards 0.1 as the epochs advance.
func AnnealEpsilon(epoch int) float32 {
	return (math32.Exp(-0.017*float32(epoch)) + 0.11) / 1.1
}

// Reward maps the final score to [-1, +1], linearly on the learner's share of the stones:
// a share of 0.5 is 0 and a share of 1 is +1. If there are no stones, it is 0.
func Reward(learnerScore, opponentScore int) float32 {
	total := learnerScore + opponentScore
	if total == 0 {
		return 0
	}
	return (float32(learnerScore)/float32(total) - 0.5) * 2
}

// UpdateFromHistory trains learner on the decisions of one game, given the game's final reward.
//
// The transitions are visited in the order they were played. The target for each one is the
// current output of the model for its state, with the entry of the action played replaced by
// the reward, for the last transition, or incremented by discount times the best output of the
// next state, for the others. Each target is learned as soon as it is built.
// The output for the next state is evaluated before learning the current one, and it is reused
// as the base of the next target.
//
// It returns the number of updates: len(history).
func UpdateFromHistory(learner ai.ActionLearner, history policy.History, reward, discount float32) int {
	if len(history) == 0 {
		return 0
	}
	q := learner.ActionScores(history[0].State)
	for ii, transition := range history {
		var qNext []float32
		if ii == len(history)-1 {
			q[transition.Action] = reward
		} else {
			qNext = learner.ActionScores(history[ii+1].State)
			q[transition.Action] += discount * slices.Max(qNext)
		}
		learner.Learn(transition.State, q)
		q = qNext
	}
	return len(history)
}

// EpochStats summarizes one epoch of training.
type EpochStats struct {
	Epoch   int
	Epsilon float32

	// Wins, Draws and Losses of the learner, by the sign of the reward.
	Wins, Draws, Losses int

	MeanReward float32

	// WinRate is the moving average of wins over all games played so far.
	WinRate float32

	// Updates is the number of gradient steps taken.
	Updates int

	Elapsed time.Duration
}

// Trainer trains a learner model against a fixed opponent model.
type Trainer struct {
	cfg      Config
	learner  ai.ActionLearner
	opponent ai.ActionScorer
	winsMA   MovingAverage

	// OnEpoch, if set, is called after each epoch.
	OnEpoch func(stats EpochStats)
}

// New creates a Trainer. The opponent model is never updated.
//
// Models used concurrently (Parallelism > 1) must either be safe for concurrent use or implement
// ai.Snapshotter.
func New(learner ai.ActionLearner, opponent ai.ActionScorer, cfg Config) (*Trainer, error) {
	if learner == nil || opponent == nil {
		return nil, errors.New("trainer requires both a learner and an opponent model")
	}
	if cfg.Epochs <= 0 || cfg.MatchSize <= 0 {
		return nil, errors.Errorf("invalid training configuration: epochs=%d and match size=%d must be > 0",
			cfg.Epochs, cfg.MatchSize)
	}
	if cfg.OpponentEpsilon < 0 || cfg.OpponentEpsilon > 1 {
		return nil, errors.Errorf("opponent epsilon=%g must be in the range [0, 1]", cfg.OpponentEpsilon)
	}
	if cfg.EpsilonSchedule == nil {
		cfg.EpsilonSchedule = AnnealEpsilon
	}
	if cfg.BoardSize == 0 {
		cfg.BoardSize = DefaultSize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}
	return &Trainer{cfg: cfg, learner: learner, opponent: opponent}, nil
}

// Config returns the configuration used, with defaults filled in.
func (t *Trainer) Config() Config { return t.cfg }

// Run all epochs. If ctx is cancelled, it stops before the next game and returns the stats of the
// epochs completed so far, along with the context error.
func (t *Trainer) Run(ctx context.Context) ([]EpochStats, error) {
	var allStats []EpochStats
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		stats, err := t.RunEpoch(ctx, epoch)
		if err != nil {
			return allStats, err
		}
		allStats = append(allStats, stats)
		if t.OnEpoch != nil {
			t.OnEpoch(stats)
		}
	}
	return allStats, nil
}

// gameRecord is what is kept of each game until the updates.
type gameRecord struct {
	history policy.History
	reward  float32
	result  match.Result
}

// RunEpoch plays one batch of games and then updates the learner.
// The learner is only read while the games are played, and it's updated sequentially, in the
// order of the games, after all of them finished.
func (t *Trainer) RunEpoch(ctx context.Context, epoch int) (EpochStats, error) {
	start := time.Now()
	epsilon := t.cfg.EpsilonSchedule(epoch)
	records := make([]gameRecord, t.cfg.MatchSize)

	var wg errgroup.Group
	wg.SetLimit(t.cfg.Parallelism)
	for gameIdx := range t.cfg.MatchSize {
		wg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var learner, opponent ai.ActionScorer = t.learner, t.opponent
			if t.cfg.Parallelism > 1 {
				// Private copies, so games don't contend on the models' locks.
				learner, opponent = snapshot(learner), snapshot(opponent)
			}
			records[gameIdx] = t.playGame(epoch, gameIdx, epsilon, learner, opponent)
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return EpochStats{}, errors.WithMessagef(err, "epoch %d interrupted", epoch)
	}

	stats := EpochStats{Epoch: epoch, Epsilon: epsilon}
	var sumRewards float32
	for _, record := range records {
		outcome := OutcomeOf(record.reward)
		switch outcome {
		case Win:
			stats.Wins++
		case Loss:
			stats.Losses++
		default:
			stats.Draws++
		}
		t.winsMA.Add(outcome)
		sumRewards += record.reward
		stats.Updates += UpdateFromHistory(t.learner, record.history, record.reward, t.cfg.Discount)
	}
	stats.MeanReward = sumRewards / float32(len(records))
	stats.WinRate = t.winsMA.Rate(Win)
	stats.Elapsed = time.Since(start)
	klog.Infof("Epoch %d: epsilon=%.3f, %d wins / %d draws / %d losses, mean reward=%.3f, win rate=%.3f, %d updates (%s)",
		epoch, epsilon, stats.Wins, stats.Draws, stats.Losses, stats.MeanReward, stats.WinRate, stats.Updates,
		stats.Elapsed)
	return stats, nil
}

// snapshot returns a private copy of model if it is an ai.Snapshotter, or model itself otherwise.
func snapshot(model ai.ActionScorer) ai.ActionScorer {
	if s, ok := model.(ai.Snapshotter); ok {
		return s.Snapshot()
	}
	return model
}

// playGame plays one game between the learner (recording its decisions) and the opponent.
// Each game has its own random number generator, derived from the seed, epoch and game index, so
// results don't depend on the order the games are scheduled.
func (t *Trainer) playGame(epoch, gameIdx int, epsilon float32, learner, opponent ai.ActionScorer) gameRecord {
	rng := rand.New(rand.NewPCG(t.cfg.Seed, uint64(epoch)<<32|uint64(gameIdx)))
	learnerPolicy := policy.New(learner, epsilon, rng)
	opponentPolicy := policy.New(opponent, t.cfg.OpponentEpsilon, rng)
	learnerSeat := match.Seat{Name: "learner", Tile: Black, Player: learnerPolicy, Record: true}
	opponentSeat := match.Seat{Name: "opponent", Tile: White, Player: opponentPolicy}
	seats := []match.Seat{learnerSeat, opponentSeat}
	if t.cfg.AlternateColors && gameIdx%2 == 1 {
		// Black always moves first.
		learnerSeat.Tile, opponentSeat.Tile = White, Black
		seats = []match.Seat{opponentSeat, learnerSeat}
	}

	result := match.New(NewBoard(t.cfg.BoardSize), seats...).Run()
	reward := Reward(result.Score[learnerSeat.Tile], result.Score[opponentSeat.Tile])
	if klog.V(1).Enabled() {
		klog.Infof("Epoch %d, game %d: learner as %s scored %d x %d (%s), reward=%.3f",
			epoch, gameIdx, learnerSeat.Tile, result.Score[learnerSeat.Tile], result.Score[opponentSeat.Tile],
			result.Reason, reward)
	}
	return gameRecord{history: learnerPolicy.History(), reward: reward, result: result}
}

package trainer

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// maxMovingAverageWeight is the most weight the moving average carries from past games.
const maxMovingAverageWeight = 0.99

// Outcome of a game for the learner.
type Outcome int

const (
	Win Outcome = iota
	Draw
	Loss
	numOutcomes
)

// OutcomeOf a game given the learner's reward.
func OutcomeOf(reward float32) Outcome {
	switch {
	case reward > 0:
		return Win
	case reward < 0:
		return Loss
	default:
		return Draw
	}
}

// MovingAverage of the outcomes of the learner's games, in the order they were played.
// Once a game is added, the rates sum to 1.
type MovingAverage struct {
	rates [numOutcomes]float32
	count int
}

// Add the outcome of the next game.
func (ma *MovingAverage) Add(outcome Outcome) {
	ma.count++
	weight := min(1-1/float32(ma.count), maxMovingAverageWeight)
	for ii := range ma.rates {
		ma.rates[ii] *= weight
		if Outcome(ii) == outcome {
			ma.rates[ii] += 1 - weight
		}
	}
}

// Rate of the outcome.
func (ma *MovingAverage) Rate(outcome Outcome) float32 {
	return ma.rates[outcome]
}

var statsHeader = []string{"epoch", "epsilon", "wins", "draws", "losses", "mean_reward", "win_rate_ma", "updates"}

// WriteStatsCSV writes one line per epoch, preceded by a header line.
func WriteStatsCSV(w io.Writer, stats []EpochStats) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(statsHeader); err != nil {
		return errors.Wrap(err, "failed to write stats header")
	}
	for _, s := range stats {
		record := []string{
			strconv.Itoa(s.Epoch),
			strconv.FormatFloat(float64(s.Epsilon), 'f', 4, 32),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Draws),
			strconv.Itoa(s.Losses),
			strconv.FormatFloat(float64(s.MeanReward), 'f', 4, 32),
			strconv.FormatFloat(float64(s.WinRate), 'f', 4, 32),
			strconv.Itoa(s.Updates),
		}
		if err := csvWriter.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write stats of epoch %d", s.Epoch)
		}
	}
	csvWriter.Flush()
	return errors.Wrap(csvWriter.Error(), "failed to flush stats")
}

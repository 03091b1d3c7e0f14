package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/janpfeifer/othelloGo/internal/ai"
	defaultplayers "github.com/janpfeifer/othelloGo/internal/players/default"
	"github.com/janpfeifer/othelloGo/internal/trainer"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagEpochs      = flag.Int("epochs", 100, "Number of epochs: each one plays -match_size games and then trains.")
	flagMatchSize   = flag.Int("match_size", 10, "Number of games played per epoch.")
	flagDiscount    = flag.Float64("discount", 0.8, "Discount of the value of the next state in the training targets.")
	flagLR          = flag.Float64("lr", 0.01, "Learning rate.")
	flagParallelism = flag.Int("parallelism", 1, "Number of games played simultaneously. "+
		"If <= 0, GOMAXPROCS is used.")
	flagAlternate = flag.Bool("alternate_colors", false, "If set, the learner plays White in every other game.")

	flagModel = flag.String("model", defaultplayers.ModelFNN, "Type of the learner and opponent models: "+
		"\"fnn\" (go-deep) or \"gomlx\".")
	flagWeights = flag.String("weights", "", "File (or checkpoint directory for -model=gomlx) with the learner "+
		"weights. It is loaded if it exists, and saved at the end of the training.")
	flagOpponent = flag.String("opponent", "", "File (or checkpoint directory) with the opponent weights. "+
		"If empty or not found, a freshly initialized model is used.")
	flagOpponentEpsilon = flag.Float64("opponent_epsilon", 0.6, "Exploration rate of the opponent.")
	flagWinsCSV         = flag.String("wins_csv", "", "If set, the per-epoch wins are written to this CSV file.")
)

// train the learner (-weights) against the opponent (-opponent) by self-play.
func train(ctx context.Context) error {
	seed := *flagSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	learner, err := defaultplayers.NewModel(*flagModel, *flagWeights, *flagBoardSize, *flagLR, seed)
	if err != nil {
		return errors.WithMessage(err, "learner")
	}
	opponent, err := defaultplayers.NewModel(*flagModel, *flagOpponent, *flagBoardSize, *flagLR, seed+1)
	if err != nil {
		return errors.WithMessage(err, "opponent")
	}

	cfg := trainer.DefaultConfig()
	cfg.Epochs = *flagEpochs
	cfg.MatchSize = *flagMatchSize
	cfg.Discount = float32(*flagDiscount)
	cfg.OpponentEpsilon = float32(*flagOpponentEpsilon)
	cfg.BoardSize = *flagBoardSize
	cfg.Parallelism = *flagParallelism
	cfg.Seed = seed
	cfg.AlternateColors = *flagAlternate
	t, err := trainer.New(learner, opponent, cfg)
	if err != nil {
		return err
	}
	t.OnEpoch = func(stats trainer.EpochStats) {
		fmt.Printf("\rEpoch %d/%d: %d wins, %d draws, %d losses (epsilon=%.3f)\x1b[0K",
			stats.Epoch, cfg.Epochs, stats.Wins, stats.Draws, stats.Losses, stats.Epsilon)
	}
	klog.Infof("Training %s against %s: %d epochs of %d games", learner, opponent, cfg.Epochs, cfg.MatchSize)
	stats, runErr := t.Run(ctx)
	fmt.Println()

	// Whatever was trained (even if interrupted) is saved.
	if saver, ok := learner.(ai.Saver); ok {
		if err := saver.Save(); err != nil {
			return err
		}
	}
	if err := saveWins(stats); err != nil {
		return err
	}
	return runErr
}

func saveWins(stats []trainer.EpochStats) error {
	if *flagWinsCSV == "" {
		return nil
	}
	f, err := os.Create(*flagWinsCSV)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", *flagWinsCSV)
	}
	if err := trainer.WriteStatsCSV(f, stats); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "failed to write %s", *flagWinsCSV)
	}
	return errors.Wrapf(f.Close(), "failed to close %s", *flagWinsCSV)
}

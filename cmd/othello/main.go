// othello trains Othello agents by self-play, and plays or evaluates them on the terminal.
//
//	othello -mode=train -weights=models/agent.json -epochs=100 -wins_csv=models/wins.csv
//	othello -mode=play -player1=human -player2=agent:weights=models/agent.json
//	othello -mode=test -player1=agent:weights=models/agent.json -player2=random -num_matches=100
package main

import (
	"context"
	"flag"
	"time"

	"github.com/janpfeifer/must"
	"github.com/janpfeifer/othelloGo/internal/profilers"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/ui/spinning"
	"k8s.io/klog/v2"

	_ "github.com/janpfeifer/othelloGo/internal/players/default"
)

var (
	flagMode = flag.String("mode", "play", "One of \"train\", \"play\" or \"test\".")

	flagPlayers = [2]*string{
		flag.String("player1", "human", "Configuration of the player with Black, that moves first. "+
			"E.g.: \"human\", \"agent:weights=models/agent.json,epsilon=0\", \"agent:preset=easy\" or \"random\"."),
		flag.String("player2", "agent:preset=hard", "Configuration of the player with White."),
	}
	flagBoardSize = flag.Int("board_size", DefaultSize, "Size of the board: an even number >= 4.")
	flagSeed      = flag.Uint64("seed", 0, "Seed for training, and for the AI players in -mode=play or test "+
		"(unless their configuration sets one). If 0 a random seed is used.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is interrupted (Ctrl+C).
	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagBoardSize < MinSize || *flagBoardSize%2 != 0 {
		klog.Exitf("Invalid -board_size=%d, it must be an even number >= %d", *flagBoardSize, MinSize)
	}

	// Capture Control+C
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()

	stopProfilers := must.M1(profilers.Setup())
	defer stopProfilers()

	var err error
	switch *flagMode {
	case "train":
		err = train(globalCtx)
	case "play":
		err = play(globalCtx)
	case "test":
		err = test(globalCtx)
	default:
		klog.Exitf("Invalid -mode=%q, valid values are \"train\", \"play\" or \"test\"", *flagMode)
	}
	if err != nil {
		if globalCtx.Err() != nil {
			klog.Warningf("Interrupted: %v", err)
			return
		}
		klog.Exitf("Failed in mode %q: %+v", *flagMode, err)
	}
}

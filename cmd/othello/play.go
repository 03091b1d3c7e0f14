package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/janpfeifer/othelloGo/internal/match"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/players"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/ui/cli"
	"github.com/janpfeifer/othelloGo/internal/ui/spinning"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var (
	flagNumMatches = flag.Int("num_matches", 100, "Number of matches to play in -mode=test, alternating colors.")
	flagColor      = flag.Bool("color", true, "Use colors in the terminal.")
)

// createSeats creates the players from -player1 and -player2, with player1 playing Black.
func createSeats() ([]match.Seat, error) {
	seats := make([]match.Seat, 2)
	for ii, tile := range Players {
		player, err := players.New(withSeed(*flagPlayers[ii], *flagSeed, ii), *flagBoardSize)
		if err != nil {
			return nil, errors.WithMessagef(err, "-player%d", ii+1)
		}
		seats[ii] = match.Seat{Name: fmt.Sprintf("%v", player), Tile: tile, Player: player}
	}
	return seats, nil
}

// withSeed appends "seed=..." to an AI player configuration, derived from seed and the player index.
// The configuration is returned unchanged if seed is 0, if the player is human, or if it already sets a seed.
func withSeed(config string, seed uint64, playerIdx int) string {
	if seed == 0 {
		return config
	}
	if config == "" {
		config = players.DefaultPlayerConfig
	}
	moduleName, paramsConfig := config, ""
	if split := strings.IndexAny(config, ":,"); split != -1 {
		moduleName, paramsConfig = config[:split], config[split+1:]
	}
	if moduleName == "human" {
		return config
	}
	if _, found := parameters.NewFromConfigString(paramsConfig)["seed"]; found {
		return config
	}
	playerSeed := (seed + uint64(playerIdx)) & math.MaxInt64
	if playerSeed == 0 {
		return config
	}
	if paramsConfig == "" && moduleName == config {
		return config + ":seed=" + strconv.FormatUint(playerSeed, 10)
	}
	return config + ",seed=" + strconv.FormatUint(playerSeed, 10)
}

// play one match between -player1 and -player2 on the terminal.
func play(ctx context.Context) error {
	seats, err := createSeats()
	if err != nil {
		return err
	}
	ui := cli.New(os.Stdout, *flagColor)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		for ii := range seats {
			if _, isHuman := seats[ii].Player.(*cli.Human); !isHuman {
				seats[ii].Player = &spinningPlayer{ctx: ctx, Player: seats[ii].Player}
			}
		}
	}
	m := match.New(NewBoard(*flagBoardSize), seats...)
	m.Observer = func(board *Board, seat match.Seat, pos Pos, moved bool) {
		if moved {
			fmt.Printf("Move #%d: %s plays %d %d\n", m.MoveNumber, seat, pos.Row+1, pos.Col+1)
		} else {
			fmt.Printf("Move #%d: %s passes\n", m.MoveNumber, seat)
		}
	}

	result := m.Run()
	ui.PrintBoard(m.Board)
	ui.PrintWinner(result)
	return ctx.Err()
}

// spinningPlayer shows a spinner while the wrapped player thinks.
type spinningPlayer struct {
	players.Player
	ctx context.Context
}

func (p *spinningPlayer) Play(board *Board, tile Tile, record bool) (Pos, bool) {
	s := spinning.New(p.ctx, os.Stdout)
	defer s.Done()
	return p.Player.Play(board, tile, record)
}

func hasHuman(seats []match.Seat) bool {
	for _, seat := range seats {
		if _, ok := seat.Player.(*cli.Human); ok {
			return true
		}
	}
	return false
}

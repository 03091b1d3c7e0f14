package main

import (
	"context"
	"fmt"
	"time"

	"github.com/janpfeifer/othelloGo/internal/match"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// test plays -num_matches matches between -player1 and -player2, alternating who plays Black,
// and reports the results from the point of view of player1.
func test(ctx context.Context) error {
	if *flagNumMatches <= 0 {
		return errors.Errorf("invalid -num_matches=%d", *flagNumMatches)
	}
	seats, err := createSeats()
	if err != nil {
		return err
	}
	if hasHuman(seats) {
		return errors.New("-mode=test requires AI players")
	}

	var wins, draws, losses int
	start := time.Now()
	printUpdate := func(count int) {
		fmt.Printf("\rPlaying: %d of %d finished (%d/%d/%d wins/draws/losses of player1) in %s\x1b[0K",
			count, *flagNumMatches, wins, draws, losses, time.Since(start).Round(time.Second))
	}
	for matchIdx := range *flagNumMatches {
		if ctx.Err() != nil {
			break
		}
		// Swap colors every other match: Black always moves first.
		player1, player2 := seats[0], seats[1]
		player1.Tile, player2.Tile = Black, White
		matchSeats := []match.Seat{player1, player2}
		if matchIdx%2 == 1 {
			player1.Tile, player2.Tile = White, Black
			matchSeats = []match.Seat{player2, player1}
		}
		result := match.New(NewBoard(*flagBoardSize), matchSeats...).Run()
		switch result.Winner() {
		case player1.Tile:
			wins++
		case Empty:
			draws++
		default:
			losses++
		}
		klog.V(1).Infof("Match %d: %s %d x %d %s (%s)", matchIdx, player1, result.Score[player1.Tile],
			result.Score[player2.Tile], player2, result.Reason)
		printUpdate(matchIdx + 1)
	}
	fmt.Println()
	total := wins + draws + losses
	if total > 0 {
		fmt.Printf("%s: %d wins (%.1f%%), %d draws, %d losses against %s\n", seats[0].Name,
			wins, 100*float64(wins)/float64(total), draws, losses, seats[1].Name)
	}
	return ctx.Err()
}

// Package statetest provides helper functions to create tests using Othello boards.
package statetest

import (
	"math/rand/v2"
	"strings"

	"github.com/janpfeifer/must"
	. "github.com/janpfeifer/othelloGo/internal/state"
)

// BuildBoard from one string per row, with 'X' for Black, 'O' for White and '.' for Empty.
// It panics if the layout is not a valid square board.
func BuildBoard(rows ...string) *Board {
	return must.M1(ParseBoard(strings.Join(rows, "\n")))
}

// RandomPlayout plays up to maxMoves random legal moves from board, alternating players starting with Black,
// and passing when a player has no move. It returns every intermediate board, the first being a clone of board.
func RandomPlayout(board *Board, maxMoves int, rng *rand.Rand) []*Board {
	boards := []*Board{board.Clone()}
	tile := Black
	passes := 0
	for range maxMoves {
		if passes >= 2 {
			break
		}
		moves := board.LegalMoves(tile)
		if len(moves) == 0 {
			passes++
		} else {
			passes = 0
			move := moves[rng.IntN(len(moves))]
			board.Apply(tile, move.Row, move.Col)
			boards = append(boards, board.Clone())
		}
		tile = tile.Enemy()
	}
	return boards
}

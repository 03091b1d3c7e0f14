// Package features converts boards to the input vectors consumed by the AI models.
package features

import (
	. "github.com/janpfeifer/othelloGo/internal/state"
)

// Values used to encode each cell, relative to the player about to move.
const (
	Own      = float32(1)
	Opponent = float32(-1)
	None     = float32(0)
)

// Dim returns the dimension of the feature vector for a board of the given size: one entry per cell.
func Dim(boardSize int) int {
	return boardSize * boardSize
}

// ForBoard encodes the board from the point of view of player: its own stones are +1, the opponent's
// are -1 and empty cells are 0, flattened in row-major order.
//
// Encoding relative to the player lets the same model play either color.
func ForBoard(b *Board, player Tile) []float32 {
	f := make([]float32, b.NumCells())
	for idx, tile := range b.Cells() {
		switch tile {
		case Empty:
			f[idx] = None
		case player:
			f[idx] = Own
		default:
			f[idx] = Opponent
		}
	}
	return f
}

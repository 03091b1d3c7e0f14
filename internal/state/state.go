// Package state holds the Othello board: tiles, positions, legality, flips and scores.
package state

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tile is the content of one board cell.
type Tile uint8

const (
	Empty Tile = iota
	Black
	White

	// NumTiles is the number of distinct Tile values.
	NumTiles
)

const (
	// DefaultSize of the board: the classic 8x8 Othello.
	DefaultSize = 8

	// MinSize of a board, it needs room for the 4 initial stones plus a ring around them.
	MinSize = 4
)

// ErrInvalidTile is raised (panicked) when asking the enemy of a tile that is not a player.
var ErrInvalidTile = errors.New("invalid tile")

var tileNames = [NumTiles]string{"Empty", "Black", "White"}

// String implements fmt.Stringer.
func (t Tile) String() string {
	if t >= NumTiles {
		return fmt.Sprintf("Tile(%d)", uint8(t))
	}
	return tileNames[t]
}

// IsPlayer returns whether the tile is Black or White.
func (t Tile) IsPlayer() bool {
	return t == Black || t == White
}

// Enemy returns the opponent's tile.
// It panics with an error wrapping ErrInvalidTile if t is not Black or White.
func (t Tile) Enemy() Tile {
	switch t {
	case Black:
		return White
	case White:
		return Black
	}
	panic(errors.Wrapf(ErrInvalidTile, "%s has no enemy", t))
}

// Players enumerates the tiles that can play, in the order they move in a standard game.
var Players = [2]Tile{Black, White}

// Pos is a (Row, Col) position on the board, 0-indexed.
type Pos struct {
	Row, Col int
}

// String returns a text representation of Pos.
func (pos Pos) String() string {
	return fmt.Sprintf("(%d, %d)", pos.Row, pos.Col)
}

// Index returns the row-major flat index of pos on a board of the given size.
func (pos Pos) Index(size int) int {
	return pos.Row*size + pos.Col
}

// PosFromIndex converts a row-major flat index back to a Pos.
func PosFromIndex(idx, size int) Pos {
	return Pos{Row: idx / size, Col: idx % size}
}

// Add returns pos shifted by delta.
func (pos Pos) Add(delta Pos) Pos {
	return Pos{pos.Row + delta.Row, pos.Col + delta.Col}
}

// Directions are the 8 compass directions scanned for flips.
var Directions = [8]Pos{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

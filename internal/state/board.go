package state

import (
	"bytes"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Board is the Othello grid, owned by one game.
//
// It is only mutated through Apply, and it keeps a score table (count of each Tile)
// always consistent with the grid.
type Board struct {
	size  int
	cells []Tile
	count [NumTiles]int
}

// NewBoard returns a board of the given size with the 4 initial stones at the center.
// It panics if size is odd or smaller than MinSize.
func NewBoard(size int) *Board {
	if size < MinSize || size%2 != 0 {
		exceptions.Panicf("invalid board size %d: it must be even and >= %d", size, MinSize)
	}
	b := &Board{
		size:  size,
		cells: make([]Tile, size*size),
	}
	h := size / 2
	b.set(Pos{h - 1, h - 1}, White)
	b.set(Pos{h, h}, White)
	b.set(Pos{h - 1, h}, Black)
	b.set(Pos{h, h - 1}, Black)
	b.recount()
	return b
}

// ParseBoard is the inverse of Board.String: it takes one line per row, with 'X' for Black,
// 'O' for White and '.' for Empty. Surrounding blank lines and spaces are ignored.
//
// It accepts any square layout, even without the initial stones, so it can express arbitrary positions.
func ParseBoard(text string) (*Board, error) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line != "" {
			rows = append(rows, line)
		}
	}
	size := len(rows)
	if size == 0 {
		return nil, errors.New("empty board layout")
	}
	b := &Board{
		size:  size,
		cells: make([]Tile, size*size),
	}
	for row, line := range rows {
		if len(line) != size {
			return nil, errors.Errorf("row %d has %d cells, expected %d", row, len(line), size)
		}
		for col := range size {
			idx := bytes.IndexByte(tileRunes[:], line[col])
			if idx < 0 {
				return nil, errors.Errorf("invalid cell %q at row %d, col %d", line[col], row, col)
			}
			b.set(Pos{row, col}, Tile(idx))
		}
	}
	b.recount()
	return b, nil
}

// Size returns the side of the board.
func (b *Board) Size() int { return b.size }

// NumCells returns Size()*Size().
func (b *Board) NumCells() int { return len(b.cells) }

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	newB := &Board{
		size:  b.size,
		cells: slices.Clone(b.cells),
		count: b.count,
	}
	return newB
}

// Equal returns whether both boards have the same size and contents.
func (b *Board) Equal(other *Board) bool {
	return b.size == other.size && slices.Equal(b.cells, other.cells)
}

// IsOnBoard checks that (row, col) is within [0, Size()).
func (b *Board) IsOnBoard(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

// At returns the tile at pos. pos must be on the board.
func (b *Board) At(pos Pos) Tile {
	return b.cells[pos.Index(b.size)]
}

// Cells returns the row-major grid. It must not be modified.
func (b *Board) Cells() []Tile {
	return b.cells
}

func (b *Board) set(pos Pos, tile Tile) {
	b.cells[pos.Index(b.size)] = tile
}

func (b *Board) recount() {
	b.count = [NumTiles]int{}
	for _, tile := range b.cells {
		b.count[tile]++
	}
}

// Flips returns the positions of the enemy stones that would be flipped if tile were played at (row, col).
//
// It returns nil if the cell is off-board or occupied, or if no direction flips anything: that is,
// it returns nil if and only if the move is invalid.
// The board is not modified. It panics (see Tile.Enemy) if tile is Empty.
func (b *Board) Flips(tile Tile, row, col int) []Pos {
	enemy := tile.Enemy()
	if !b.IsOnBoard(row, col) {
		return nil
	}
	start := Pos{row, col}
	if b.At(start) != Empty {
		return nil
	}
	var flips []Pos
	for _, dir := range Directions {
		pos := start.Add(dir)
		runLen := 0
		for b.IsOnBoard(pos.Row, pos.Col) && b.At(pos) == enemy {
			pos = pos.Add(dir)
			runLen++
		}
		if runLen == 0 || !b.IsOnBoard(pos.Row, pos.Col) || b.At(pos) != tile {
			// Either no enemy next to start, or the run was not closed by one of ours.
			continue
		}
		pos = start.Add(dir)
		for range runLen {
			flips = append(flips, pos)
			pos = pos.Add(dir)
		}
	}
	return flips
}

// IsValidMove returns whether tile can be played at (row, col).
func (b *Board) IsValidMove(tile Tile, row, col int) bool {
	return len(b.Flips(tile, row, col)) > 0
}

// Apply attempts to play tile at (row, col).
//
// If the move is valid, the tile is placed, all enemy runs it closes are flipped, the score is
// updated and it returns true. Otherwise, the board is left untouched and it returns false.
func (b *Board) Apply(tile Tile, row, col int) bool {
	flips := b.Flips(tile, row, col)
	if len(flips) == 0 {
		return false
	}
	b.set(Pos{row, col}, tile)
	for _, pos := range flips {
		b.set(pos, tile)
	}
	b.recount()
	if klog.V(3).Enabled() {
		klog.Infof("%s played (%d, %d), flipping %d", tile, row, col, len(flips))
	}
	return true
}

// LegalMoves returns all positions where tile can be played, in row-major order.
func (b *Board) LegalMoves(tile Tile) []Pos {
	var moves []Pos
	for idx := range b.cells {
		pos := PosFromIndex(idx, b.size)
		if b.IsValidMove(tile, pos.Row, pos.Col) {
			moves = append(moves, pos)
		}
	}
	return moves
}

// Count returns the number of cells holding tile.
func (b *Board) Count(tile Tile) int {
	return b.count[tile]
}

// Score returns a fresh map from each Tile (including Empty) to its count on the board.
func (b *Board) Score() map[Tile]int {
	return map[Tile]int{
		Empty: b.count[Empty],
		Black: b.count[Black],
		White: b.count[White],
	}
}

// Eliminated returns whether one of the players has no stones left on the board.
func (b *Board) Eliminated() bool {
	return b.count[Black] == 0 || b.count[White] == 0
}

var tileRunes = [NumTiles]byte{'.', 'X', 'O'}

// String renders the board as plain text, one line per row: 'X' for Black, 'O' for White and '.' for Empty.
func (b *Board) String() string {
	var sb strings.Builder
	for row := range b.size {
		for col := range b.size {
			sb.WriteByte(tileRunes[b.At(Pos{row, col})])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

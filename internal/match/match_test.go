package match

import (
	"math/rand/v2"
	"testing"

	"github.com/janpfeifer/othelloGo/internal/ai/fnn"
	"github.com/janpfeifer/othelloGo/internal/players"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted plays the given positions in order (a nil entry is a pass), and passes after the script ends.
type scripted struct {
	t      *testing.T
	script []*Pos
	calls  int
}

func (s *scripted) Play(board *Board, tile Tile, record bool) (Pos, bool) {
	defer func() { s.calls++ }()
	if s.calls >= len(s.script) || s.script[s.calls] == nil {
		return Pos{}, false
	}
	pos := *s.script[s.calls]
	require.Truef(s.t, board.Apply(tile, pos.Row, pos.Col), "scripted move %s for %s is invalid", pos, tile)
	return pos, true
}

func at(row, col int) *Pos { return &Pos{row, col} }

func TestDoublePassTerminates(t *testing.T) {
	for _, moveNumber := range []int{1, 17} {
		black, white := &scripted{t: t}, &scripted{t: t}
		m := New(NewBoard(DefaultSize), Seat{Tile: Black, Player: black}, Seat{Tile: White, Player: white})
		m.MoveNumber = moveNumber
		result := m.Run()
		assert.Equal(t, DoublePass, result.Reason)
		assert.Equal(t, 1, black.calls)
		assert.Equal(t, 1, white.calls)
		assert.Equal(t, 2, result.Passes)
		assert.Equal(t, 0, result.Moves)
		assert.Equal(t, Empty, result.Winner())
	}
}

func TestPassesMustBeConsecutive(t *testing.T) {
	// Black passes, White moves, Black passes again, White passes: 4 turns.
	black := &scripted{t: t, script: []*Pos{nil, nil}}
	white := &scripted{t: t, script: []*Pos{at(2, 4), nil}}
	m := New(NewBoard(DefaultSize), Seat{Tile: Black, Player: black}, Seat{Tile: White, Player: white})
	result := m.Run()
	assert.Equal(t, DoublePass, result.Reason)
	assert.Equal(t, 2, black.calls)
	assert.Equal(t, 2, white.calls)
	assert.Equal(t, 1, result.Moves)
	assert.Equal(t, 3, result.Passes)
	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, 2, m.MoveNumber)
	assert.Equal(t, White, result.Winner())
	assert.Equal(t, 4, result.Score[White])
	assert.Equal(t, 1, result.Score[Black])
}

func TestEliminationEndsImmediately(t *testing.T) {
	board := statetest.BuildBoard(
		"XO..",
		"....",
		"....",
		"....",
	)
	black := &scripted{t: t, script: []*Pos{at(0, 2)}}
	white := &scripted{t: t}
	result := New(board, Seat{Tile: Black, Player: black}, Seat{Tile: White, Player: white}).Run()
	assert.Equal(t, Elimination, result.Reason)
	assert.Equal(t, 1, black.calls)
	assert.Equal(t, 0, white.calls, "White should not play after being eliminated")
	assert.Equal(t, map[Tile]int{Black: 3, White: 0, Empty: 13}, result.Score)
	assert.Equal(t, Black, result.Winner())
}

func TestPassThenElimination(t *testing.T) {
	// Black can't move and passes, then White eliminates Black: elimination wins over the pending pass.
	board := statetest.BuildBoard(
		"OX..",
		"....",
		"....",
		"....",
	)
	black := &scripted{t: t}
	white := &scripted{t: t, script: []*Pos{at(0, 2)}}
	result := New(board, Seat{Tile: Black, Player: black}, Seat{Tile: White, Player: white}).Run()
	assert.Equal(t, Elimination, result.Reason)
	assert.Equal(t, 1, result.Passes)
	assert.Equal(t, 1, result.Moves)
	assert.Equal(t, White, result.Winner())
	assert.Equal(t, 0, result.Score[Black])
}

func TestEliminationBySecondSeatInFirstRound(t *testing.T) {
	// The seats order is independent of the colors: here White plays first.
	board := statetest.BuildBoard(
		"XXO.",
		"....",
		"....",
		"....",
	)
	white := &scripted{t: t, script: []*Pos{nil}}
	black := &scripted{t: t, script: []*Pos{at(0, 3)}}
	result := New(board, Seat{Tile: White, Player: white}, Seat{Tile: Black, Player: black}).Run()
	assert.Equal(t, Elimination, result.Reason)
	assert.Equal(t, 1, white.calls)
	assert.Equal(t, 1, black.calls)
	assert.Equal(t, 4, result.Score[Black])
}

func TestFullRandomGame(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	for range 10 {
		net := fnn.New(fnn.DefaultConfig(6))
		black := players.NewAgent(net, 1, rng)
		white := players.NewAgent(net, 0.5, rng)
		m := New(NewBoard(6),
			Seat{Name: "A", Tile: Black, Player: black, Record: true},
			Seat{Name: "B", Tile: White, Player: white})
		var turns int
		m.Observer = func(board *Board, seat Seat, pos Pos, moved bool) {
			turns++
			if moved {
				assert.Equal(t, seat.Tile, board.At(pos))
			}
		}
		result := m.Run()
		assert.NotEqual(t, NotFinished, result.Reason)
		assert.Equal(t, turns, result.Moves+result.Passes)
		assert.Equal(t, 36, result.Score[Black]+result.Score[White]+result.Score[Empty])
		assert.Equal(t, result.Score, m.Board.Score())
		assert.NotEmpty(t, black.History())
		assert.Empty(t, white.History())
		if result.Reason == DoublePass {
			assert.Empty(t, m.Board.LegalMoves(Black))
			assert.Empty(t, m.Board.LegalMoves(White))
		}
	}
}

func TestNewPanicsOnInvalidSeats(t *testing.T) {
	p := &scripted{t: t}
	assert.Panics(t, func() { New(NewBoard(4), Seat{Tile: Black, Player: p}, Seat{Tile: Black, Player: p}) })
	assert.Panics(t, func() { New(NewBoard(4), Seat{Tile: Empty, Player: p}) })
	assert.Panics(t, func() { New(NewBoard(4)) })
}

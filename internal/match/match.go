// Package match runs one game between players seated around a board.
package match

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/othelloGo/internal/players"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"k8s.io/klog/v2"
)

// Seat is a player taking part in a match, with the tile it plays.
type Seat struct {
	// Name used for logging and display.
	Name string

	Tile   Tile
	Player players.Player

	// Record asks the player to record its decisions (see players.Player.Play).
	Record bool
}

// String implements fmt.Stringer.
func (s Seat) String() string {
	if s.Name != "" {
		return fmt.Sprintf("%s (%s)", s.Name, s.Tile)
	}
	return s.Tile.String()
}

// EndReason tells why a match finished.
type EndReason uint8

const (
	// NotFinished means Run was not called (or hasn't returned) yet.
	NotFinished EndReason = iota

	// DoublePass means two consecutive turns passed.
	DoublePass

	// Elimination means one of the players had all its stones flipped.
	Elimination
)

// String implements fmt.Stringer.
func (r EndReason) String() string {
	switch r {
	case DoublePass:
		return "no more moves"
	case Elimination:
		return "elimination"
	default:
		return "not finished"
	}
}

// Observer is called after every turn with the seat that played, the position played and whether it moved.
// If moved is false, the seat passed and pos is meaningless.
type Observer func(board *Board, seat Seat, pos Pos, moved bool)

// Match is one game: players alternate in seating order until the game ends.
type Match struct {
	Board *Board
	Seats []Seat

	// Observer, if set, is called after every turn.
	Observer Observer

	// MoveNumber is the current round, starting at 1: it's incremented after all seats played once.
	MoveNumber int
}

// New creates a match on board with the given seats, that play in the given order.
// It panics if the seats don't have distinct player tiles.
func New(board *Board, seats ...Seat) *Match {
	if len(seats) == 0 {
		exceptions.Panicf("match.New requires at least one seat")
	}
	seen := make(map[Tile]bool, len(seats))
	for _, seat := range seats {
		if !seat.Tile.IsPlayer() || seen[seat.Tile] {
			exceptions.Panicf("match.New: invalid or repeated tile %s in seats %v", seat.Tile, seats)
		}
		seen[seat.Tile] = true
	}
	return &Match{Board: board, Seats: seats, MoveNumber: 1}
}

// Result of a finished match.
type Result struct {
	// Score is the final count of each tile, as returned by Board.Score.
	Score map[Tile]int

	Reason EndReason

	// Moves and Passes count the turns played and passed. Rounds is the number of rounds started.
	Moves, Passes, Rounds int
}

// Winner returns the tile with most stones, or Empty for a draw.
func (r Result) Winner() Tile {
	switch black, white := r.Score[Black], r.Score[White]; {
	case black > white:
		return Black
	case white > black:
		return White
	default:
		return Empty
	}
}

// Run plays the match until two consecutive turns pass, or one of the players is eliminated.
// Elimination is checked after every turn and ends the match immediately.
func (m *Match) Run() Result {
	var result Result
	consecutivePasses := 0
	result.Rounds = 1
	for turn := 0; ; turn++ {
		seatIdx := turn % len(m.Seats)
		if turn > 0 && seatIdx == 0 {
			m.MoveNumber++
			result.Rounds++
		}
		seat := m.Seats[seatIdx]
		pos, moved := seat.Player.Play(m.Board, seat.Tile, seat.Record)
		if moved {
			consecutivePasses = 0
			result.Moves++
		} else {
			consecutivePasses++
			result.Passes++
		}
		if klog.V(2).Enabled() {
			if moved {
				klog.Infof("Move #%d: %s played %s", m.MoveNumber, seat, pos)
			} else {
				klog.Infof("Move #%d: %s passed", m.MoveNumber, seat)
			}
		}
		if m.Observer != nil {
			m.Observer(m.Board, seat, pos, moved)
		}
		if m.Board.Eliminated() {
			result.Reason = Elimination
			break
		}
		if consecutivePasses >= 2 {
			result.Reason = DoublePass
			break
		}
	}
	result.Score = m.Board.Score()
	if klog.V(1).Enabled() {
		klog.Infof("Match finished (%s) after %d rounds: Black=%d, White=%d",
			result.Reason, result.Rounds, result.Score[Black], result.Score[White])
	}
	return result
}

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/janpfeifer/othelloGo/internal/players"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrInvalidInput is returned (wrapped) when a move can't be parsed.
var ErrInvalidInput = errors.New("invalid input")

// ParseMove parses "row col" (1-indexed, separated by white space or a comma) into a 0-indexed position.
// Trailing line endings are ignored. It doesn't check that the position is on the board.
func ParseMove(text string) (Pos, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
	if len(fields) != 2 {
		return Pos{}, errors.Wrapf(ErrInvalidInput, "expected \"row col\", got %q", strings.TrimSpace(text))
	}
	var coords [2]int
	for ii, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return Pos{}, errors.Wrapf(ErrInvalidInput, "%q is not a number", field)
		}
		coords[ii] = value - 1
	}
	return Pos{Row: coords[0], Col: coords[1]}, nil
}

// Human is a player that reads its moves from an io.Reader (typically os.Stdin), prompting on the UI.
type Human struct {
	ui     *UI
	reader *bufio.Reader
}

var _ players.Player = (*Human)(nil)

// NewHuman creates a Human player reading from in.
func NewHuman(ui *UI, in io.Reader) *Human {
	return &Human{ui: ui, reader: bufio.NewReader(in)}
}

// String implements fmt.Stringer.
func (h *Human) String() string { return "human" }

// Play implements players.Player. It passes if there are no valid moves, or if the input ended.
// Anything else is prompted again until a valid move is given.
func (h *Human) Play(board *Board, tile Tile, _ bool) (Pos, bool) {
	out := h.ui.out
	moves := board.LegalMoves(tile)
	if len(moves) == 0 {
		_, _ = fmt.Fprintf(out, "%s has no valid moves, passing.\n", tile)
		return Pos{}, false
	}
	h.ui.PrintBoard(board)
	h.ui.PrintScores(board)
	options := make([]string, len(moves))
	for ii, pos := range moves {
		options[ii] = fmt.Sprintf("%d %d", pos.Row+1, pos.Col+1)
	}
	_, _ = fmt.Fprintf(out, "Valid moves for %s: [%s]\n", tile, strings.Join(options, "], ["))

	for {
		_, _ = fmt.Fprintf(out, "%s move (row col) > ", tile)
		text, err := h.reader.ReadString('\n')
		if err != nil && strings.TrimSpace(text) == "" {
			if !errors.Is(err, io.EOF) {
				klog.Errorf("Failed to read move: %+v", err)
			}
			_, _ = fmt.Fprintf(out, "\nNo more input, %s passes.\n", tile)
			return Pos{}, false
		}
		pos, err := ParseMove(text)
		if err != nil {
			_, _ = fmt.Fprintf(out, "  * %v, please try again.\n", err)
			continue
		}
		if board.Apply(tile, pos.Row, pos.Col) {
			return pos, true
		}
		_, _ = fmt.Fprintf(out, "  * invalid move %d %d, please try again.\n", pos.Row+1, pos.Col+1)
	}
}

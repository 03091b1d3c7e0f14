// Package cli implements a command-line UI for the game.
package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/othelloGo/internal/generics"
	"github.com/janpfeifer/othelloGo/internal/match"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"golang.org/x/term"
)

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the length of what is left.
func displayWidth(s string) int {
	return len([]rune(ansiFilter.ReplaceAllString(s, "")))
}

var (
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2"))
	coordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tileStyles = [NumTiles]lipgloss.Style{
		Empty: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Black: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Bold(true),
		White: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("10")).Bold(true),
	}
	tileLetters = [NumTiles]string{Empty: ".", Black: "X", White: "O"}
)

// UI prints the game to a terminal (or any io.Writer).
type UI struct {
	out   io.Writer
	color bool
}

// New creates a UI writing to out (os.Stdout if nil).
// If color is true, the output is styled with ANSI sequences.
func New(out io.Writer, color bool) *UI {
	if out == nil {
		out = os.Stdout
	}
	return &UI{out: out, color: color}
}

// terminalWidth returns the width of the output if it is a terminal, or 0.
func (ui *UI) terminalWidth() int {
	f, ok := ui.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := 0
	for _, line := range lines {
		blockWidth = max(blockWidth, displayWidth(line))
	}
	indent := max((ui.terminalWidth()-blockWidth)/2, 0)
	for _, line := range lines {
		if len(line) == 0 {
			_, _ = fmt.Fprintln(ui.out)
			continue
		}
		_, _ = fmt.Fprintf(ui.out, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}

func (ui *UI) style(s lipgloss.Style, text string) string {
	if !ui.color {
		return text
	}
	return s.Render(text)
}

// RenderBoard returns the board as a grid, with 1-indexed coordinates on the top and left.
func (ui *UI) RenderBoard(board *Board) string {
	var sb strings.Builder
	size := board.Size()
	sb.WriteString("   ")
	for col := range size {
		sb.WriteString(ui.style(coordStyle, fmt.Sprintf("%2d", col+1)))
	}
	sb.WriteString("\n")
	for row := range size {
		sb.WriteString(ui.style(coordStyle, fmt.Sprintf("%2d ", row+1)))
		for col := range size {
			tile := board.At(Pos{row, col})
			sb.WriteString(" " + ui.style(tileStyles[tile], tileLetters[tile]))
		}
		if row < size-1 {
			sb.WriteString("\n")
		}
	}
	if !ui.color {
		return sb.String()
	}
	return boardStyle.Render(sb.String())
}

// PrintBoard prints the board centered on the terminal.
func (ui *UI) PrintBoard(board *Board) {
	_, _ = fmt.Fprintln(ui.out)
	ui.printCentered(ui.RenderBoard(board))
	_, _ = fmt.Fprintln(ui.out)
}

// PrintScores prints the number of stones of each player.
func (ui *UI) PrintScores(board *Board) {
	score := board.Score()
	parts := make([]string, 0, len(score))
	for tile := range generics.SortedKeys(score) {
		if !tile.IsPlayer() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", ui.style(tileStyles[tile], " "+tile.String()+" "), score[tile]))
	}
	_, _ = fmt.Fprintf(ui.out, "Score: %s\n", strings.Join(parts, ", "))
}

// PrintWinner prints the final result of a match.
func (ui *UI) PrintWinner(result match.Result) {
	_, _ = fmt.Fprintln(ui.out)
	winner := result.Winner()
	var msg string
	if winner == Empty {
		msg = fmt.Sprintf("*** DRAW %d x %d (%s) ***", result.Score[Black], result.Score[White], result.Reason)
	} else {
		msg = fmt.Sprintf("*** %s WINS %d x %d (%s)! ***", strings.ToUpper(winner.String()),
			result.Score[winner], result.Score[winner.Enemy()], result.Reason)
	}
	if ui.color {
		msg = lipgloss.NewStyle().
			Background(lipgloss.Color("13")).
			Foreground(lipgloss.Color("0")).
			Padding(1, 2).
			Render(msg)
	}
	ui.printCentered(msg)
	_, _ = fmt.Fprintln(ui.out)
}

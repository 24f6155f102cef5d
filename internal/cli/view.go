// Package cli is the terminal front end: board rendering and a command loop
// that drives games through the processor.
package cli

import (
	"fmt"
	"io"
	"strings"

	"chessgame/internal/chess"
	"chessgame/internal/core"
)

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg string
	darkBg  string
	white   string
	black   string
	reset   string
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeBrown: {
		lightBg: "\033[48;5;230m", // beige
		darkBg:  "\033[48;5;94m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGreen: {
		lightBg: "\033[48;5;157m",
		darkBg:  "\033[48;5;22m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGray: {
		lightBg: "\033[48;5;251m",
		darkBg:  "\033[48;5;240m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
}

// View writes everything the player sees.
type View struct {
	output  io.Writer
	theme   ColorTheme
	verbose bool
}

func NewView(output io.Writer) *View {
	return &View{output: output, theme: ThemeOff}
}

func (v *View) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	v.theme = theme
	return nil
}

func (v *View) ToggleVerbose() bool {
	v.verbose = !v.verbose
	return v.verbose
}

func (v *View) ShowMessage(msg string) {
	fmt.Fprintln(v.output, msg)
}

func (v *View) ShowError(err error) {
	fmt.Fprintf(v.output, "Error: %v\n", err)
}

// ShowAPIError prints a processor error with its code.
func (v *View) ShowAPIError(e *core.ErrorResponse) {
	if e == nil {
		return
	}
	if e.Details != "" {
		fmt.Fprintf(v.output, "Error [%s]: %s (%s)\n", e.Code, e.Error, e.Details)
		return
	}
	fmt.Fprintf(v.output, "Error [%s]: %s\n", e.Code, e.Error)
}

// DisplayBoard renders the position of fen from White's side.
func (v *View) DisplayBoard(fen string) {
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		v.ShowError(err)
		return
	}

	theme := themes[v.theme]
	var sb strings.Builder
	sb.WriteString("\n  a b c d e f g h\n")
	for r := 0; r < 8; r++ {
		fmt.Fprintf(&sb, "%d ", 8-r)
		for f := 0; f < 8; f++ {
			sq := chess.Sq(r, f)
			piece := pos.PieceAt(sq)

			if v.theme == ThemeOff {
				if piece == chess.NoPiece {
					sb.WriteString(". ")
				} else {
					fmt.Fprintf(&sb, "%c ", piece.Rune())
				}
				continue
			}

			bg := theme.darkBg
			if sq.IsLight() {
				bg = theme.lightBg
			}
			if piece == chess.NoPiece {
				fmt.Fprintf(&sb, "%s  %s", bg, theme.reset)
				continue
			}
			fg := theme.black
			if piece.Color() == chess.White {
				fg = theme.white
			}
			fmt.Fprintf(&sb, "%s%s%c %s", bg, fg, piece.Rune(), theme.reset)
		}
		fmt.Fprintf(&sb, " %d\n", 8-r)
	}
	sb.WriteString("  a b c d e f g h\n")

	v.ShowMessage(sb.String())
}

func (v *View) ShowHelp() {
	v.ShowMessage(`Commands:
  new              - Start a new game with player type selection
  resume <FEN>     - Resume from a specific board position
  <move>           - Make a move (e.g., e2e4, g1f3, e7e8q)
  undo [count]     - Undo last move(s), default 1
  legal            - List legal moves for the side to move
  history          - Show game move history and positions
  pgn              - Print the game as PGN
  color <theme>    - Set board color theme (off|brown|green|gray)
  verbose          - Toggle detailed move information
  quit/exit        - Exit the program
  help/?           - Show this help message

During any game:
  Press ENTER      - Execute computer move (when it's computer's turn)`)
}

func (v *View) ShowWelcome() {
	v.ShowMessage("Welcome to Chess!")
	v.ShowMessage("Commands: new, resume <FEN>, <move>, undo, legal, history, pgn, quit/exit, help/?")
	v.ShowMessage("Example: 'resume 4k3/8/8/8/8/8/8/4K2R w K - 0 1' to start from a puzzle.")
	v.ShowMessage("Press ENTER to execute computer moves when it's computer's turn.")
	v.ShowMessage("")
}

// ShowGameHistory lists moves in numbered pairs followed by the current position.
func (v *View) ShowGameHistory(g core.GameResponse) {
	// moves are numbered from the side that moved first
	first := 0
	if (len(g.Moves)%2 == 1) == (g.Turn == "w") {
		first = 1
		if len(g.Moves) > 0 {
			fmt.Fprintf(v.output, "1. ... | %s\n", g.Moves[0])
		}
	}
	for i := first; i < len(g.Moves); i += 2 {
		num := (i+first)/2 + 1
		if i+1 < len(g.Moves) {
			fmt.Fprintf(v.output, "%d. %s | %s\n", num, g.Moves[i], g.Moves[i+1])
		} else {
			fmt.Fprintf(v.output, "%d. %s | ...\n", num, g.Moves[i])
		}
	}
	fmt.Fprintf(v.output, "Current FEN: %s\n", g.FEN)
	fmt.Fprintf(v.output, "Game state: %s\n", describeState(g))
	if v.verbose {
		fmt.Fprintf(v.output, "Material: white +%d %v, black +%d %v\n",
			g.Material.WhiteScore, g.Material.WhiteCaptures,
			g.Material.BlackScore, g.Material.BlackCaptures)
	}
}

func (v *View) ShowComputerMove(m *core.MoveInfo) {
	if m == nil {
		return
	}
	if v.verbose {
		fmt.Fprintf(v.output, "Computer (%s): %s (depth=%d, score=%d)\n", m.PlayerColor, m.Move, m.Depth, m.Score)
	} else {
		fmt.Fprintf(v.output, "Computer (%s): %s\n", m.PlayerColor, m.Move)
	}
}

func (v *View) ShowHumanMove(m *core.MoveInfo) {
	if m == nil || !v.verbose {
		return
	}
	if m.Captured != "" {
		fmt.Fprintf(v.output, "Your move: %s (captures %s)\n", m.Move, m.Captured)
		return
	}
	fmt.Fprintf(v.output, "Your move: %s\n", m.Move)
}

func (v *View) ShowCheck() {
	v.ShowMessage("Check!")
}

func (v *View) ShowGameOver(g core.GameResponse) {
	fmt.Fprintf(v.output, "\nGame Over: %s\n", describeState(g))
	v.ShowMessage("Start a new game with 'new' or 'resume'.")
}

func describeState(g core.GameResponse) string {
	if g.Reason != "" {
		return fmt.Sprintf("%s (%s)", g.State, g.Reason)
	}
	return g.State
}

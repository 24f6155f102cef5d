package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"chessgame/internal/core"
	"chessgame/internal/processor"
	"chessgame/internal/service"

	"github.com/chzyer/readline"
)

// DefaultComputerLevel is the skill level of computer players created from the terminal.
const DefaultComputerLevel = 10

// LineReader is the input side of a session; *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Session runs one terminal player's games against a local processor.
type Session struct {
	proc   *processor.Processor
	svc    *service.Service
	view   *View
	input  LineReader
	gameID string
}

func NewSession(proc *processor.Processor, svc *service.Service, view *View, input LineReader) *Session {
	return &Session{proc: proc, svc: svc, view: view, input: input}
}

// Run reads commands until quit, end of input or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		s.input.SetPrompt(s.prompt())
		line, err := s.input.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			// ^C on an empty line quits, otherwise it only clears the line
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		if !s.Process(ctx, ParseCommand(line)) {
			return nil
		}
	}
	return ctx.Err()
}

func (s *Session) prompt() string {
	g, ok := s.current()
	if !ok || isOver(g) {
		return "> "
	}
	if next := nextPlayer(g); next.IsComputer() {
		return fmt.Sprintf("[%s] ENTER for computer move> ", g.Turn)
	}
	return fmt.Sprintf("[%s]> ", g.Turn)
}

// Process executes one command and reports whether the session continues.
func (s *Session) Process(ctx context.Context, cmd Command) bool {
	switch cmd.Type {
	case CmdQuit:
		return false

	case CmdNone:
		if g, ok := s.current(); ok && !isOver(g) && nextPlayer(g).IsComputer() {
			s.computerMove(ctx)
		}

	case CmdNew:
		s.newGame("")

	case CmdResume:
		if len(cmd.Args) == 0 {
			s.view.ShowMessage("Usage: resume <FEN string>")
			return true
		}
		s.newGame(strings.Join(cmd.Args, " "))

	case CmdMove:
		s.humanMove(cmd.Args[0])

	case CmdUndo:
		s.undo(cmd.Args)

	case CmdLegal:
		if !s.requireGame() {
			return true
		}
		resp := s.proc.Execute(processor.NewGetLegalMovesCommand(s.gameID))
		if !resp.Success {
			s.view.ShowAPIError(resp.Error)
			return true
		}
		legal := resp.Data.(core.LegalMovesResponse)
		if len(legal.Moves) == 0 {
			s.view.ShowMessage("No legal moves.")
			return true
		}
		s.view.ShowMessage(fmt.Sprintf("Legal moves (%d): %s", len(legal.Moves), strings.Join(legal.Moves, " ")))

	case CmdHistory:
		if g, ok := s.current(); ok {
			s.view.ShowGameHistory(g)
		} else {
			s.view.ShowMessage("No active game.")
		}

	case CmdPGN:
		if !s.requireGame() {
			return true
		}
		resp := s.proc.Execute(processor.NewGetPGNCommand(s.gameID))
		if !resp.Success {
			s.view.ShowAPIError(resp.Error)
			return true
		}
		s.view.ShowMessage(resp.Data.(core.PGNResponse).PGN)

	case CmdColor:
		if len(cmd.Args) == 0 {
			s.view.ShowMessage("Usage: color <off|brown|green|gray>")
			return true
		}
		theme := ColorTheme(cmd.Args[0])
		if err := s.view.SetTheme(theme); err != nil {
			s.view.ShowError(err)
			return true
		}
		s.view.ShowMessage(fmt.Sprintf("Color theme set to: %s", theme))
		if g, ok := s.current(); ok {
			s.view.DisplayBoard(g.FEN)
		}

	case CmdVerbose:
		s.view.ShowMessage(fmt.Sprintf("Verbose mode: %t", s.view.ToggleVerbose()))

	case CmdHelp:
		s.view.ShowHelp()
	}

	return true
}

func (s *Session) newGame(fen string) {
	white, err := s.askPlayer("White")
	if err != nil {
		return
	}
	black, err := s.askPlayer("Black")
	if err != nil {
		return
	}

	resp := s.proc.Execute(processor.NewCreateGameCommand(core.CreateGameRequest{
		White: white,
		Black: black,
		FEN:   fen,
	}))
	if !resp.Success {
		s.view.ShowAPIError(resp.Error)
		return
	}

	// the previous game is dropped from memory
	if s.gameID != "" {
		s.proc.Execute(processor.NewDeleteGameCommand(s.gameID))
	}

	g := resp.Data.(core.GameResponse)
	s.gameID = g.GameID
	s.view.ShowMessage("Game started.")
	s.view.DisplayBoard(g.FEN)
	s.afterMove(g)
}

func (s *Session) askPlayer(side string) (core.PlayerConfig, error) {
	s.input.SetPrompt(fmt.Sprintf("Select %s player (h/c): ", side))
	line, err := s.input.Readline()
	if err != nil {
		return core.PlayerConfig{}, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "c", "computer":
		return core.PlayerConfig{
			Type:       core.PlayerComputer,
			Level:      DefaultComputerLevel,
			SearchTime: core.DefaultSearchTime,
		}, nil
	default:
		return core.PlayerConfig{Type: core.PlayerHuman}, nil
	}
}

func (s *Session) humanMove(move string) {
	g, ok := s.current()
	if !ok {
		s.view.ShowMessage("No active game. Use 'new' or 'resume <FEN>'.")
		return
	}
	if !isOver(g) && nextPlayer(g).IsComputer() {
		s.view.ShowMessage("It's not a human player's turn. Press ENTER to execute computer move.")
		return
	}

	resp := s.proc.Execute(processor.NewMakeMoveCommand(s.gameID, core.MoveRequest{Move: move}))
	if !resp.Success {
		s.view.ShowAPIError(resp.Error)
		return
	}

	g = resp.Data.(core.GameResponse)
	s.view.ShowHumanMove(g.LastMove)
	s.view.DisplayBoard(g.FEN)
	s.afterMove(g)
}

// computerMove queues the engine search and blocks until the game leaves
// the pending state.
func (s *Session) computerMove(ctx context.Context) {
	before, _ := s.current()
	resp := s.proc.Execute(processor.NewMakeMoveCommand(s.gameID, core.MoveRequest{Move: core.ComputerMove}))
	if !resp.Success {
		s.view.ShowAPIError(resp.Error)
		return
	}

	s.view.ShowMessage("Computer is thinking...")
	g, err := s.awaitMove(ctx, len(before.Moves))
	if err != nil {
		s.view.ShowError(err)
		return
	}
	if len(g.Moves) == len(before.Moves) {
		s.view.ShowMessage("The engine did not produce a move. Press ENTER to retry.")
		return
	}

	s.view.ShowComputerMove(g.LastMove)
	s.view.DisplayBoard(g.FEN)
	s.afterMove(g)
}

func (s *Session) awaitMove(ctx context.Context, moveCount int) (core.GameResponse, error) {
	for {
		waitCtx, cancel := context.WithCancel(ctx)
		notify := s.svc.RegisterWait(waitCtx, s.gameID, moveCount)

		g, ok := s.current()
		if !ok {
			cancel()
			return g, fmt.Errorf("game %s is gone", s.gameID)
		}
		if g.State != core.StatePending.String() {
			cancel()
			return g, nil
		}

		<-notify
		cancel()
		if err := ctx.Err(); err != nil {
			return g, err
		}
	}
}

func (s *Session) undo(args []string) {
	if !s.requireGame() {
		return
	}

	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			s.view.ShowMessage("Invalid undo count. Usage: undo [count]")
			return
		}
		count = n
	}

	resp := s.proc.Execute(processor.NewUndoMoveCommand(s.gameID, core.UndoRequest{Count: count}))
	if !resp.Success {
		s.view.ShowAPIError(resp.Error)
		return
	}

	if count == 1 {
		s.view.ShowMessage("Move undone")
	} else {
		s.view.ShowMessage(fmt.Sprintf("%d moves undone", count))
	}
	s.view.DisplayBoard(resp.Data.(core.GameResponse).FEN)
}

func (s *Session) afterMove(g core.GameResponse) {
	switch {
	case isOver(g):
		s.view.ShowGameOver(g)
	case g.InCheck:
		s.view.ShowCheck()
	}
}

func (s *Session) requireGame() bool {
	if s.gameID == "" {
		s.view.ShowMessage("No active game.")
		return false
	}
	return true
}

func (s *Session) current() (core.GameResponse, bool) {
	if s.gameID == "" {
		return core.GameResponse{}, false
	}
	resp := s.proc.Execute(processor.NewGetGameCommand(s.gameID))
	if !resp.Success {
		return core.GameResponse{}, false
	}
	return resp.Data.(core.GameResponse), true
}

func nextPlayer(g core.GameResponse) *core.Player {
	if g.Turn == "b" {
		return g.Players.Black
	}
	return g.Players.White
}

func isOver(g core.GameResponse) bool {
	return g.State != core.StateOngoing.String() && g.State != core.StatePending.String()
}

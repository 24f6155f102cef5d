package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"chessgame/internal/chess"
	"chessgame/internal/engine"
	"chessgame/internal/processor"
	"chessgame/internal/service"
	"chessgame/internal/testutil"

	"github.com/chzyer/readline"
)

// script feeds fixed lines to a session, then reports EOF.
type script struct {
	lines   []string
	prompts []string
}

func (s *script) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *script) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type firstMoveEngine struct{ fen string }

func (e *firstMoveEngine) SetSkillLevel(int)                   {}
func (e *firstMoveEngine) SetPosition(fen string, _ []string) { e.fen = fen }
func (e *firstMoveEngine) Close() error                        { return nil }

func (e *firstMoveEngine) Search(context.Context, time.Duration) (*engine.SearchResult, error) {
	pos, err := chess.ParseFEN(e.fen)
	if err != nil {
		return nil, err
	}
	legal := pos.LegalMoves(pos.Turn())
	if len(legal) == 0 {
		return &engine.SearchResult{}, nil
	}
	return &engine.SearchResult{BestMove: legal[0].UCI(), Depth: 3, Score: 12}, nil
}

func runSession(t *testing.T, factory processor.EngineFactory, lines ...string) (string, *script) {
	t.Helper()
	if factory == nil {
		factory = func() (processor.Searcher, error) { return &firstMoveEngine{}, nil }
	}
	svc := service.New(nil, []byte("test-secret-minimum-32-characters-long"))
	proc := processor.New(svc, processor.Config{Workers: 1, Factory: factory})
	t.Cleanup(func() {
		proc.Close()
		svc.Shutdown(time.Second)
	})

	var out bytes.Buffer
	in := &script{lines: lines}
	s := NewSession(proc, svc, NewView(&out), in)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	testutil.RequireNoError(t, s.Run(ctx))
	return out.String(), in
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"", Command{Type: CmdNone}},
		{"   ", Command{Type: CmdNone}},
		{"new", Command{Type: CmdNew, Args: []string{}}},
		{"resume 8/8/8/8/8/8/8/8 w - - 0 1", Command{Type: CmdResume, Args: []string{"8/8/8/8/8/8/8/8", "w", "-", "-", "0", "1"}}},
		{"undo 3", Command{Type: CmdUndo, Args: []string{"3"}}},
		{"legal", Command{Type: CmdLegal}},
		{"PGN", Command{Type: CmdPGN}},
		{"history", Command{Type: CmdHistory}},
		{"color green", Command{Type: CmdColor, Args: []string{"green"}}},
		{"?", Command{Type: CmdHelp}},
		{"exit", Command{Type: CmdQuit}},
		{"E2E4", Command{Type: CmdMove, Args: []string{"e2e4"}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testutil.AssertEqual(t, ParseCommand(tt.input), tt.want)
		})
	}
}

func TestDisplayBoard(t *testing.T) {
	var out bytes.Buffer
	v := NewView(&out)
	v.DisplayBoard(chess.StartingFEN)
	testutil.AssertContains(t, out.String(), "8 r n b q k b n r  8")
	testutil.AssertContains(t, out.String(), "4 . . . . . . . .  4")

	out.Reset()
	testutil.RequireNoError(t, v.SetTheme(ThemeGreen))
	v.DisplayBoard(chess.StartingFEN)
	testutil.AssertContains(t, out.String(), "\033[48;5;157m")

	testutil.AssertTrue(t, v.SetTheme("neon") != nil)
}

func TestSessionHumanGame(t *testing.T) {
	out, _ := runSession(t, nil,
		"new", "h", "h",
		"legal",
		"e2e4", "e7e5",
		"history",
		"undo 2",
		"quit",
		"e2e4", // never read
	)

	testutil.AssertContains(t, out, "Game started.")
	testutil.AssertContains(t, out, "Legal moves (20)")
	testutil.AssertContains(t, out, "1. e2e4 | e7e5")
	testutil.AssertContains(t, out, "Game state: ongoing")
	testutil.AssertContains(t, out, "2 moves undone")
}

func TestSessionCheckmate(t *testing.T) {
	out, in := runSession(t, nil,
		"new", "h", "h",
		"f2f3", "e7e5", "g2g4", "d8h4",
		"pgn",
		"e2e4",
	)

	testutil.AssertContains(t, out, "Game Over: black wins")
	testutil.AssertContains(t, out, "Qh4#")
	testutil.AssertContains(t, out, "Error [GAME_OVER]")
	testutil.AssertEqual(t, in.prompts[len(in.prompts)-1], "> ")
}

func TestSessionRejectsIllegalMove(t *testing.T) {
	out, _ := runSession(t, nil, "e2e4", "new", "h", "h", "e2e5", "undo", "undo x")

	testutil.AssertContains(t, out, "No active game.")
	testutil.AssertContains(t, out, "Error [INVALID_MOVE]")
	testutil.AssertContains(t, out, "Error [INVALID_REQUEST]")
	testutil.AssertContains(t, out, "Invalid undo count")
}

func TestSessionComputerMove(t *testing.T) {
	out, in := runSession(t, nil, "new", "c", "h", "", "history")

	testutil.AssertContains(t, out, "Computer (w): ")
	testutil.AssertContains(t, out, "1. ")
	testutil.AssertContains(t, in.prompts[3], "ENTER for computer move")
}

func TestSessionHumanCannotMoveForComputer(t *testing.T) {
	out, _ := runSession(t, nil, "new", "c", "h", "e2e4")
	testutil.AssertContains(t, out, "It's not a human player's turn")
}

func TestSessionNoEngine(t *testing.T) {
	failing := func() (processor.Searcher, error) { return nil, errors.New("no binary") }
	out, _ := runSession(t, failing, "new", "c", "h", "")
	testutil.AssertContains(t, out, "Error [ENGINE_UNAVAILABLE]")
}

func TestSessionResume(t *testing.T) {
	out, _ := runSession(t, nil,
		"resume 4k3/8/8/8/8/8/8/4K2R w K - 0 1", "h", "h",
		"e1g1",
		"history",
		"resume not-a-fen", "h", "h",
	)

	testutil.AssertContains(t, out, "Game started.")
	testutil.AssertContains(t, out, "Current FEN: 4k3/8/8/8/8/8/8/5RK1 b - - 1 1")
	testutil.AssertContains(t, out, "Error [INVALID_FEN]")
}

func TestSessionInterrupt(t *testing.T) {
	svc := service.New(nil, []byte("test-secret-minimum-32-characters-long"))
	proc := processor.New(svc, processor.Config{
		Workers: 1,
		Factory: func() (processor.Searcher, error) { return &firstMoveEngine{}, nil },
	})
	defer proc.Close()

	var out bytes.Buffer
	s := NewSession(proc, svc, NewView(&out), interrupted{})
	testutil.RequireNoError(t, s.Run(context.Background()))
}

// interrupted reports ^C on an empty line.
type interrupted struct{}

func (interrupted) SetPrompt(string)          {}
func (interrupted) Readline() (string, error) { return "", readline.ErrInterrupt }

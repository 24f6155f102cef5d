package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chessgame/internal/client/display"
	"chessgame/internal/core"
)

const (
	stateOngoing = "ongoing"
	statePending = "pending"

	// maxWaitRounds bounds how many long polls a computer move may take.
	maxWaitRounds = 4
)

func (r *Registry) registerGameCommands() {
	for _, cmd := range []*Command{
		{
			Name:        "new",
			ShortName:   "n",
			Description: "Create a new game",
			Usage:       "new [white] [black] [fen]  (players: h, c or c<level>, default h h)",
			Handler:     newGameHandler,
		},
		{
			Name:        "join",
			ShortName:   "j",
			Description: "Join an existing game",
			Usage:       "join <gameId>",
			Handler:     joinGameHandler,
		},
		{
			Name:        "move",
			ShortName:   "m",
			Description: "Make a move",
			Usage:       "move <uci-move>",
			Handler:     moveHandler,
		},
		{
			Name:        "computer",
			ShortName:   "c",
			Description: "Ask the engine to move",
			Usage:       "computer",
			Handler:     computerMoveHandler,
		},
		{
			Name:        "undo",
			ShortName:   "u",
			Description: "Undo moves",
			Usage:       "undo [count]",
			Handler:     undoHandler,
		},
		{
			Name:        "show",
			ShortName:   "h",
			Description: "Show the board",
			Usage:       "show",
			Handler:     showBoardHandler,
		},
		{
			Name:        "state",
			ShortName:   "s",
			Description: "Show raw game state",
			Usage:       "state",
			Handler:     gameStateHandler,
		},
		{
			Name:        "legal",
			ShortName:   "g",
			Description: "List legal moves",
			Usage:       "legal",
			Handler:     legalMovesHandler,
		},
		{
			Name:        "pgn",
			ShortName:   "t",
			Description: "Export the game as PGN",
			Usage:       "pgn",
			Handler:     pgnHandler,
		},
		{
			Name:        "players",
			ShortName:   "y",
			Description: "Reconfigure both players",
			Usage:       "players <white> <black>",
			Handler:     playersHandler,
		},
		{
			Name:        "delete",
			ShortName:   "d",
			Description: "Delete a game",
			Usage:       "delete [gameId]",
			Handler:     deleteGameHandler,
		},
		{
			Name:        "poll",
			ShortName:   "p",
			Description: "Wait for the game to change",
			Usage:       "poll",
			Handler:     pollHandler,
		},
	} {
		cmd.Group = "Game"
		r.Register(cmd)
	}
}

// parsePlayer reads "h", "c" or "c<level>".
func parsePlayer(arg string) (core.PlayerConfig, error) {
	arg = strings.ToLower(arg)
	switch {
	case arg == "h":
		return core.PlayerConfig{Type: core.PlayerHuman}, nil
	case strings.HasPrefix(arg, "c"):
		cfg := core.PlayerConfig{Type: core.PlayerComputer}
		if rest := arg[1:]; rest != "" {
			level, err := strconv.Atoi(rest)
			if err != nil || level < 0 || level > 20 {
				return cfg, fmt.Errorf("invalid computer level %q (0-20)", rest)
			}
			cfg.Level = level
		}
		return cfg, nil
	default:
		return core.PlayerConfig{}, fmt.Errorf("invalid player %q, use h, c or c<level>", arg)
	}
}

func newGameHandler(ctx context.Context, s *Session, args []string) error {
	req := core.CreateGameRequest{
		White: core.PlayerConfig{Type: core.PlayerHuman},
		Black: core.PlayerConfig{Type: core.PlayerHuman},
	}
	var err error
	if len(args) > 0 {
		if req.White, err = parsePlayer(args[0]); err != nil {
			return err
		}
	}
	if len(args) > 1 {
		if req.Black, err = parsePlayer(args[1]); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		req.FEN = strings.Join(args[2:], " ")
	}

	g, err := s.Client.CreateGame(ctx, req)
	if err != nil {
		return err
	}
	s.setGame(g)

	s.printf(display.Green, "Game created: %s\n", g.GameID)
	if side := s.ownSide(g); side != "" {
		fmt.Fprintf(s.Out, "You play %s\n", display.ColorForTurn(side))
	}

	if sideToMove(g).IsComputer() {
		s.printf(display.Magenta, "\nTriggering %s computer move...\n", colorName(g.Turn))
		return playComputerMove(ctx, s)
	}
	return nil
}

func joinGameHandler(ctx context.Context, s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	g, err := s.Client.GetGame(ctx, args[0])
	if err != nil {
		return err
	}
	s.setGame(g)

	s.printf(display.Green, "Joined game: %s\n", g.GameID)
	fmt.Fprintf(s.Out, "Turn: %s | State: %s | Moves: %d\n", display.ColorForTurn(g.Turn), g.State, len(g.Moves))
	return nil
}

func moveHandler(ctx context.Context, s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: move <uci-move>")
	}
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	g, err := s.Client.MakeMove(ctx, gameID, strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	s.setGame(g)
	s.printf(display.Green, "Move accepted: %s\n", strings.ToLower(args[0]))
	reportState(s, g)

	if g.State == stateOngoing && sideToMove(g).IsComputer() {
		s.printf(display.Magenta, "\nComputer's turn, triggering move...\n")
		return playComputerMove(ctx, s)
	}
	return nil
}

func computerMoveHandler(ctx context.Context, s *Session, _ []string) error {
	if _, err := s.requireGame(); err != nil {
		return err
	}
	return playComputerMove(ctx, s)
}

// playComputerMove queues an engine move and long-polls until it lands.
func playComputerMove(ctx context.Context, s *Session) error {
	before := s.moveCount()
	g, err := s.Client.MakeMove(ctx, s.GameID, core.ComputerMove)
	if err != nil {
		return err
	}
	s.setGame(g)

	if g.State == statePending {
		before = len(g.Moves)
		s.printf(display.Magenta, "Computer is thinking...\n")
	}
	for round := 0; g.State == statePending; round++ {
		if round == maxWaitRounds {
			return errors.New("timeout waiting for computer move")
		}
		if g, err = s.Client.WaitForChange(ctx, s.GameID, len(g.Moves)); err != nil {
			return err
		}
		s.setGame(g)
	}

	if len(g.Moves) <= before || g.LastMove == nil {
		return errors.New("computer move failed, game unchanged")
	}
	s.printf(display.Magenta, "Computer played: %s", g.LastMove.Move)
	if g.LastMove.Depth > 0 {
		fmt.Fprintf(s.Out, " (depth %d, score %d)", g.LastMove.Depth, g.LastMove.Score)
	}
	fmt.Fprintln(s.Out)
	reportState(s, g)
	return nil
}

func undoHandler(ctx context.Context, s *Session, args []string) error {
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	count := 1
	if len(args) > 0 {
		if count, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}

	g, err := s.Client.UndoMoves(ctx, gameID, count)
	if err != nil {
		return err
	}
	s.setGame(g)
	s.printf(display.Green, "Undid %d move(s)\n", count)
	return nil
}

func showBoardHandler(ctx context.Context, s *Session, _ []string) error {
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	g, err := s.Client.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	board, err := s.Client.GetBoard(ctx, gameID)
	if err != nil {
		return err
	}
	s.setGame(g)

	fmt.Fprintln(s.Out)
	display.RenderBoard(s.Out, board.Board)

	fmt.Fprintf(s.Out, "\nFEN: %s\n", g.FEN)
	fmt.Fprintf(s.Out, "Turn: %s | State: %s | Moves: %d\n", display.ColorForTurn(g.Turn), g.State, len(g.Moves))

	if len(g.Moves) > 0 {
		var sb strings.Builder
		for i, move := range g.Moves {
			if i%2 == 0 {
				if i > 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%d.", i/2+1)
			} else {
				sb.WriteByte(' ')
			}
			sb.WriteString(move)
		}
		fmt.Fprintf(s.Out, "\nHistory: %s\n", sb.String())
	}

	if g.LastMove != nil {
		fmt.Fprintf(s.Out, "Last move: %s by %s", g.LastMove.Move, colorName(g.LastMove.PlayerColor))
		if g.LastMove.Captured != "" {
			fmt.Fprintf(s.Out, " takes %s", g.LastMove.Captured)
		}
		fmt.Fprintln(s.Out)
	}
	if m := g.Material; m.WhiteScore != m.BlackScore {
		fmt.Fprintf(s.Out, "Material: White +%d | Black +%d\n", m.WhiteScore, m.BlackScore)
	}
	return nil
}

func gameStateHandler(ctx context.Context, s *Session, _ []string) error {
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	g, err := s.Client.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	s.setGame(g)

	s.printf(display.Cyan, "Game State:\n")
	display.PrettyJSON(s.Out, g)
	return nil
}

func legalMovesHandler(ctx context.Context, s *Session, _ []string) error {
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	legal, err := s.Client.GetLegalMoves(ctx, gameID)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%s to move, %d legal move(s):\n", display.ColorForTurn(legal.Turn), len(legal.Moves))
	fmt.Fprintln(s.Out, strings.Join(legal.Moves, " "))
	return nil
}

func pgnHandler(ctx context.Context, s *Session, _ []string) error {
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	pgn, err := s.Client.GetPGN(ctx, gameID)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Out, strings.TrimSpace(pgn.PGN))
	return nil
}

func playersHandler(ctx context.Context, s *Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: players <white> <black>")
	}
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	var req core.ConfigurePlayersRequest
	if req.White, err = parsePlayer(args[0]); err != nil {
		return err
	}
	if req.Black, err = parsePlayer(args[1]); err != nil {
		return err
	}

	g, err := s.Client.ConfigurePlayers(ctx, gameID, req)
	if err != nil {
		return err
	}
	s.setGame(g)
	fmt.Fprintf(s.Out, "White: %s | Black: %s\n", describePlayer(g.Players.White), describePlayer(g.Players.Black))
	return nil
}

func deleteGameHandler(ctx context.Context, s *Session, args []string) error {
	gameID := s.GameID
	if len(args) > 0 {
		gameID = args[0]
	}
	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	if err := s.Client.DeleteGame(ctx, gameID); err != nil {
		return err
	}
	if gameID == s.GameID {
		s.GameID = ""
		s.Game = nil
	}

	s.printf(display.Green, "Game deleted: %s\n", gameID)
	return nil
}

func pollHandler(ctx context.Context, s *Session, _ []string) error {
	gameID, err := s.requireGame()
	if err != nil {
		return err
	}

	before := s.moveCount()
	s.printf(display.Cyan, "Long-polling for updates (move count: %d)...\n", before)

	g, err := s.Client.WaitForChange(ctx, gameID, before)
	if err != nil {
		return err
	}
	s.setGame(g)

	if len(g.Moves) != before {
		s.printf(display.Green, "Game updated! Move count now %d\n", len(g.Moves))
		if g.LastMove != nil {
			fmt.Fprintf(s.Out, "Last move: %s\n", g.LastMove.Move)
		}
	} else {
		s.printf(display.Yellow, "No new moves (state: %s)\n", g.State)
	}
	return nil
}

func sideToMove(g *core.GameResponse) *core.Player {
	if g.Turn == "w" {
		return g.Players.White
	}
	return g.Players.Black
}

// ownSide returns the color whose player belongs to the logged-in user.
func (s *Session) ownSide(g *core.GameResponse) string {
	if s.UserID == "" {
		return ""
	}
	switch {
	case g.Players.White != nil && g.Players.White.UserID == s.UserID:
		return "w"
	case g.Players.Black != nil && g.Players.Black.UserID == s.UserID:
		return "b"
	}
	return ""
}

func colorName(c string) string {
	if c == "w" {
		return "White"
	}
	return "Black"
}

func describePlayer(p *core.Player) string {
	if p == nil {
		return "none"
	}
	if p.IsComputer() {
		return fmt.Sprintf("computer (level %d, %dms)", p.Level, p.SearchTime)
	}
	return "human"
}

func reportState(s *Session, g *core.GameResponse) {
	switch {
	case g.State != stateOngoing && g.State != statePending:
		msg := "Game over: " + g.State
		if g.Reason != "" {
			msg += " (" + g.Reason + ")"
		}
		s.printf(display.Yellow, "%s\n", msg)
	case g.InCheck:
		s.printf(display.Yellow, "%s is in check\n", colorName(g.Turn))
	}
}

package processor

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode"

	"chessgame/internal/chess"
	"chessgame/internal/core"
	"chessgame/internal/game"
	"chessgame/internal/service"
)

// FEN validation regex
var fenPattern = regexp.MustCompile(`^[rnbqkpRNBQKP1-8/]+ [wb] [KQkq-]+ [a-h1-8-]+ \d+ \d+$`)

const defaultWorkers = 2

// Config selects the engine used for computer moves.
type Config struct {
	EnginePath string
	Workers    int
	// Factory overrides EnginePath when set.
	Factory EngineFactory
}

// Processor handles command execution and coordinates between service and engine layers
type Processor struct {
	svc   *service.Service
	queue *EngineQueue
}

// New creates a processor. Engine start failures are logged; games between
// humans keep working without an engine.
func New(svc *service.Service, cfg Config) *Processor {
	factory := cfg.Factory
	if factory == nil {
		factory = UCIFactory(cfg.EnginePath)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	q := NewEngineQueue(workers, factory)
	if !q.Available() {
		log.Printf("Warning: no engine available, computer moves are disabled")
	}
	return &Processor{svc: svc, queue: q}
}

// EngineAvailable reports whether computer moves can be served.
func (p *Processor) EngineAvailable() bool {
	return p.queue.Available()
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdConfigurePlayers:
		return p.handleConfigurePlayers(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdGetLegalMoves:
		return p.handleGetLegalMoves(cmd)
	case CmdGetPGN:
		return p.handleGetPGN(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// isFENSafe rejects control characters and anything not shaped like a FEN.
// The rules engine does the real validation.
func (p *Processor) isFENSafe(fen string) bool {
	for _, r := range fen {
		if unicode.IsControl(r) {
			return false
		}
	}
	return fenPattern.MatchString(fen)
}

// isMoveSafe accepts [a-h][1-8][a-h][1-8][qrbn]? only.
func (p *Processor) isMoveSafe(move string) bool {
	if len(move) < 4 || len(move) > 5 {
		return false
	}
	if move[0] < 'a' || move[0] > 'h' ||
		move[1] < '1' || move[1] > '8' ||
		move[2] < 'a' || move[2] > 'h' ||
		move[3] < '1' || move[3] > '8' {
		return false
	}
	if len(move) == 5 {
		switch move[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return false
		}
	}
	return true
}

// newPlayers builds both sides; human sides are owned by the caller when
// authenticated.
func newPlayers(white, black core.PlayerConfig, userID string) (*core.Player, *core.Player) {
	w := core.NewPlayer(white, chess.White)
	b := core.NewPlayer(black, chess.Black)
	if userID != "" {
		for _, pl := range []*core.Player{w, b} {
			if pl.Type == core.PlayerHuman {
				pl.UserID = userID
			}
		}
	}
	return w, b
}

func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	fen := strings.TrimSpace(args.FEN)
	if fen != "" && !p.isFENSafe(fen) {
		return p.errorResponse("invalid FEN format or characters", core.ErrInvalidFEN)
	}

	gameID := p.svc.GenerateGameID()
	whitePlayer, blackPlayer := newPlayers(args.White, args.Black, cmd.UserID)
	if err := p.svc.CreateGame(gameID, whitePlayer, blackPlayer, fen); err != nil {
		return p.serviceError("failed to create game", err)
	}

	return p.gameResponse(gameID)
}

func (p *Processor) handleConfigurePlayers(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigurePlayersRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	whitePlayer, blackPlayer := newPlayers(args.White, args.Black, cmd.UserID)
	if err := p.svc.UpdatePlayers(cmd.GameID, whitePlayer, blackPlayer, cmd.UserID); err != nil {
		return p.serviceError("failed to update players", err)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	return p.gameResponse(cmd.GameID)
}

// handleMakeMove plays a human move, or queues a computer move for "cccc".
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	move := strings.ToLower(strings.TrimSpace(args.Move))
	if move == core.ComputerMove {
		return p.handleComputerMove(cmd)
	}

	if !p.isMoveSafe(move) {
		return p.errorResponse("invalid move format", core.ErrInvalidMove)
	}

	if _, err := p.svc.MakeMove(cmd.GameID, move, cmd.UserID); err != nil {
		return p.serviceError("move rejected", err)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleComputerMove(cmd Command) ProcessorResponse {
	if !p.queue.Available() {
		return p.errorResponse("no engine available", core.ErrEngineUnavailable)
	}

	fen, player, err := p.svc.BeginComputerMove(cmd.GameID)
	if err != nil {
		return p.serviceError("cannot start computer move", err)
	}

	if err := p.triggerComputerMove(cmd.GameID, fen, player); err != nil {
		p.svc.AbortComputerMove(cmd.GameID)
		return p.errorResponse(fmt.Sprintf("engine unavailable: %v", err), core.ErrEngineUnavailable)
	}

	resp := p.gameResponse(cmd.GameID)
	resp.Pending = true
	if data, ok := resp.Data.(core.GameResponse); ok {
		data.LastMove = &core.MoveInfo{PlayerColor: player.Color.String()}
		resp.Data = data
	}
	return resp
}

// triggerComputerMove queues the search. The result goes through the rules
// engine like any human move; anything unusable returns the game to ongoing.
func (p *Processor) triggerComputerMove(gameID, fen string, player core.Player) error {
	return p.queue.SubmitAsync(gameID, fen, player, func(result EngineResult) {
		if result.Error != nil {
			log.Printf("Engine error for game %s: %v", gameID, result.Error)
			p.svc.AbortComputerMove(gameID)
			return
		}
		if _, err := p.svc.CompleteComputerMove(gameID, result.Move, result.Score, result.Depth); err != nil {
			log.Printf("Engine move %s rejected for game %s: %v", result.Move, gameID, err)
		}
	})
}

func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok && req.Count > 0 {
		args = req
	}

	if err := p.svc.UndoMoves(cmd.GameID, args.Count, cmd.UserID); err != nil {
		return p.serviceError("undo failed", err)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID, cmd.UserID); err != nil {
		return p.serviceError("delete failed", err)
	}
	return ProcessorResponse{Success: true}
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	var resp core.BoardResponse
	err := p.svc.ViewGame(cmd.GameID, func(g *game.Game) {
		resp = core.BoardResponse{FEN: g.CurrentFEN(), Board: g.Board()}
	})
	if err != nil {
		return p.serviceError("game not found", err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleGetLegalMoves(cmd Command) ProcessorResponse {
	var resp core.LegalMovesResponse
	err := p.svc.ViewGame(cmd.GameID, func(g *game.Game) {
		resp = core.LegalMovesResponse{
			GameID: cmd.GameID,
			Turn:   g.NextTurn().String(),
			Moves:  g.LegalMoves(),
		}
	})
	if err != nil {
		return p.serviceError("game not found", err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleGetPGN(cmd Command) ProcessorResponse {
	var (
		pgn    string
		pgnErr error
	)
	err := p.svc.ViewGame(cmd.GameID, func(g *game.Game) {
		pgn, pgnErr = g.PGN()
	})
	if err != nil {
		return p.serviceError("game not found", err)
	}
	if pgnErr != nil {
		return p.errorResponse(fmt.Sprintf("PGN export failed: %v", pgnErr), core.ErrInternalError)
	}
	return ProcessorResponse{
		Success: true,
		Data:    core.PGNResponse{GameID: cmd.GameID, PGN: pgn},
	}
}

// gameResponse snapshots the game under the service read lock.
func (p *Processor) gameResponse(gameID string) ProcessorResponse {
	var resp core.GameResponse
	err := p.svc.ViewGame(gameID, func(g *game.Game) {
		resp = buildGameResponse(gameID, g)
	})
	if err != nil {
		return p.serviceError("game not found", err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

// buildGameResponse constructs standard game response
func buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	resp := core.GameResponse{
		GameID:  gameID,
		FEN:     g.CurrentFEN(),
		Turn:    g.NextTurn().String(),
		State:   g.State().String(),
		InCheck: g.InCheck(),
		Moves:   g.Moves(),
		Players: core.PlayersResponse{
			White: copyPlayer(g.GetPlayer(chess.White)),
			Black: copyPlayer(g.GetPlayer(chess.Black)),
		},
		Material: core.MaterialInfo{
			WhiteCaptures: g.Captures(chess.White),
			BlackCaptures: g.Captures(chess.Black),
			WhiteScore:    g.Score(chess.White),
			BlackScore:    g.Score(chess.Black),
		},
	}

	if cs := g.ChessState(); cs.Kind == chess.Draw && cs.Reason != chess.NoDraw {
		resp.Reason = cs.Reason.String()
	}

	if result := g.LastResult(); result != nil {
		resp.LastMove = &core.MoveInfo{
			Move:        result.Move,
			PlayerColor: result.PlayerColor.String(),
			Score:       result.Score,
			Depth:       result.Depth,
		}
		if result.Captured != chess.NoPiece {
			resp.LastMove.Captured = string(result.Captured.Rune())
		}
	}

	return resp
}

func copyPlayer(pl *core.Player) *core.Player {
	if pl == nil {
		return nil
	}
	c := *pl
	return &c
}

// serviceError maps service and rules errors onto API error codes.
func (p *Processor) serviceError(action string, err error) ProcessorResponse {
	var moveErr *chess.MoveError
	code := core.ErrInternalError

	switch {
	case errors.Is(err, service.ErrGameNotFound):
		code = core.ErrGameNotFound
	case errors.Is(err, service.ErrGameOver):
		code = core.ErrGameOver
	case errors.Is(err, service.ErrNotHumanTurn), errors.Is(err, service.ErrNotComputerTurn):
		code = core.ErrNotHumanTurn
	case errors.Is(err, service.ErrNotYourTurn):
		code = core.ErrNotYourTurn
	case errors.Is(err, service.ErrNotGameOwner):
		code = core.ErrUnauthorized
	case errors.Is(err, service.ErrTooManyGames):
		code = core.ErrResourceLimit
	case errors.Is(err, service.ErrGamePending), errors.Is(err, game.ErrUndoCount):
		code = core.ErrInvalidRequest
	case errors.Is(err, chess.ErrInvalidFEN):
		code = core.ErrInvalidFEN
	case errors.As(err, &moveErr), errors.Is(err, chess.ErrInvalidNotation),
		errors.Is(err, chess.ErrGameNotPlaying):
		code = core.ErrInvalidMove
	}

	if code == core.ErrInternalError {
		log.Printf("%s: %v", action, err)
	}
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error:   err.Error(),
			Code:    code,
			Details: action,
		},
	}
}

func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close stops the engine workers.
func (p *Processor) Close() error {
	return p.queue.Shutdown(5 * time.Second)
}

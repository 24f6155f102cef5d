// Package game holds one game session: the rules-engine position, the two
// players and the bookkeeping the API reports. A Game is not safe for
// concurrent use; the service serializes access.
package game

import (
	"errors"
	"fmt"
	"time"

	"chessgame/internal/chess"
	"chessgame/internal/core"
)

// ErrUndoCount is returned for a non-positive count or one larger than the history.
var ErrUndoCount = errors.New("invalid undo count")

// MoveResult tracks the outcome of a move
type MoveResult struct {
	Move        string      `json:"move"`
	PlayerColor chess.Color `json:"playerColor"`
	Captured    chess.Piece `json:"-"`
	GameState   core.State  `json:"gameState"`
	Score       int         `json:"score"`
	Depth       int         `json:"depth"`
}

type Game struct {
	initialFEN string
	position   *chess.Position
	players    map[chess.Color]*core.Player
	pending    bool
	lastResult *MoveResult
	startTime  time.Time
}

// New starts a session from initialFEN (the standard start when empty). The
// stored initial FEN is the canonical rendering of the parsed position.
func New(initialFEN string, whitePlayer, blackPlayer *core.Player) (*Game, error) {
	if initialFEN == "" {
		initialFEN = chess.StartingFEN
	}
	pos, err := chess.ParseFEN(initialFEN)
	if err != nil {
		return nil, err
	}

	return &Game{
		initialFEN: pos.FEN(),
		position:   pos,
		players: map[chess.Color]*core.Player{
			chess.White: whitePlayer,
			chess.Black: blackPlayer,
		},
		startTime: time.Now().UTC(),
	}, nil
}

// Play applies a move in coordinate notation for the side to move.
func (g *Game) Play(uci string) (*MoveResult, error) {
	mover := g.position.Turn()
	before := len(g.position.Captures(mover))

	m, err := g.position.PlayUCI(uci)
	if err != nil {
		return nil, err
	}

	result := &MoveResult{
		Move:        m.UCI(),
		PlayerColor: mover,
		GameState:   g.State(),
	}
	if caps := g.position.Captures(mover); len(caps) > before {
		result.Captured = caps[len(caps)-1]
	}
	g.lastResult = result
	return result, nil
}

// UndoMoves takes back count plies by replaying the remaining history from
// the initial position.
func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: %d", ErrUndoCount, count)
	}

	history := g.position.MoveHistory()
	if len(history) < count {
		return fmt.Errorf("%w: cannot undo %d moves, only %d available", ErrUndoCount, count, len(history))
	}

	pos, err := chess.ParseFEN(g.initialFEN)
	if err != nil {
		return fmt.Errorf("rebuilding initial position: %w", err)
	}
	for _, m := range history[:len(history)-count] {
		if _, err := pos.PlayUCI(m); err != nil {
			return fmt.Errorf("replaying %s: %w", m, err)
		}
	}

	g.position = pos
	g.pending = false
	g.lastResult = nil
	return nil
}

func (g *Game) SetLastResult(result *MoveResult) {
	g.lastResult = result
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

func (g *Game) CurrentFEN() string {
	return g.position.FEN()
}

func (g *Game) InitialFEN() string {
	return g.initialFEN
}

func (g *Game) StartTime() time.Time {
	return g.startTime
}

// NextTurn is the side to move, or the side that would move after a finished game.
func (g *Game) NextTurn() chess.Color {
	return g.position.Turn()
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextTurn()]
}

func (g *Game) GetPlayer(color chess.Color) *core.Player {
	return g.players[color]
}

func (g *Game) UpdatePlayers(whitePlayer, blackPlayer *core.Player) {
	g.players[chess.White] = whitePlayer
	g.players[chess.Black] = blackPlayer
}

// Moves is the move history in coordinate notation.
func (g *Game) Moves() []string {
	return g.position.MoveHistory()
}

// State reports pending while the engine is thinking, otherwise the state
// derived from the position.
func (g *Game) State() core.State {
	if g.pending {
		return core.StatePending
	}
	return core.StateFromChess(g.position.State())
}

// ChessState is the underlying rules-engine state.
func (g *Game) ChessState() chess.State {
	return g.position.State()
}

func (g *Game) SetPending(pending bool) {
	g.pending = pending
}

func (g *Game) InCheck() bool {
	return g.position.InCheck()
}

// Position returns a copy of the current position.
func (g *Game) Position() *chess.Position {
	return g.position.Clone()
}

func (g *Game) Board() string {
	return g.position.ASCII()
}

// LegalMoves lists the legal moves of the side to move, empty once the game is over.
func (g *Game) LegalMoves() []string {
	moves := []string{}
	if g.position.State().IsOver() {
		return moves
	}
	for _, m := range g.position.LegalMoves(g.position.Turn()) {
		moves = append(moves, m.UCI())
	}
	return moves
}

// Captures lists the FEN letters of the pieces color has captured.
func (g *Game) Captures(color chess.Color) []string {
	caps := []string{}
	for _, p := range g.position.Captures(color) {
		caps = append(caps, string(p.Rune()))
	}
	return caps
}

func (g *Game) Score(color chess.Color) int {
	return g.position.Score(color)
}

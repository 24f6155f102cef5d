package processor

import (
	"chessgame/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdConfigurePlayers
	CmdGetGame
	CmdDeleteGame
	CmdMakeMove
	CmdUndoMove
	CmdGetBoard
	CmdGetLegalMoves
	CmdGetPGN
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	UserID string // authenticated caller, empty when anonymous
	GameID string
	Args   any
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // computer move accepted, not yet played
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{Type: CmdCreateGame, Args: req}
}

func NewConfigurePlayersCommand(gameID string, req core.ConfigurePlayersRequest) Command {
	return Command{Type: CmdConfigurePlayers, GameID: gameID, Args: req}
}

func NewGetGameCommand(gameID string) Command {
	return Command{Type: CmdGetGame, GameID: gameID}
}

func NewMakeMoveCommand(gameID string, req core.MoveRequest) Command {
	return Command{Type: CmdMakeMove, GameID: gameID, Args: req}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{Type: CmdUndoMove, GameID: gameID, Args: req}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{Type: CmdDeleteGame, GameID: gameID}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{Type: CmdGetBoard, GameID: gameID}
}

func NewGetLegalMovesCommand(gameID string) Command {
	return Command{Type: CmdGetLegalMoves, GameID: gameID}
}

func NewGetPGNCommand(gameID string) Command {
	return Command{Type: CmdGetPGN, GameID: gameID}
}

// WithUser attaches the authenticated caller to a command.
func (c Command) WithUser(userID string) Command {
	c.UserID = userID
	return c
}

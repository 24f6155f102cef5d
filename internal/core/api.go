package core

// Request types

type CreateGameRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
	FEN   string       `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
}

// ComputerMove is the move string that asks the engine to play for the side to move.
const ComputerMove = "cccc"

type MoveRequest struct {
	Move string `json:"move" validate:"required,min=4,max=5"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID   string          `json:"gameId"`
	FEN      string          `json:"fen"`
	Turn     string          `json:"turn"`  // "w" or "b"
	State    string          `json:"state"` // "ongoing", "white wins", ...
	Reason   string          `json:"reason,omitempty"`
	InCheck  bool            `json:"inCheck"`
	Moves    []string        `json:"moves"`
	Players  PlayersResponse `json:"players"`
	Material MaterialInfo    `json:"material"`
	LastMove *MoveInfo       `json:"lastMove,omitempty"`
}

// MaterialInfo lists captured pieces (FEN letters) and the material each side has won.
type MaterialInfo struct {
	WhiteCaptures []string `json:"whiteCaptures"`
	BlackCaptures []string `json:"blackCaptures"`
	WhiteScore    int      `json:"whiteScore"`
	BlackScore    int      `json:"blackScore"`
}

type MoveInfo struct {
	Move        string `json:"move"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
	Captured    string `json:"captured,omitempty"`
	Score       int    `json:"score,omitempty"`
	Depth       int    `json:"depth,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"`
}

type LegalMovesResponse struct {
	GameID string   `json:"gameId"`
	Turn   string   `json:"turn"`
	Moves  []string `json:"moves"`
}

type PGNResponse struct {
	GameID string `json:"gameId"`
	PGN    string `json:"pgn"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

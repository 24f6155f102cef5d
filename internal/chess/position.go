package chess

import (
	"maps"
	"slices"
)

// CastlingFlags records whether each king and castling rook has left its
// original square. Flags only ever go from false to true.
type CastlingFlags struct {
	WhiteKingMoved          bool
	WhiteKingsideRookMoved  bool
	WhiteQueensideRookMoved bool
	BlackKingMoved          bool
	BlackKingsideRookMoved  bool
	BlackQueensideRookMoved bool
}

func (f CastlingFlags) kingMoved(c Color) bool {
	if c == White {
		return f.WhiteKingMoved
	}
	return f.BlackKingMoved
}

func (f CastlingFlags) rookMoved(c Color, kingside bool) bool {
	switch {
	case c == White && kingside:
		return f.WhiteKingsideRookMoved
	case c == White:
		return f.WhiteQueensideRookMoved
	case kingside:
		return f.BlackKingsideRookMoved
	default:
		return f.BlackQueensideRookMoved
	}
}

// CanCastle reports whether the flags still permit castling on that side.
func (f CastlingFlags) CanCastle(c Color, kingside bool) bool {
	return !f.kingMoved(c) && !f.rookMoved(c, kingside)
}

func (f *CastlingFlags) markKing(c Color) {
	if c == White {
		f.WhiteKingMoved = true
	} else {
		f.BlackKingMoved = true
	}
}

func (f *CastlingFlags) markRook(c Color, kingside bool) {
	switch {
	case c == White && kingside:
		f.WhiteKingsideRookMoved = true
	case c == White:
		f.WhiteQueensideRookMoved = true
	case kingside:
		f.BlackKingsideRookMoved = true
	default:
		f.BlackQueensideRookMoved = true
	}
}

// Position is the full game record: board, rule state and history.
// The zero value is an empty board with White to move.
type Position struct {
	board     [8][8]Piece
	state     State
	toMove    Color
	castling  CastlingFlags
	enPassant Square
	hasEP     bool
	halfmove  int
	fullmove  int
	history   map[uint64]int
	moves     []Move
	captures  [2][]Piece
	scores    [2]int
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewPosition returns the standard starting position, White to move.
func NewPosition() *Position {
	p := &Position{
		state:    PlayingState(White),
		fullmove: 1,
		history:  make(map[uint64]int),
	}
	for f := 0; f < 8; f++ {
		p.board[0][f] = NewPiece(Black, backRank[f])
		p.board[1][f] = BlackPawn
		p.board[6][f] = WhitePawn
		p.board[7][f] = NewPiece(White, backRank[f])
	}
	return p
}

// EmptyPosition returns a board with no pieces and the given side to move.
// Castling flags start unmoved; they are irrelevant until kings and rooks are placed.
func EmptyPosition(turn Color) *Position {
	return &Position{
		state:    PlayingState(turn),
		toMove:   turn,
		fullmove: 1,
		history:  make(map[uint64]int),
	}
}

// PieceAt returns the piece on sq, or NoPiece when empty or off the board.
func (p *Position) PieceAt(sq Square) Piece {
	if !IsValid(sq) {
		return NoPiece
	}
	return p.board[sq.Rank][sq.File]
}

// SetPiece places (or with NoPiece clears) a square. Off-board squares are ignored.
func (p *Position) SetPiece(sq Square, piece Piece) {
	if !IsValid(sq) {
		return
	}
	p.board[sq.Rank][sq.File] = piece
}

// Clone returns an independent deep copy, including the repetition table
// and move log.
func (p *Position) Clone() *Position {
	c := *p
	c.history = maps.Clone(p.history)
	if c.history == nil {
		c.history = make(map[uint64]int)
	}
	c.moves = slices.Clone(p.moves)
	c.captures[White] = slices.Clone(p.captures[White])
	c.captures[Black] = slices.Clone(p.captures[Black])
	return &c
}

func (p *Position) State() State {
	return p.state
}

// Turn is the side to move while playing; after the game ends it is the
// side that would have moved next.
func (p *Position) Turn() Color {
	return p.toMove
}

func (p *Position) Castling() CastlingFlags {
	return p.castling
}

// EnPassant returns the square a pawn may capture onto en passant.
func (p *Position) EnPassant() (Square, bool) {
	return p.enPassant, p.hasEP
}

func (p *Position) HalfmoveClock() int {
	return p.halfmove
}

func (p *Position) FullmoveNumber() int {
	return p.fullmove
}

// Moves returns a copy of the executed move log.
func (p *Position) Moves() []Move {
	return slices.Clone(p.moves)
}

// Captures returns the pieces captured by color, in capture order.
func (p *Position) Captures(c Color) []Piece {
	return slices.Clone(p.captures[c])
}

// Score is the summed value of pieces captured by color.
func (p *Position) Score(c Color) int {
	return p.scores[c]
}

// RepetitionCount returns how often a position hash has been recorded.
func (p *Position) RepetitionCount(hash uint64) int {
	return p.history[hash]
}

// FindKing locates the king of color.
func (p *Position) FindKing(c Color) (Square, bool) {
	king := NewPiece(c, King)
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if p.board[r][f] == king {
				return Sq(r, f), true
			}
		}
	}
	return Square{}, false
}

// PieceCount counts the pieces on the board.
func (p *Position) PieceCount() int {
	n := 0
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if p.board[r][f] != NoPiece {
				n++
			}
		}
	}
	return n
}

// scratch is a board-only copy for hypothetical moves. It carries no
// repetition table or move log, so nothing done to it reaches the live game.
func (p *Position) scratch() *Position {
	return &Position{
		board:     p.board,
		state:     p.state,
		toMove:    p.toMove,
		castling:  p.castling,
		enPassant: p.enPassant,
		hasEP:     p.hasEP,
		halfmove:  p.halfmove,
		fullmove:  p.fullmove,
	}
}

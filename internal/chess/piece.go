// Package chess implements the rules of chess over a mailbox board: move
// validation, move execution and game status tracking.
package chess

import "fmt"

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// String returns the FEN side letter.
func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

// MarshalText encodes the color as "w" or "b".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	switch string(b) {
	case "w":
		*c = White
	case "b":
		*c = Black
	default:
		return fmt.Errorf("invalid color %q", b)
	}
	return nil
}

// Name returns the capitalized color name.
func (c Color) Name() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// homeRank is the rank index holding the color's king and rooks.
func (c Color) homeRank() int {
	if c == White {
		return 7
	}
	return 0
}

// pawnDirection is the rank delta of a single pawn step.
func (c Color) pawnDirection() int {
	if c == White {
		return -1
	}
	return 1
}

// pawnRank is the starting rank of the color's pawns.
func (c Color) pawnRank() int {
	if c == White {
		return 6
	}
	return 1
}

// promotionRank is the rank a pawn of this color promotes on.
func (c Color) promotionRank() int {
	if c == White {
		return 0
	}
	return 7
}

type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeNames = [...]string{"None", "Pawn", "Knight", "Bishop", "Rook", "Queen", "King"}

func (t PieceType) String() string {
	if int(t) < len(pieceTypeNames) {
		return pieceTypeNames[t]
	}
	return "Unknown"
}

// Score is the material value credited to the capturing side.
func (t PieceType) Score() int {
	switch t {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	default:
		return 0
	}
}

// Letter is the lowercase letter used in move notation and FEN.
func (t PieceType) Letter() byte {
	switch t {
	case Pawn:
		return 'p'
	case Knight:
		return 'n'
	case Bishop:
		return 'b'
	case Rook:
		return 'r'
	case Queen:
		return 'q'
	case King:
		return 'k'
	default:
		return 0
	}
}

// IsPromotion reports whether a pawn may promote to this type.
func (t PieceType) IsPromotion() bool {
	return t == Queen || t == Rook || t == Bishop || t == Knight
}

func pieceTypeFromLetter(b byte) PieceType {
	switch b {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	default:
		return NoPieceType
	}
}

// Piece is one of the twelve colored pieces, or NoPiece for an empty square.
type Piece uint8

const (
	NoPiece Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// NewPiece combines a color and a type. NoPieceType yields NoPiece.
func NewPiece(c Color, t PieceType) Piece {
	if t == NoPieceType || t > King {
		return NoPiece
	}
	if c == White {
		return Piece(t)
	}
	return Piece(t) + 6
}

func (p Piece) Type() PieceType {
	switch {
	case p == NoPiece || p > BlackKing:
		return NoPieceType
	case p > WhiteKing:
		return PieceType(p - 6)
	default:
		return PieceType(p)
	}
}

// Color of the piece; meaningless for NoPiece.
func (p Piece) Color() Color {
	if p > WhiteKing {
		return Black
	}
	return White
}

func (p Piece) Score() int {
	return p.Type().Score()
}

// Rune returns the FEN letter: uppercase for White, lowercase for Black.
func (p Piece) Rune() rune {
	l := p.Type().Letter()
	if l == 0 {
		return '.'
	}
	if p.Color() == White {
		return rune(l - 'a' + 'A')
	}
	return rune(l)
}

func (p Piece) String() string {
	if p == NoPiece {
		return "None"
	}
	return p.Color().Name() + p.Type().String()
}

// PieceFromRune parses a FEN piece letter.
func PieceFromRune(r rune) Piece {
	switch {
	case r >= 'a' && r <= 'z':
		return NewPiece(Black, pieceTypeFromLetter(byte(r)))
	case r >= 'A' && r <= 'Z':
		return NewPiece(White, pieceTypeFromLetter(byte(r-'A'+'a')))
	default:
		return NoPiece
	}
}

package chess

import (
	"fmt"
	"strings"
)

// Move is one entry of the move log. Piece is the mover before any promotion.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
	Piece     Piece
}

// UCI encodes the move as coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		s += string(m.Promotion.Letter())
	}
	return s
}

func (m Move) String() string {
	return m.UCI()
}

// ParseUCI decodes coordinate notation. The returned Move has no Piece set.
func ParseUCI(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		t := pieceTypeFromLetter(s[4])
		if !t.IsPromotion() {
			return Move{}, fmt.Errorf("%w: promotion %q", ErrInvalidNotation, s[4])
		}
		m.Promotion = t
	}
	return m, nil
}

// MoveHistory returns every executed move in coordinate notation, oldest first.
func (p *Position) MoveHistory() []string {
	out := make([]string, len(p.moves))
	for i, m := range p.moves {
		out[i] = m.UCI()
	}
	return out
}

// HistoryString joins MoveHistory with single spaces, the form expected
// after "moves" in a UCI position command.
func (p *Position) HistoryString() string {
	return strings.Join(p.MoveHistory(), " ")
}

package chess

import (
	"fmt"
	"strconv"
	"strings"
)

const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a position from Forsyth-Edwards Notation. Missing castling
// rights mark the corresponding king or rook as moved. Positions that are
// already mated, stalemated or drawn by material or the fifty-move rule start
// in that terminal state.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(parts))
	}

	p := EmptyPosition(White)

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("%w: expected 8 ranks", ErrInvalidFEN)
	}
	for r := 0; r < 8; r++ {
		file := 0
		for _, ch := range ranks[r] {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			piece := PieceFromRune(ch)
			if piece == NoPiece {
				return nil, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			if file >= 8 {
				return nil, fmt.Errorf("%w: too many pieces in rank %d", ErrInvalidFEN, 8-r)
			}
			p.board[r][file] = piece
			file++
		}
		if file != 8 {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-r, file)
		}
	}

	var turn Color
	switch parts[1] {
	case "w":
		turn = White
	case "b":
		turn = Black
	default:
		return nil, fmt.Errorf("%w: turn must be 'w' or 'b'", ErrInvalidFEN)
	}
	p.state, p.toMove = PlayingState(turn), turn

	if parts[2] != "-" && strings.Trim(parts[2], "KQkq") != "" {
		return nil, fmt.Errorf("%w: castling %q", ErrInvalidFEN, parts[2])
	}
	has := func(r string) bool { return strings.Contains(parts[2], r) }
	p.castling = CastlingFlags{
		WhiteKingMoved:          !has("K") && !has("Q"),
		WhiteKingsideRookMoved:  !has("K"),
		WhiteQueensideRookMoved: !has("Q"),
		BlackKingMoved:          !has("k") && !has("q"),
		BlackKingsideRookMoved:  !has("k"),
		BlackQueensideRookMoved: !has("q"),
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, parts[3])
		}
		// the target must sit behind an enemy pawn that just advanced two squares
		wantRank := 2
		if turn == Black {
			wantRank = 5
		}
		pushed := sq.offset(-turn.pawnDirection(), 0)
		if sq.Rank != wantRank || p.PieceAt(sq) != NoPiece || p.PieceAt(pushed) != NewPiece(turn.Opponent(), Pawn) {
			return nil, fmt.Errorf("%w: en passant %q without a capturable pawn", ErrInvalidFEN, parts[3])
		}
		p.enPassant, p.hasEP = sq, true
	}

	if p.halfmove, _ = strconv.Atoi(parts[4]); p.halfmove < 0 || !isDigits(parts[4]) {
		return nil, fmt.Errorf("%w: halfmove counter", ErrInvalidFEN)
	}
	if p.fullmove, _ = strconv.Atoi(parts[5]); p.fullmove < 1 || !isDigits(parts[5]) {
		return nil, fmt.Errorf("%w: fullmove counter", ErrInvalidFEN)
	}

	hasMoves := p.AnyLegalMove(turn)
	switch {
	case !hasMoves && p.IsInCheck(turn):
		p.state = CheckmateState(turn.Opponent())
	case p.InsufficientMaterial():
		p.state = DrawState(InsufficientMaterial)
	case p.halfmove >= 100:
		p.state = DrawState(FiftyMoveRule)
	case !hasMoves:
		p.state = StalemateState()
	}
	return p, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FEN serializes the position. Castling rights are emitted only while the
// king and rook still stand on their home squares with unmoved flags.
func (p *Position) FEN() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		empty := 0
		for f := 0; f < 8; f++ {
			pc := p.board[r][f]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(pc.Rune())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < 7 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(p.Turn().String())
	sb.WriteByte(' ')

	rights := ""
	for _, cr := range []struct {
		c        Color
		kingside bool
		letter   string
	}{
		{White, true, "K"}, {White, false, "Q"}, {Black, true, "k"}, {Black, false, "q"},
	} {
		if p.canCastleFEN(cr.c, cr.kingside) {
			rights += cr.letter
		}
	}
	if rights == "" {
		rights = "-"
	}
	sb.WriteString(rights)

	sb.WriteByte(' ')
	if p.hasEP {
		sb.WriteString(p.enPassant.String())
	} else {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, " %d %d", p.halfmove, p.fullmove)
	return sb.String()
}

func (p *Position) canCastleFEN(c Color, kingside bool) bool {
	if !p.castling.CanCastle(c, kingside) {
		return false
	}
	row := c.homeRank()
	rookFile := 0
	if kingside {
		rookFile = 7
	}
	return p.PieceAt(Sq(row, 4)) == NewPiece(c, King) && p.PieceAt(Sq(row, rookFile)) == NewPiece(c, Rook)
}

// ASCII renders the board from White's side with file and rank labels.
// Empty squares are dots.
func (p *Position) ASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for r := 0; r < 8; r++ {
		fmt.Fprintf(&sb, "%d ", 8-r)
		for f := 0; f < 8; f++ {
			sb.WriteRune(p.board[r][f].Rune())
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, " %d\n", 8-r)
	}
	sb.WriteString("  a b c d e f g h")
	return sb.String()
}

package chess

// Hash keys, generated once from a fixed seed so hashes are stable across runs.
var (
	zobristPiece     [13][64]uint64
	zobristFlags     [6]uint64
	zobristEnPassant [64]uint64
	zobristBlack     uint64
)

func init() {
	rng := xorshift(0x98F107A2BEEF1234)
	for pc := WhitePawn; pc <= BlackKing; pc++ {
		for sq := 0; sq < 64; sq++ {
			zobristPiece[pc][sq] = rng.next()
		}
	}
	for i := range zobristFlags {
		zobristFlags[i] = rng.next()
	}
	for i := range zobristEnPassant {
		zobristEnPassant[i] = rng.next()
	}
	zobristBlack = rng.next()
}

type xorshift uint64

// next steps xorshift64*.
func (x *xorshift) next() uint64 {
	*x ^= *x >> 12
	*x ^= *x << 25
	*x ^= *x >> 27
	return uint64(*x) * 0x2545F4914F6CDD1D
}

// Hash identifies the position for repetition purposes: placement, side to
// move, castling flags and en passant target. Move counters are excluded.
func (p *Position) Hash() uint64 {
	return p.hashFor(p.Turn())
}

func (p *Position) hashFor(toMove Color) uint64 {
	var h uint64
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if pc := p.board[r][f]; pc != NoPiece {
				h ^= zobristPiece[pc][r*8+f]
			}
		}
	}
	flags := [6]bool{
		p.castling.WhiteKingMoved, p.castling.WhiteKingsideRookMoved, p.castling.WhiteQueensideRookMoved,
		p.castling.BlackKingMoved, p.castling.BlackKingsideRookMoved, p.castling.BlackQueensideRookMoved,
	}
	for i, set := range flags {
		if set {
			h ^= zobristFlags[i]
		}
	}
	if p.hasEP {
		h ^= zobristEnPassant[p.enPassant.Rank*8+p.enPassant.File]
	}
	if toMove == Black {
		h ^= zobristBlack
	}
	return h
}

// AdvanceState recomputes the game state after a move has been executed.
// It does nothing once the game is over.
func (p *Position) AdvanceState() {
	turn, ok := p.state.Turn()
	if !ok {
		return
	}
	next := turn.Opponent()
	inCheck := p.IsInCheck(next)
	hasMoves := p.AnyLegalMove(next)

	if p.history == nil {
		p.history = make(map[uint64]int)
	}
	h := p.hashFor(next)
	p.history[h]++
	repeats := p.history[h]
	p.toMove = next

	switch {
	case !hasMoves && inCheck:
		p.state = CheckmateState(turn)
	case p.InsufficientMaterial():
		p.state = DrawState(InsufficientMaterial)
	case repeats >= 3:
		p.state = DrawState(ThreefoldRepetition)
	case p.halfmove >= 100:
		p.state = DrawState(FiftyMoveRule)
	case hasMoves:
		p.state = PlayingState(next)
	default:
		p.state = StalemateState()
	}
}

// InsufficientMaterial applies a deliberately narrow table: bare kings, a
// single extra bishop or knight, or one bishop per side. Five or more pieces
// always count as sufficient.
func (p *Position) InsufficientMaterial() bool {
	var others []Piece
	count := 0
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			pc := p.board[r][f]
			if pc == NoPiece {
				continue
			}
			count++
			if pc.Type() != King {
				others = append(others, pc)
			}
		}
	}

	switch count {
	case 2:
		return true
	case 3:
		return len(others) == 1 && (others[0].Type() == Bishop || others[0].Type() == Knight)
	case 4:
		return len(others) == 2 &&
			others[0].Type() == Bishop && others[1].Type() == Bishop &&
			others[0].Color() != others[1].Color()
	default:
		return false
	}
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsInCheck(p.Turn())
}

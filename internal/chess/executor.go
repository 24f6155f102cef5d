package chess

// plan is a fully validated move, computed before anything is written so a
// rejected move leaves the position untouched.
type plan struct {
	piece    Piece
	from     Square
	to       Square
	placed   Piece
	captured Piece
	// captureAt differs from to only for en passant
	captureAt Square

	castle   bool
	rookFrom Square
	rookTo   Square

	nextEP    Square
	hasNextEP bool
	castling  CastlingFlags
}

var rookCorners = map[Square]struct {
	color    Color
	kingside bool
}{
	Sq(0, 0): {Black, false},
	Sq(0, 7): {Black, true},
	Sq(7, 0): {White, false},
	Sq(7, 7): {White, true},
}

func (p *Position) plan(piece Piece, from, to Square, promotion Piece) (plan, error) {
	c := piece.Color()
	pl := plan{
		piece:     piece,
		from:      from,
		to:        to,
		placed:    piece,
		captureAt: to,
		castling:  p.castling,
	}

	switch piece.Type() {
	case King:
		pl.castling.markKing(c)
	case Rook:
		if corner, ok := rookCorners[from]; ok && corner.color == c {
			pl.castling.markRook(c, corner.kingside)
		}
	}

	if piece.Type() == Pawn && from.File != to.File && p.hasEP && to == p.enPassant && p.PieceAt(to) == NoPiece {
		if victim := Sq(from.Rank, to.File); p.PieceAt(victim) == NewPiece(c.Opponent(), Pawn) {
			pl.captureAt, pl.captured = victim, p.PieceAt(victim)
		}
	}

	if piece.Type() == Pawn && from.File == to.File && from.Rank == c.pawnRank() && to.Rank-from.Rank == 2*c.pawnDirection() {
		pl.nextEP, pl.hasNextEP = from.offset(c.pawnDirection(), 0), true
	}

	if piece.Type() == King && from.Rank == c.homeRank() && to.Rank == from.Rank && from.File == 4 {
		switch to.File {
		case 6:
			pl.castle, pl.rookFrom, pl.rookTo = true, Sq(from.Rank, 7), Sq(from.Rank, 5)
		case 2:
			pl.castle, pl.rookFrom, pl.rookTo = true, Sq(from.Rank, 0), Sq(from.Rank, 3)
		}
	}

	if pl.captured == NoPiece {
		pl.captureAt = to
		if target := p.PieceAt(to); target != NoPiece {
			if target.Color() == c {
				return plan{}, ErrSelfCapture
			}
			pl.captured = target
		}
	}

	if piece.Type() == Pawn && to.Rank == c.promotionRank() {
		if promotion == NoPiece {
			return plan{}, ErrPromotionRequired
		}
		if promotion.Color() != c || !promotion.Type().IsPromotion() {
			return plan{}, ErrInvalidPromotionPiece
		}
		pl.placed = promotion
	} else if promotion != NoPiece {
		return plan{}, ErrInvalidPromotionPiece
	}
	return pl, nil
}

// applyBoard writes the planned placement, castling flags and en passant
// target. Ledgers, clocks and the move log are left to Execute.
func (p *Position) applyBoard(pl plan) {
	p.castling = pl.castling
	p.enPassant, p.hasEP = pl.nextEP, pl.hasNextEP
	if pl.captureAt != pl.to {
		p.SetPiece(pl.captureAt, NoPiece)
	}
	if pl.castle {
		p.SetPiece(pl.rookTo, p.PieceAt(pl.rookFrom))
		p.SetPiece(pl.rookFrom, NoPiece)
	}
	p.SetPiece(pl.to, pl.placed)
	p.SetPiece(pl.from, NoPiece)
}

// Execute applies a move for the side to move and returns the piece now on
// to and the captured piece, if any. It does not check movement rules or
// king safety; callers validate with CheckMove first. The game state is not
// advanced. On error the position is unchanged.
func (p *Position) Execute(from, to Square, promotion Piece) (placed, captured Piece, err error) {
	if !IsValid(from) || !IsValid(to) {
		return NoPiece, NoPiece, moveError(from, to, ErrInvalidPosition)
	}
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return NoPiece, NoPiece, moveError(from, to, ErrNoPieceAtSource)
	}
	turn, ok := p.state.Turn()
	if !ok {
		return NoPiece, NoPiece, moveError(from, to, ErrGameNotPlaying)
	}
	if piece.Color() != turn {
		return NoPiece, NoPiece, moveError(from, to, ErrWrongTurn)
	}

	pl, err := p.plan(piece, from, to, promotion)
	if err != nil {
		return NoPiece, NoPiece, moveError(from, to, err)
	}
	p.applyBoard(pl)

	c := piece.Color()
	if pl.captured != NoPiece {
		p.captures[c] = append(p.captures[c], pl.captured)
		p.scores[c] += pl.captured.Score()
	}
	if piece.Type() == Pawn || pl.captured != NoPiece {
		p.halfmove = 0
	} else {
		p.halfmove++
	}
	if c == Black {
		p.fullmove++
	}

	m := Move{From: from, To: to, Piece: piece}
	if pl.placed != piece {
		m.Promotion = pl.placed.Type()
	}
	p.moves = append(p.moves, m)
	return pl.placed, pl.captured, nil
}

// Play validates and executes a move for the side to move, then advances the
// game state. promotion is NoPieceType unless a pawn reaches its last rank.
func (p *Position) Play(from, to Square, promotion PieceType) (Move, error) {
	if !IsValid(from) || !IsValid(to) {
		return Move{}, moveError(from, to, ErrInvalidPosition)
	}
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return Move{}, moveError(from, to, ErrNoPieceAtSource)
	}
	turn, ok := p.state.Turn()
	if !ok {
		return Move{}, moveError(from, to, ErrGameNotPlaying)
	}
	if piece.Color() != turn {
		return Move{}, moveError(from, to, ErrWrongTurn)
	}
	if err := p.CheckMove(from, to, promotion); err != nil {
		return Move{}, moveError(from, to, err)
	}
	if _, _, err := p.Execute(from, to, NewPiece(turn, promotion)); err != nil {
		return Move{}, err
	}
	p.AdvanceState()
	return p.moves[len(p.moves)-1], nil
}

// PlayUCI decodes coordinate notation and plays it.
func (p *Position) PlayUCI(s string) (Move, error) {
	m, err := ParseUCI(s)
	if err != nil {
		return Move{}, err
	}
	return p.Play(m.From, m.To, m.Promotion)
}

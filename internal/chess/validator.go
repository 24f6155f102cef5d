package chess

// IsValidPieceMove applies the movement rule of piece from its square to to,
// ignoring check. Castling is included for kings.
func (p *Position) IsValidPieceMove(piece Piece, from, to Square) bool {
	if !IsValid(from) || !IsValid(to) || from == to {
		return false
	}
	if piece.Type() == King {
		return p.validKingStep(from, to) || p.validCastle(piece.Color(), from, to)
	}
	return p.validMove(piece, from, to)
}

// validMove covers every piece except the king's castling move.
func (p *Position) validMove(piece Piece, from, to Square) bool {
	switch piece.Type() {
	case Pawn:
		return p.validPawnMove(piece.Color(), from, to)
	case Knight:
		dr, df := abs(to.Rank-from.Rank), abs(to.File-from.File)
		return (dr == 2 && df == 1) || (dr == 1 && df == 2)
	case Bishop:
		return p.validDiagonal(from, to)
	case Rook:
		return p.validStraight(from, to)
	case Queen:
		return p.validStraight(from, to) || p.validDiagonal(from, to)
	case King:
		return p.validKingStep(from, to)
	default:
		return false
	}
}

func (p *Position) validPawnMove(c Color, from, to Square) bool {
	dir := c.pawnDirection()
	dr, df := to.Rank-from.Rank, to.File-from.File

	switch {
	case df == 0 && dr == dir:
		return p.PieceAt(to) == NoPiece
	case df == 0 && dr == 2*dir && from.Rank == c.pawnRank():
		return p.PieceAt(from.offset(dir, 0)) == NoPiece && p.PieceAt(to) == NoPiece
	case dr == dir && abs(df) == 1:
		if target := p.PieceAt(to); target != NoPiece {
			return target.Color() != c
		}
		return p.hasEP && p.enPassant == to && p.PieceAt(Sq(from.Rank, to.File)) == NewPiece(c.Opponent(), Pawn)
	}
	return false
}

func (p *Position) validDiagonal(from, to Square) bool {
	if abs(to.Rank-from.Rank) != abs(to.File-from.File) {
		return false
	}
	return p.IsPathClear(from, to)
}

func (p *Position) validStraight(from, to Square) bool {
	if from.Rank != to.Rank && from.File != to.File {
		return false
	}
	return p.IsPathClear(from, to)
}

func (p *Position) validKingStep(from, to Square) bool {
	return abs(to.Rank-from.Rank) <= 1 && abs(to.File-from.File) <= 1
}

// validCastle checks a two-file king move along the home rank: flags, rook
// presence, empty squares between, and no attack on any square the king
// stands on or crosses.
func (p *Position) validCastle(c Color, from, to Square) bool {
	row := c.homeRank()
	if from.Rank != row || to.Rank != row || from.File != 4 {
		return false
	}

	var kingside bool
	var between []int
	switch to.File {
	case 6:
		kingside, between = true, []int{5, 6}
	case 2:
		kingside, between = false, []int{1, 2, 3}
	default:
		return false
	}

	if !p.castling.CanCastle(c, kingside) {
		return false
	}
	rookFile := 0
	if kingside {
		rookFile = 7
	}
	if p.PieceAt(Sq(row, rookFile)) != NewPiece(c, Rook) {
		return false
	}
	for _, f := range between {
		if p.PieceAt(Sq(row, f)) != NoPiece {
			return false
		}
	}
	if p.IsInCheck(c) {
		return false
	}

	king := p.PieceAt(from)
	step := sign(to.File - from.File)
	for f := from.File; f != to.File+step; f += step {
		sim := p.scratch()
		sim.SetPiece(from, NoPiece)
		sim.SetPiece(Sq(row, f), king)
		if sim.IsInCheck(c) {
			return false
		}
	}
	return true
}

// IsPathClear reports whether every square strictly between from and to is
// empty. The squares must share a rank, file or diagonal.
func (p *Position) IsPathClear(from, to Square) bool {
	dr, df := sign(to.Rank-from.Rank), sign(to.File-from.File)
	for sq := from.offset(dr, df); sq != to; sq = sq.offset(dr, df) {
		if !IsValid(sq) {
			return false
		}
		if p.PieceAt(sq) != NoPiece {
			return false
		}
	}
	return true
}

// CanAttackSquare reports whether the piece on from could move onto to by
// its movement rules. Castling never attacks.
func (p *Position) CanAttackSquare(from, to Square) bool {
	piece := p.PieceAt(from)
	if piece == NoPiece || from == to || !IsValid(to) {
		return false
	}
	return p.validMove(piece, from, to)
}

// IsInCheck reports whether color's king is attacked. A side without a king
// is never in check.
func (p *Position) IsInCheck(c Color) bool {
	king, ok := p.FindKing(c)
	if !ok {
		return false
	}
	return p.isAttacked(king, c.Opponent())
}

func (p *Position) isAttacked(sq Square, by Color) bool {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			piece := p.board[r][f]
			if piece == NoPiece || piece.Color() != by {
				continue
			}
			if p.CanAttackSquare(Sq(r, f), sq) {
				return true
			}
		}
	}
	return false
}

// CheckMove validates a move for the piece on from without regard to turn or
// game status, returning the first rule it breaks. The live position is not
// modified.
func (p *Position) CheckMove(from, to Square, promotion PieceType) error {
	if !IsValid(from) || !IsValid(to) {
		return ErrInvalidPosition
	}
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return ErrNoPieceAtSource
	}
	if target := p.PieceAt(to); target != NoPiece && target.Color() == piece.Color() && from != to {
		return ErrSelfCapture
	}
	if !p.IsValidPieceMove(piece, from, to) {
		return ErrInvalidPieceMove
	}
	pl, err := p.plan(piece, from, to, NewPiece(piece.Color(), promotion))
	if err != nil {
		return err
	}
	sim := p.scratch()
	sim.applyBoard(pl)
	if sim.IsInCheck(piece.Color()) {
		return ErrMoveLeavesKingInCheck
	}
	return nil
}

// IsMoveLegal reports whether CheckMove accepts the move.
func (p *Position) IsMoveLegal(from, to Square, promotion PieceType) bool {
	return p.CheckMove(from, to, promotion) == nil
}

// AnyLegalMove reports whether color has at least one legal move.
func (p *Position) AnyLegalMove(c Color) bool {
	found := false
	p.eachCandidate(c, func(from, to Square, promo PieceType) bool {
		if p.IsMoveLegal(from, to, promo) {
			found = true
			return false
		}
		return true
	})
	return found
}

// LegalMoves lists every legal move for color in board order. Promotions are
// expanded to queen, rook, bishop and knight.
func (p *Position) LegalMoves(c Color) []Move {
	var moves []Move
	p.eachCandidate(c, func(from, to Square, promo PieceType) bool {
		if !p.IsMoveLegal(from, to, promo) {
			return true
		}
		piece := p.PieceAt(from)
		if promo == NoPieceType {
			moves = append(moves, Move{From: from, To: to, Piece: piece})
			return true
		}
		for _, t := range []PieceType{Queen, Rook, Bishop, Knight} {
			moves = append(moves, Move{From: from, To: to, Promotion: t, Piece: piece})
		}
		return true
	})
	return moves
}

// eachCandidate calls fn for every (from, to) pair of color's pieces until fn
// returns false. Pawn moves onto the promotion rank carry a queen.
func (p *Position) eachCandidate(c Color, fn func(from, to Square, promo PieceType) bool) {
	for fr := 0; fr < 8; fr++ {
		for ff := 0; ff < 8; ff++ {
			piece := p.board[fr][ff]
			if piece == NoPiece || piece.Color() != c {
				continue
			}
			for tr := 0; tr < 8; tr++ {
				for tf := 0; tf < 8; tf++ {
					promo := NoPieceType
					if piece.Type() == Pawn && tr == c.promotionRank() {
						promo = Queen
					}
					if !fn(Sq(fr, ff), Sq(tr, tf), promo) {
						return
					}
				}
			}
		}
	}
}

package chess

import (
	"testing"

	"chessgame/internal/testutil"
)

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	p, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q) failed: %v", fen, err)
	}
	return p
}

func mustPlay(t *testing.T, p *Position, moves ...string) {
	t.Helper()
	for _, m := range moves {
		if _, err := p.PlayUCI(m); err != nil {
			t.Fatalf("PlayUCI(%q) failed: %v\n%s", m, err, p.ASCII())
		}
	}
}

func TestNewPosition(t *testing.T) {
	p := NewPosition()

	counts := map[PieceType]int{}
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if pc := p.PieceAt(Sq(r, f)); pc != NoPiece {
				counts[pc.Type()]++
			}
		}
	}
	testutil.AssertEqual(t, counts, map[PieceType]int{
		Pawn: 16, Rook: 4, Knight: 4, Bishop: 4, Queen: 2, King: 2,
	})
	testutil.AssertEqual(t, p.State(), PlayingState(White))
	testutil.AssertEqual(t, p.Castling(), CastlingFlags{})
	_, hasEP := p.EnPassant()
	testutil.AssertFalse(t, hasEP, "en passant target")
	testutil.AssertEqual(t, p.HalfmoveClock(), 0)
	testutil.AssertEqual(t, p.FEN(), StartingFEN)

	testutil.AssertEqual(t, p.PieceAt(Sq(7, 4)), WhiteKing)
	testutil.AssertEqual(t, p.PieceAt(Sq(0, 3)), BlackQueen)
	testutil.AssertEqual(t, p.PieceAt(Sq(6, 0)), WhitePawn)
}

func TestSetPieceOutOfBounds(t *testing.T) {
	p := NewPosition()
	before := p.FEN()

	for _, sq := range []Square{{-1, 0}, {0, -1}, {8, 3}, {3, 8}} {
		p.SetPiece(sq, WhiteQueen)
		testutil.AssertEqual(t, p.PieceAt(sq), NoPiece, "PieceAt(%v)", sq)
	}
	testutil.AssertEqual(t, p.FEN(), before)

	p.SetPiece(Sq(4, 4), WhiteQueen)
	testutil.AssertEqual(t, p.PieceAt(Sq(4, 4)), WhiteQueen)
	p.SetPiece(Sq(4, 4), NoPiece)
	testutil.AssertEqual(t, p.PieceAt(Sq(4, 4)), NoPiece)
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewPosition()
	mustPlay(t, p, "e2e4")

	c := p.Clone()
	mustPlay(t, c, "e7e5", "g1f3")

	testutil.AssertEqual(t, len(p.Moves()), 1)
	testutil.AssertEqual(t, len(c.Moves()), 3)
	testutil.AssertEqual(t, p.PieceAt(Sq(1, 4)), BlackPawn)
	testutil.AssertEqual(t, p.State(), PlayingState(Black))

	for h, n := range c.history {
		if p.history[h] > n {
			t.Errorf("clone history count %d below original %d", n, p.history[h])
		}
	}
	testutil.AssertTrue(t, len(c.history) > len(p.history), "clone history grew separately")
}

func TestSquareParsing(t *testing.T) {
	tests := []struct {
		in   string
		want Square
	}{
		{"a8", Sq(0, 0)},
		{"h1", Sq(7, 7)},
		{"e4", Sq(4, 4)},
		{"d6", Sq(2, 3)},
	}
	for _, tt := range tests {
		got, err := ParseSquare(tt.in)
		testutil.RequireNoError(t, err, tt.in)
		testutil.AssertEqual(t, got, tt.want, tt.in)
		testutil.AssertEqual(t, got.String(), tt.in)
	}

	for _, bad := range []string{"", "e", "i1", "a0", "a9", "e44"} {
		_, err := ParseSquare(bad)
		testutil.AssertErrorIs(t, err, ErrInvalidNotation, bad)
	}
}

func TestPieceIdentity(t *testing.T) {
	for _, c := range []Color{White, Black} {
		for _, pt := range []PieceType{Pawn, Knight, Bishop, Rook, Queen, King} {
			pc := NewPiece(c, pt)
			testutil.AssertEqual(t, pc.Color(), c)
			testutil.AssertEqual(t, pc.Type(), pt)
			testutil.AssertEqual(t, PieceFromRune(pc.Rune()), pc)
		}
	}
	testutil.AssertEqual(t, NewPiece(White, NoPieceType), NoPiece)

	scores := map[PieceType]int{Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 0}
	for pt, want := range scores {
		testutil.AssertEqual(t, NewPiece(Black, pt).Score(), want, pt.String())
	}
}

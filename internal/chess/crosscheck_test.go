package chess_test

import (
	"slices"
	"testing"

	cchess "github.com/corentings/chess/v2"

	"chessgame/internal/chess"
	"chessgame/internal/testutil"
)

// Positions with castling, en passant, promotions and pins.
var crossCheckFENs = []string{
	chess.StartingFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	"8/8/8/KPp4r/8/8/8/7k w - c6 0 2",
	"4k3/8/8/8/8/8/4r3/R3K2R w KQ - 0 1",
	"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1",
}

func TestLegalMovesMatchReference(t *testing.T) {
	for _, fen := range crossCheckFENs {
		t.Run(fen, func(t *testing.T) {
			p, err := chess.ParseFEN(fen)
			testutil.RequireNoError(t, err)

			var got []string
			for _, m := range p.LegalMoves(p.Turn()) {
				got = append(got, m.UCI())
			}
			slices.Sort(got)

			opt, err := cchess.FEN(fen)
			testutil.RequireNoError(t, err)
			g := cchess.NewGame(opt)
			var want []string
			for _, m := range g.ValidMoves() {
				want = append(want, cchess.UCINotation{}.Encode(g.Position(), &m))
			}
			slices.Sort(want)

			testutil.AssertEqual(t, got, want)
		})
	}
}

func TestPerftMatchesReference(t *testing.T) {
	const fen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	p, err := chess.ParseFEN(fen)
	testutil.RequireNoError(t, err)

	// 2039 nodes at depth 2 from this position.
	testutil.AssertEqual(t, perft(t, p, 2), 2039)
}

func perft(t *testing.T, p *chess.Position, depth int) int {
	t.Helper()
	moves := p.LegalMoves(p.Turn())
	if depth == 1 {
		return len(moves)
	}
	n := 0
	for _, m := range moves {
		next := p.Clone()
		if _, err := next.Play(m.From, m.To, m.Promotion); err != nil {
			t.Fatalf("Play(%s): %v", m, err)
		}
		n += perft(t, next, depth-1)
	}
	return n
}

package game

import (
	"testing"

	"chessgame/internal/chess"
	"chessgame/internal/core"
	"chessgame/internal/testutil"
)

func newTestGame(t *testing.T, fen string) *Game {
	t.Helper()
	white := core.NewPlayer(core.PlayerConfig{Type: core.PlayerHuman}, chess.White)
	black := core.NewPlayer(core.PlayerConfig{Type: core.PlayerComputer, Level: 5}, chess.Black)
	g, err := New(fen, white, black)
	testutil.RequireNoError(t, err)
	return g
}

func play(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, m := range moves {
		if _, err := g.Play(m); err != nil {
			t.Fatalf("Play(%s): %v", m, err)
		}
	}
}

func TestNewGame(t *testing.T) {
	g := newTestGame(t, "")
	testutil.AssertEqual(t, g.InitialFEN(), chess.StartingFEN)
	testutil.AssertEqual(t, g.CurrentFEN(), chess.StartingFEN)
	testutil.AssertEqual(t, g.NextTurn(), chess.White)
	testutil.AssertEqual(t, g.State(), core.StateOngoing)
	testutil.AssertEqual(t, g.Moves(), []string{})
	testutil.AssertEqual(t, g.NextPlayer().Type, core.PlayerHuman)
	testutil.AssertEqual(t, len(g.LegalMoves()), 20)
	testutil.AssertTrue(t, g.LastResult() == nil)
}

func TestNewGameCanonicalizesFEN(t *testing.T) {
	// castling rights without the rooks in place are dropped
	g := newTestGame(t, "4k3/8/8/8/8/8/8/4K3 w KQ - 0 1")
	testutil.AssertEqual(t, g.InitialFEN(), "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
}

func TestNewGameInvalidFEN(t *testing.T) {
	_, err := New("not a fen", nil, nil)
	testutil.AssertErrorIs(t, err, chess.ErrInvalidFEN)
}

func TestPlay(t *testing.T) {
	g := newTestGame(t, "")
	res, err := g.Play("e2e4")
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, *res, MoveResult{Move: "e2e4", PlayerColor: chess.White, GameState: core.StateOngoing})
	testutil.AssertEqual(t, g.NextTurn(), chess.Black)
	testutil.AssertEqual(t, g.NextPlayer().Type, core.PlayerComputer)
	testutil.AssertTrue(t, g.LastResult() == res)

	play(t, g, "d7d5")
	res, err = g.Play("e4d5")
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, res.Captured, chess.BlackPawn)
	testutil.AssertEqual(t, g.Captures(chess.White), []string{"p"})
	testutil.AssertEqual(t, g.Score(chess.White), 1)
	testutil.AssertEqual(t, g.Captures(chess.Black), []string{})
}

func TestPlayRejectsIllegalMoves(t *testing.T) {
	g := newTestGame(t, "")
	tests := []struct {
		move string
		want error
	}{
		{"e2e5", chess.ErrInvalidPieceMove},
		{"e7e5", chess.ErrWrongTurn},
		{"e3e4", chess.ErrNoPieceAtSource},
		{"e2e4k", chess.ErrInvalidNotation},
	}
	for _, tt := range tests {
		_, err := g.Play(tt.move)
		testutil.AssertErrorIs(t, err, tt.want, tt.move)
	}
	testutil.AssertEqual(t, g.CurrentFEN(), chess.StartingFEN)
	testutil.AssertTrue(t, g.LastResult() == nil)
}

func TestUndoMoves(t *testing.T) {
	g := newTestGame(t, "")
	play(t, g, "e2e4")
	afterFirst := g.CurrentFEN()
	play(t, g, "e7e5", "g1f3")

	testutil.RequireNoError(t, g.UndoMoves(2))
	testutil.AssertEqual(t, g.CurrentFEN(), afterFirst)
	testutil.AssertEqual(t, g.Moves(), []string{"e2e4"})
	testutil.AssertTrue(t, g.LastResult() == nil)

	testutil.AssertErrorIs(t, g.UndoMoves(0), ErrUndoCount, "zero count")
	err := g.UndoMoves(2)
	testutil.AssertErrorIs(t, err, ErrUndoCount)
	testutil.AssertContains(t, err.Error(), "only 1 available")

	testutil.RequireNoError(t, g.UndoMoves(1))
	testutil.AssertEqual(t, g.CurrentFEN(), chess.StartingFEN)
}

func TestUndoFromCustomPosition(t *testing.T) {
	const fen = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	g := newTestGame(t, fen)
	play(t, g, "e1g1", "e8c8")
	testutil.RequireNoError(t, g.UndoMoves(2))
	testutil.AssertEqual(t, g.CurrentFEN(), fen)
}

func TestUndoRestoresRepetitionHistory(t *testing.T) {
	g := newTestGame(t, "")
	cycle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	play(t, g, cycle...)
	play(t, g, cycle...)
	play(t, g, "g1f3")
	testutil.AssertEqual(t, g.State(), core.StateDraw)

	testutil.RequireNoError(t, g.UndoMoves(1))
	testutil.AssertEqual(t, g.State(), core.StateOngoing)
	play(t, g, "g1f3")
	testutil.AssertEqual(t, g.State(), core.StateDraw)
}

func TestGameOver(t *testing.T) {
	g := newTestGame(t, "")
	play(t, g, "f2f3", "e7e5", "g2g4")
	res, err := g.Play("d8h4")
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, res.GameState, core.StateBlackWins)
	testutil.AssertEqual(t, g.State(), core.StateBlackWins)
	testutil.AssertTrue(t, g.InCheck())
	testutil.AssertEqual(t, g.LegalMoves(), []string{})

	_, err = g.Play("a2a3")
	testutil.AssertErrorIs(t, err, chess.ErrGameNotPlaying)

	testutil.RequireNoError(t, g.UndoMoves(1))
	testutil.AssertEqual(t, g.State(), core.StateOngoing)
}

func TestPendingOverlay(t *testing.T) {
	g := newTestGame(t, "")
	g.SetPending(true)
	testutil.AssertEqual(t, g.State(), core.StatePending)
	testutil.AssertEqual(t, g.ChessState(), chess.PlayingState(chess.White))
	g.SetPending(false)
	testutil.AssertEqual(t, g.State(), core.StateOngoing)

	play(t, g, "e2e4")
	g.SetPending(true)
	testutil.RequireNoError(t, g.UndoMoves(1))
	testutil.AssertEqual(t, g.State(), core.StateOngoing)
}

func TestUpdatePlayers(t *testing.T) {
	g := newTestGame(t, "")
	w := core.NewPlayer(core.PlayerConfig{Type: core.PlayerComputer, Level: 3, SearchTime: 200}, chess.White)
	b := core.NewPlayer(core.PlayerConfig{Type: core.PlayerHuman}, chess.Black)
	g.UpdatePlayers(w, b)
	testutil.AssertTrue(t, g.GetPlayer(chess.White) == w)
	testutil.AssertTrue(t, g.NextPlayer().IsComputer())
}

func TestPositionIsCopy(t *testing.T) {
	g := newTestGame(t, "")
	p := g.Position()
	_, err := p.PlayUCI("e2e4")
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, g.CurrentFEN(), chess.StartingFEN)
}

package game

import (
	"fmt"
	"log"
	"strings"

	cchess "github.com/corentings/chess/v2"

	"chessgame/internal/chess"
	"chessgame/internal/core"
)

// PGN exports the game with standard tag pairs. Moves are converted from
// coordinate notation to SAN by replaying them on a corentings game.
func (g *Game) PGN() (string, error) {
	opt, err := cchess.FEN(g.initialFEN)
	if err != nil {
		return "", fmt.Errorf("loading initial FEN: %w", err)
	}
	cg := cchess.NewGame(opt)

	var lastSAN string
	for i, uci := range g.Moves() {
		pos := cg.Position()
		m, err := cchess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			return "", fmt.Errorf("decoding move %d (%s): %w", i+1, uci, err)
		}
		san := cchess.AlgebraicNotation{}.Encode(pos, m)
		lastSAN = san
		if err := cg.PushMove(san, &cchess.PushMoveOptions{ForceMainline: true}); err != nil {
			return "", fmt.Errorf("replaying move %d (%s): %w", i+1, san, err)
		}
	}

	state := g.ChessState()
	if state.Kind == chess.Draw && cg.Outcome() == cchess.NoOutcome {
		method := cchess.DrawOffer
		switch state.Reason {
		case chess.ThreefoldRepetition:
			method = cchess.ThreefoldRepetition
		case chess.FiftyMoveRule:
			method = cchess.FiftyMoveRule
		}
		if err := cg.Draw(method); err != nil {
			log.Printf("PGN export: draw method %v rejected, recording a draw offer: %v", method, err)
			if err := cg.Draw(cchess.DrawOffer); err != nil {
				return "", fmt.Errorf("recording draw: %w", err)
			}
		}
	}

	cg.AddTagPair("Event", "Casual game")
	cg.AddTagPair("Site", "chessgame")
	cg.AddTagPair("Date", g.startTime.Format("2006.01.02"))
	cg.AddTagPair("Round", "-")
	cg.AddTagPair("White", playerTag(g.GetPlayer(chess.White)))
	cg.AddTagPair("Black", playerTag(g.GetPlayer(chess.Black)))
	cg.AddTagPair("Result", core.StateFromChess(state).Result())
	if g.initialFEN != chess.StartingFEN {
		cg.AddTagPair("SetUp", "1")
		cg.AddTagPair("FEN", g.initialFEN)
	}
	if state.IsOver() {
		cg.AddTagPair("Termination", state.String())
	}

	return markMate(cg.String(), lastSAN, state.Kind == chess.Checkmate), nil
}

// markMate rewrites the final move's check suffix as "#". The SAN encoder
// only emits "+" for checks, mating ones included.
func markMate(pgn, lastSAN string, mate bool) string {
	if !mate || !strings.HasSuffix(lastSAN, "+") {
		return pgn
	}
	i := strings.LastIndex(pgn, lastSAN)
	if i < 0 {
		return pgn
	}
	return pgn[:i] + strings.TrimSuffix(lastSAN, "+") + "#" + pgn[i+len(lastSAN):]
}

func playerTag(p *core.Player) string {
	if p == nil {
		return "?"
	}
	if p.Type == core.PlayerComputer {
		return fmt.Sprintf("Computer (level %d)", p.Level)
	}
	return "Human " + p.ID[:min(8, len(p.ID))]
}

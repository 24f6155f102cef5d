package core

import "chessgame/internal/chess"

// State is the session-level view of a game.
type State int

const (
	StateOngoing State = iota
	StatePending       // computer is calculating a move
	StateWhiteWins
	StateBlackWins
	StateDraw
	StateStalemate
)

func (s State) String() string {
	switch s {
	case StateOngoing:
		return "ongoing"
	case StatePending:
		return "pending"
	case StateWhiteWins:
		return "white wins"
	case StateBlackWins:
		return "black wins"
	case StateDraw:
		return "draw"
	case StateStalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// IsOver reports whether no further moves can be made.
func (s State) IsOver() bool {
	return s >= StateWhiteWins
}

// Result is the PGN result token.
func (s State) Result() string {
	switch s {
	case StateWhiteWins:
		return "1-0"
	case StateBlackWins:
		return "0-1"
	case StateDraw, StateStalemate:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// StateFromChess maps a rules-engine state onto a session state.
func StateFromChess(s chess.State) State {
	switch s.Kind {
	case chess.Checkmate:
		if s.Color == chess.White {
			return StateWhiteWins
		}
		return StateBlackWins
	case chess.Stalemate:
		return StateStalemate
	case chess.Draw:
		return StateDraw
	default:
		return StateOngoing
	}
}

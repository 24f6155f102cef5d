package chess

// StateKind enumerates the game states.
type StateKind uint8

const (
	Playing StateKind = iota
	Checkmate
	Stalemate
	Draw
)

func (k StateKind) String() string {
	switch k {
	case Playing:
		return "playing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// DrawReason explains a Draw state.
type DrawReason uint8

const (
	NoDraw DrawReason = iota
	InsufficientMaterial
	ThreefoldRepetition
	FiftyMoveRule
)

func (r DrawReason) String() string {
	switch r {
	case InsufficientMaterial:
		return "insufficient material"
	case ThreefoldRepetition:
		return "threefold repetition"
	case FiftyMoveRule:
		return "fifty-move rule"
	default:
		return "none"
	}
}

// State is the game status. Color holds the side to move while Playing and
// the winner on Checkmate; it is unused otherwise.
type State struct {
	Kind   StateKind
	Color  Color
	Reason DrawReason
}

func PlayingState(turn Color) State {
	return State{Kind: Playing, Color: turn}
}

func CheckmateState(winner Color) State {
	return State{Kind: Checkmate, Color: winner}
}

func StalemateState() State {
	return State{Kind: Stalemate}
}

func DrawState(reason DrawReason) State {
	return State{Kind: Draw, Reason: reason}
}

// Turn returns the side to move, ok is false once the game has ended.
func (s State) Turn() (Color, bool) {
	if s.Kind != Playing {
		return White, false
	}
	return s.Color, true
}

// Winner returns the winning side of a checkmate.
func (s State) Winner() (Color, bool) {
	if s.Kind != Checkmate {
		return White, false
	}
	return s.Color, true
}

// IsOver reports whether the state is terminal.
func (s State) IsOver() bool {
	return s.Kind != Playing
}

func (s State) String() string {
	switch s.Kind {
	case Playing:
		return s.Color.Name() + " to move"
	case Checkmate:
		return "checkmate, " + s.Color.Name() + " wins"
	case Draw:
		if s.Reason != NoDraw {
			return "draw by " + s.Reason.String()
		}
		return "draw"
	default:
		return s.Kind.String()
	}
}

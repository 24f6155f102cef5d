package cli

import "strings"

type CommandType int

const (
	CmdNone CommandType = iota // empty line; plays the computer's move
	CmdNew
	CmdResume
	CmdMove
	CmdUndo
	CmdLegal
	CmdHistory
	CmdPGN
	CmdColor
	CmdVerbose
	CmdHelp
	CmdQuit
)

type Command struct {
	Type CommandType
	Args []string
}

// ParseCommand maps one input line to a command. Anything that is not a
// keyword is treated as a move.
func ParseCommand(input string) Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return Command{Type: CmdNone}
	}

	args := parts[1:]
	switch strings.ToLower(parts[0]) {
	case "new":
		return Command{Type: CmdNew, Args: args}
	case "resume":
		return Command{Type: CmdResume, Args: args}
	case "undo":
		return Command{Type: CmdUndo, Args: args}
	case "legal", "moves":
		return Command{Type: CmdLegal}
	case "history":
		return Command{Type: CmdHistory}
	case "pgn":
		return Command{Type: CmdPGN}
	case "color":
		return Command{Type: CmdColor, Args: args}
	case "verbose":
		return Command{Type: CmdVerbose}
	case "help", "?":
		return Command{Type: CmdHelp}
	case "quit", "exit":
		return Command{Type: CmdQuit}
	default:
		return Command{Type: CmdMove, Args: []string{strings.ToLower(parts[0])}}
	}
}

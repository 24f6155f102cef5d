// Package commands implements the interactive API client's command set.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"chessgame/internal/client/api"
	"chessgame/internal/client/display"
	"chessgame/internal/core"
)

// Session is the client state shared by all commands.
type Session struct {
	Client *api.Client
	Out    io.Writer
	// ReadPassword prompts for a secret without echo.
	ReadPassword func(prompt string) (string, error)

	GameID   string
	UserID   string
	Username string
	Game     *core.GameResponse
	Verbose  bool
}

func (s *Session) printf(color, format string, args ...any) {
	fmt.Fprint(s.Out, display.Colorize(color, fmt.Sprintf(format, args...)))
}

// setGame records the latest known state of the current game.
func (s *Session) setGame(g *core.GameResponse) {
	s.GameID = g.GameID
	s.Game = g
}

func (s *Session) moveCount() int {
	if s.Game == nil {
		return 0
	}
	return len(s.Game.Moves)
}

func (s *Session) requireGame() (string, error) {
	if s.GameID == "" {
		return "", fmt.Errorf("no current game, use 'new' or 'join <gameId>'")
	}
	return s.GameID, nil
}

// Prompt shows the server, the user and the side to move.
func (s *Session) Prompt() string {
	var sb strings.Builder
	sb.WriteString(display.Cyan + "chess" + display.Reset)
	if s.Username != "" {
		sb.WriteString("(" + display.Green + s.Username + display.Reset + ")")
	}
	if s.Game != nil && s.GameID != "" {
		sb.WriteString(" [" + display.ColorForTurn(s.Game.Turn) + "]")
	}
	sb.WriteString(display.Yellow + " > " + display.Reset)
	return sb.String()
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Group       string
	Handler     func(ctx context.Context, s *Session, args []string) error
}

type Registry struct {
	session  *Session
	commands map[string]*Command
	order    []*Command
	exit     bool
}

// NewRegistry builds the command set bound to session.
func NewRegistry(session *Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerAuthCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Group:       "Utility",
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Group:       "Utility",
		Handler:     r.exitHandler,
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
	r.order = append(r.order, cmd)
}

// Lookup finds a command by name or short name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Execute runs one input line and reports whether the client should exit.
// A trailing -v argument enables request tracing for that command.
func (r *Registry) Execute(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	name, args := parts[0], parts[1:]
	cmd, ok := r.commands[name]
	if !ok {
		r.session.printf(display.Red, "Unknown command: %s\n", name)
		fmt.Fprintln(r.session.Out, "Type 'help' for available commands")
		return false
	}

	verbose := r.session.Verbose
	if n := len(args); n > 0 && args[n-1] == "-v" {
		verbose = true
		args = args[:n-1]
	}
	if verbose {
		r.session.Client.Trace = r.session.Out
	} else {
		r.session.Client.Trace = nil
	}

	if err := cmd.Handler(ctx, r.session, args); err != nil {
		r.session.printf(display.Red, "Error: %s\n", err)
	}
	return r.exit
}

func (r *Registry) helpHandler(_ context.Context, s *Session, args []string) error {
	if len(args) > 0 {
		cmd, ok := r.commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(s.Out, "\n%s - %s\n", display.Colorize(display.Cyan, cmd.Name), cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(s.Out, "Short form: %s\n", display.Colorize(display.Cyan, cmd.ShortName))
		}
		fmt.Fprintf(s.Out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	groups := make(map[string][]*Command)
	var names []string
	for _, cmd := range r.order {
		if _, seen := groups[cmd.Group]; !seen {
			names = append(names, cmd.Group)
		}
		groups[cmd.Group] = append(groups[cmd.Group], cmd)
	}
	s.printf(display.Cyan, "\nAvailable Commands:\n")
	for _, group := range names {
		s.printf(display.Yellow, "\n%s Commands:\n", group)
		for _, cmd := range groups[group] {
			short := "   "
			if cmd.ShortName != "" {
				short = "[" + display.Colorize(display.Cyan, cmd.ShortName) + "]"
			}
			fmt.Fprintf(s.Out, "  %s %-10s %s\n", short, cmd.Name, cmd.Description)
		}
	}

	fmt.Fprintln(s.Out, "\nType 'help <command>' for detailed usage")
	fmt.Fprintln(s.Out, "Add '-v' to any command for verbose output")
	return nil
}

func (r *Registry) exitHandler(_ context.Context, s *Session, _ []string) error {
	s.printf(display.Cyan, "Goodbye!\n")
	r.exit = true
	return nil
}

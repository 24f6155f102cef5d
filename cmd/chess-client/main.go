// Package main implements an interactive client for the chess server API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"chessgame/internal/client/api"
	"chessgame/internal/client/commands"
	"chessgame/internal/client/display"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "Chess server base URL")
	verbose := flag.Bool("v", false, "Trace every request")
	flag.Parse()

	historyFile := ""
	if dir, err := os.UserCacheDir(); err == nil {
		historyFile = filepath.Join(dir, "chess_client_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, display.Colorize(display.Red, err.Error()))
		os.Exit(1)
	}
	defer rl.Close()

	s := &commands.Session{
		Client:       api.New(*apiURL),
		Out:          os.Stdout,
		ReadPassword: readPassword,
		Verbose:      *verbose,
	}
	registry := commands.NewRegistry(s)

	fmt.Fprintln(s.Out, display.Colorize(display.Cyan, "Chess API Client"))
	fmt.Fprintln(s.Out, display.Colorize(display.Cyan, "API: "+s.Client.BaseURL))
	fmt.Fprint(s.Out, "Type 'help' for commands\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	for {
		rl.SetPrompt(s.Prompt())

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return
			}
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "quit" || registry.Execute(ctx, line) {
			return
		}
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

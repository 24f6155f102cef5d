// Package main runs an interactive terminal chess game against a local
// rules engine, with an optional UCI engine for computer players.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chessgame/internal/cli"
	"chessgame/internal/engine"
	"chessgame/internal/processor"
	"chessgame/internal/service"

	"github.com/chzyer/readline"
)

func main() {
	enginePath := flag.String("engine", engine.DefaultPath, "Path to a UCI engine for computer players")
	theme := flag.String("color", string(cli.ThemeOff), "Board color theme: off, brown, green, gray")
	historyFile := flag.String("history", defaultHistoryFile(), "Command history file, empty to disable")
	flag.Parse()

	view := cli.NewView(os.Stdout)
	if err := view.SetTheme(cli.ColorTheme(*theme)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     *historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// local play needs neither storage nor tokens
	svc := service.New(nil, nil)
	proc := processor.New(svc, processor.Config{EnginePath: *enginePath, Workers: 1})
	defer func() {
		proc.Close()
		svc.Shutdown(time.Second)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	view.ShowWelcome()
	if !proc.EngineAvailable() {
		view.ShowMessage(fmt.Sprintf("Engine %q not available: computer players are disabled.\n", *enginePath))
	}

	session := cli.NewSession(proc, svc, view, rl)
	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func defaultHistoryFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chess_history")
}

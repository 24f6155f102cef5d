// Package engine drives an external UCI chess engine over its stdin/stdout.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"chessgame/internal/chess"
)

const (
	DefaultPath = "stockfish"

	handshakeTimeout = 5 * time.Second
	quitTimeout      = time.Second
)

var ErrEngineClosed = errors.New("engine closed unexpectedly")

type UCI struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	mu    sync.Mutex
	name  string
}

type SearchResult struct {
	// BestMove is empty when the engine had no move to offer.
	BestMove string
	Ponder   string
	Score    int
	Depth    int
	IsMate   bool
	MateIn   int
}

// New starts the engine process and completes the UCI handshake.
func New(path string, args ...string) (*UCI, error) {
	if path == "" {
		path = DefaultPath
	}
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	u := &UCI{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
	}
	go u.readLoop(stdout)

	if err := u.initialize(); err != nil {
		u.Close()
		return nil, err
	}
	return u, nil
}

// readLoop is the only reader of the engine's stdout. The channel closes
// when the process exits.
func (u *UCI) readLoop(r io.Reader) {
	defer close(u.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		u.lines <- sc.Text()
	}
}

// Name is the engine's self-reported "id name", if any.
func (u *UCI) Name() string {
	return u.name
}

func (u *UCI) initialize() error {
	u.sendCommand("uci")

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()
	err := u.readUntil(ctx, func(line string) bool {
		if name, ok := strings.CutPrefix(line, "id name "); ok {
			u.name = name
		}
		return line == "uciok"
	})
	if err != nil {
		return fmt.Errorf("waiting for uciok: %w", err)
	}

	u.sendCommand("setoption name Ponder value false")
	return u.isReady()
}

func (u *UCI) isReady() error {
	u.sendCommand("isready")
	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()
	if err := u.readUntil(ctx, func(line string) bool { return line == "readyok" }); err != nil {
		return fmt.Errorf("waiting for readyok: %w", err)
	}
	return nil
}

// readUntil consumes output lines until done reports true.
func (u *UCI) readUntil(ctx context.Context, done func(line string) bool) error {
	for {
		select {
		case line, ok := <-u.lines:
			if !ok {
				return ErrEngineClosed
			}
			if done(line) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (u *UCI) sendCommand(cmd string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.stdin, cmd)
}

// SetSkillLevel sets the Stockfish skill level, clamped to 0-20.
func (u *UCI) SetSkillLevel(level int) {
	level = max(0, min(level, 20))
	u.sendCommand(fmt.Sprintf("setoption name Skill Level value %d", level))
}

func (u *UCI) NewGame() error {
	u.sendCommand("ucinewgame")
	return u.isReady()
}

// PositionCommand builds the "position" line for a start FEN and the moves
// played since, in coordinate notation.
func PositionCommand(fen string, moves []string) string {
	cmd := "position startpos"
	if fen != "" && fen != chess.StartingFEN {
		cmd = "position fen " + fen
	}
	if len(moves) > 0 {
		cmd += " moves " + strings.Join(moves, " ")
	}
	return cmd
}

func (u *UCI) SetPosition(fen string, moves []string) {
	u.sendCommand(PositionCommand(fen, moves))
}

// Search runs "go movetime" and collects info lines until bestmove. A
// missing or "(none)" best move is not an error: BestMove is left empty.
// The search is abandoned at twice movetime plus a second even when ctx
// has no deadline.
func (u *UCI) Search(ctx context.Context, movetime time.Duration) (*SearchResult, error) {
	u.sendCommand(fmt.Sprintf("go movetime %d", movetime.Milliseconds()))

	ctx, cancel := context.WithTimeout(ctx, 2*movetime+time.Second)
	defer cancel()

	result := &SearchResult{}
	err := u.readUntil(ctx, func(line string) bool {
		if strings.HasPrefix(line, "info ") {
			parseInfo(line, result)
			return false
		}
		if !strings.HasPrefix(line, "bestmove") {
			return false
		}
		if move, ok := ParseBestMove(line); ok {
			result.BestMove = move
			if f := strings.Fields(line); len(f) >= 4 && f[2] == "ponder" {
				result.Ponder = f[3]
			}
		}
		return true
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			u.sendCommand("stop")
			return nil, fmt.Errorf("waiting for bestmove: %w", err)
		}
		return nil, err
	}
	return result, nil
}

func parseInfo(line string, result *SearchResult) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields)-1; i++ {
		switch fields[i] {
		case "depth":
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				result.Depth = n
			}
		case "cp":
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				result.Score = n
				result.IsMate = false
			}
		case "mate":
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				result.MateIn = n
				result.IsMate = true
				if n > 0 {
					result.Score = 100000 - n
				} else {
					result.Score = -100000 - n
				}
			}
		}
	}
}

// ParseBestMove extracts the move from a "bestmove <move> [ponder <move>]"
// line. ok is false for any other line and for "(none)".
func ParseBestMove(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return "", false
	}
	if fields[1] == "(none)" || fields[1] == "0000" {
		return "", false
	}
	return fields[1], true
}

// Close asks the engine to quit and kills it if it does not exit in time.
func (u *UCI) Close() error {
	u.sendCommand("quit")
	u.stdin.Close()

	done := make(chan error, 1)
	go func() {
		// drain so the reader goroutine can finish
		for range u.lines {
		}
		done <- u.cmd.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(quitTimeout):
		return u.cmd.Process.Kill()
	}
}

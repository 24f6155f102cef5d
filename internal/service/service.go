// Package service owns the in-memory game registry, user accounts and the
// long-poll wait registry, with optional persistence through storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chessgame/internal/core"
	"chessgame/internal/game"
	"chessgame/internal/storage"
)

const (
	MaxGames           = 1000
	TokenTTL           = 7 * 24 * time.Hour
	CleanupJobInterval = 10 * time.Minute
	FinishedGameTTL    = time.Hour
	IdleGameTTL        = 24 * time.Hour
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameExists         = errors.New("game already exists")
	ErrTooManyGames       = errors.New("game limit reached")
	ErrGamePending        = errors.New("computer move in progress")
	ErrGameOver           = errors.New("game is over")
	ErrNotHumanTurn       = errors.New("not a human player's turn")
	ErrNotComputerTurn    = errors.New("not a computer player's turn")
	ErrNotYourTurn        = errors.New("side to move belongs to another user")
	ErrNotGameOwner       = errors.New("game belongs to another user")
	ErrStorageDisabled    = errors.New("storage disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type entry struct {
	game    *game.Game
	updated time.Time
}

// Service coordinates game state, users and storage. All game mutation
// happens under mu.
type Service struct {
	games     map[string]*entry
	mu        sync.RWMutex
	store     *storage.Store // nil when persistence is disabled
	jwtSecret []byte
	waiter    *WaitRegistry
}

// New creates a service; store may be nil.
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*entry),
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(),
	}
}

// GetStorageHealth reports "disabled", "ok" or "degraded".
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait registers a long-poll client; see WaitRegistry.RegisterWait.
func (s *Service) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, gameID, moveCount)
}

// GameCount is the number of games held in memory.
func (s *Service) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Shutdown releases waiters, drops in-memory games and closes storage.
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	s.waiter.Shutdown()

	s.mu.Lock()
	s.games = make(map[string]*entry)
	s.mu.Unlock()

	if s.store != nil {
		closed := make(chan error, 1)
		go func() { closed <- s.store.Close() }()
		select {
		case err := <-closed:
			if err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		case <-time.After(timeout):
			errs = append(errs, errors.New("storage: close timed out"))
		}
	}

	return errors.Join(errs...)
}

// RunCleanupJob periodically evicts stale games from memory. Persisted
// records are kept.
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.evictStale(now); n > 0 {
				log.Printf("cleanup: evicted %d stale games", n)
			}
		}
	}
}

// evictStale removes finished games idle for FinishedGameTTL and any
// non-pending game idle for IdleGameTTL.
func (s *Service) evictStale(now time.Time) int {
	s.mu.Lock()
	var evicted []string
	for id, e := range s.games {
		idle := now.Sub(e.updated)
		state := e.game.State()
		switch {
		case state.IsOver() && idle >= FinishedGameTTL,
			state == core.StateOngoing && idle >= IdleGameTTL:
			delete(s.games, id)
			evicted = append(evicted, id)
		}
	}
	s.mu.Unlock()

	for _, id := range evicted {
		s.waiter.RemoveGame(id)
	}
	return len(evicted)
}

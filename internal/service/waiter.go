package service

import (
	"context"
	"sync"
	"time"
)

// WaitTimeout is the longest a long-poll client is held before being
// answered with the unchanged state.
const WaitTimeout = 25 * time.Second

// WaitRegistry tracks long-poll clients per game. Every registered channel
// is closed exactly once: on a relevant change, on timeout, when the client
// goes away, when the game is removed or at shutdown.
type WaitRegistry struct {
	mu      sync.Mutex
	waiters map[string]map[*waiter]struct{}
	closed  bool
	timeout time.Duration
}

type waiter struct {
	moveCount int
	notify    chan struct{}
	once      sync.Once
	timer     *time.Timer
	stopCtx   func() bool
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters: make(map[string]map[*waiter]struct{}),
		timeout: WaitTimeout,
	}
}

// RegisterWait returns a channel that is closed once the game's move count
// differs from moveCount, its state changes, or the wait ends for any other
// reason.
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	wt := &waiter{
		moveCount: moveCount,
		notify:    make(chan struct{}),
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		close(wt.notify)
		return wt.notify
	}
	set := w.waiters[gameID]
	if set == nil {
		set = make(map[*waiter]struct{})
		w.waiters[gameID] = set
	}
	set[wt] = struct{}{}
	wt.timer = time.AfterFunc(w.timeout, func() { w.fire(gameID, wt) })
	wt.stopCtx = context.AfterFunc(ctx, func() { w.fire(gameID, wt) })
	w.mu.Unlock()

	return wt.notify
}

// NotifyGame wakes waiters whose last known move count differs from currentMoveCount.
func (w *WaitRegistry) NotifyGame(gameID string, currentMoveCount int) {
	for _, wt := range w.snapshot(gameID) {
		if wt.moveCount != currentMoveCount {
			w.fire(gameID, wt)
		}
	}
}

// NotifyStateChange wakes every waiter of the game regardless of move count.
func (w *WaitRegistry) NotifyStateChange(gameID string) {
	for _, wt := range w.snapshot(gameID) {
		w.fire(gameID, wt)
	}
}

// RemoveGame releases all waiters of a deleted game.
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.NotifyStateChange(gameID)
}

// Waiting is the number of clients currently waiting on a game.
func (w *WaitRegistry) Waiting(gameID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters[gameID])
}

// Shutdown releases every waiter and rejects later registrations.
func (w *WaitRegistry) Shutdown() {
	w.mu.Lock()
	w.closed = true
	all := w.waiters
	w.waiters = make(map[string]map[*waiter]struct{})
	w.mu.Unlock()

	for gameID, set := range all {
		for wt := range set {
			w.fire(gameID, wt)
		}
	}
}

func (w *WaitRegistry) snapshot(gameID string) []*waiter {
	w.mu.Lock()
	defer w.mu.Unlock()
	list := make([]*waiter, 0, len(w.waiters[gameID]))
	for wt := range w.waiters[gameID] {
		list = append(list, wt)
	}
	return list
}

func (w *WaitRegistry) fire(gameID string, wt *waiter) {
	wt.once.Do(func() {
		w.mu.Lock()
		if set := w.waiters[gameID]; set != nil {
			delete(set, wt)
			if len(set) == 0 {
				delete(w.waiters, gameID)
			}
		}
		w.mu.Unlock()

		wt.timer.Stop()
		wt.stopCtx()
		close(wt.notify)
	})
}

package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chessgame/internal/core"
	"chessgame/internal/engine"
)

const (
	queueSize = 100
	// resultGrace is added to the player's search time before a task is
	// considered lost.
	resultGrace = 5 * time.Second
)

var (
	ErrQueueFull        = errors.New("engine queue is full")
	ErrQueueClosed      = errors.New("engine queue is shutting down")
	ErrNoEngine         = errors.New("no engine available")
	ErrEngineNoMove     = errors.New("engine returned no move")
	ErrEngineTimeout    = errors.New("engine timeout")
	errWorkerEngineLost = errors.New("worker lost its engine")
)

// Searcher is the part of a UCI engine the queue drives.
type Searcher interface {
	SetSkillLevel(level int)
	SetPosition(fen string, moves []string)
	Search(ctx context.Context, movetime time.Duration) (*engine.SearchResult, error)
	Close() error
}

// EngineFactory starts one engine instance.
type EngineFactory func() (Searcher, error)

// UCIFactory starts the engine binary at path.
func UCIFactory(path string) EngineFactory {
	return func() (Searcher, error) {
		return engine.New(path)
	}
}

// EngineTask contains computer move calculation request and response channel
type EngineTask struct {
	GameID   string
	FEN      string
	Player   core.Player
	Response chan<- EngineResult
}

// EngineResult contains the outcome of an engine calculation
type EngineResult struct {
	GameID string
	Move   string
	Score  int
	Depth  int
	IsMate bool
	MateIn int
	Error  error
}

// EngineQueue runs engine searches on a fixed pool of workers, each with its
// own engine process.
type EngineQueue struct {
	tasks   chan EngineTask
	factory EngineFactory
	live    int
	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewEngineQueue starts up to workerCount engines. Workers whose engine fails
// to start are not run; a queue without workers rejects every task.
func NewEngineQueue(workerCount int, factory EngineFactory) *EngineQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &EngineQueue{
		tasks:   make(chan EngineTask, queueSize),
		factory: factory,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := range workerCount {
		eng, err := factory()
		if err != nil {
			log.Printf("Engine worker %d failed to start: %v", i, err)
			continue
		}
		q.live++
		q.wg.Add(1)
		go q.worker(i, eng)
	}
	return q
}

// Available reports whether at least one worker is running.
func (q *EngineQueue) Available() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.live > 0 && !q.closed
}

func (q *EngineQueue) worker(id int, eng Searcher) {
	defer q.wg.Done()
	defer func() {
		if eng != nil {
			eng.Close()
		}
		q.mu.Lock()
		q.live--
		q.mu.Unlock()
	}()

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			var result EngineResult
			if eng == nil {
				result = EngineResult{GameID: task.GameID, Error: errWorkerEngineLost}
			} else {
				result = q.processTask(eng, task)
			}
			task.Response <- result // buffered by SubmitAsync

			if result.Error != nil && !errors.Is(result.Error, ErrEngineNoMove) {
				eng = q.restart(id, eng)
			}

		case <-q.ctx.Done():
			return
		}
	}
}

// restart replaces an engine after a failed search. The worker keeps running
// without an engine if the replacement fails; its tasks then fail fast.
func (q *EngineQueue) restart(id int, eng Searcher) Searcher {
	if eng != nil {
		eng.Close()
	}
	if q.ctx.Err() != nil {
		return nil
	}
	fresh, err := q.factory()
	if err != nil {
		log.Printf("Engine worker %d failed to restart: %v", id, err)
		return nil
	}
	return fresh
}

func (q *EngineQueue) processTask(eng Searcher, task EngineTask) EngineResult {
	result := EngineResult{GameID: task.GameID}

	eng.SetSkillLevel(task.Player.Level)
	eng.SetPosition(task.FEN, nil)

	searchTime := searchDuration(task.Player)
	ctx, cancel := context.WithTimeout(q.ctx, searchTime+resultGrace)
	defer cancel()

	search, err := eng.Search(ctx, searchTime)
	if err != nil {
		result.Error = fmt.Errorf("engine search failed: %w", err)
		return result
	}

	result.IsMate = search.IsMate
	result.MateIn = search.MateIn
	if search.BestMove == "" {
		result.Error = ErrEngineNoMove
		return result
	}
	result.Move = search.BestMove
	result.Score = search.Score
	result.Depth = search.Depth
	return result
}

func searchDuration(p core.Player) time.Duration {
	ms := p.SearchTime
	if ms <= 0 {
		ms = core.DefaultSearchTime
	}
	return time.Duration(ms) * time.Millisecond
}

// Submit adds a task to the queue without blocking.
func (q *EngineQueue) Submit(task EngineTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.closed:
		return ErrQueueClosed
	case q.live == 0:
		return ErrNoEngine
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitAsync queues a search and calls callback exactly once with its
// result, or with ErrEngineTimeout when no result arrives in time.
func (q *EngineQueue) SubmitAsync(gameID, fen string, player core.Player, callback func(EngineResult)) error {
	respChan := make(chan EngineResult, 1)

	task := EngineTask{
		GameID:   gameID,
		FEN:      fen,
		Player:   player,
		Response: respChan,
	}
	if err := q.Submit(task); err != nil {
		return err
	}

	// queue wait is bounded by the other tasks ahead of this one
	timeout := searchDuration(player) + resultGrace + time.Duration(len(q.tasks))*searchDuration(player)
	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case result := <-respChan:
			callback(result)
		case <-timer.C:
			callback(EngineResult{GameID: gameID, Error: ErrEngineTimeout})
		}
	}()

	return nil
}

// Shutdown stops accepting tasks and waits for the workers to exit.
func (q *EngineQueue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("engine queue shutdown timeout exceeded")
	}
}

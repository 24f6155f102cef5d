package service

import (
	"fmt"
	"time"

	"chessgame/internal/chess"
	"chessgame/internal/core"
	"chessgame/internal/game"
	"chessgame/internal/storage"

	"github.com/google/uuid"
)

// GenerateGameID returns a uuid not yet used by an in-memory game.
func (s *Service) GenerateGameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// CreateGame registers a new game. An initial FEN that is already checkmate
// or stalemate yields a game that is over from the start.
func (s *Service) CreateGame(id string, whitePlayer, blackPlayer *core.Player, initialFEN string) error {
	g, err := game.New(initialFEN, whitePlayer, blackPlayer)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, id)
	}
	if len(s.games) >= MaxGames {
		return ErrTooManyGames
	}
	s.games[id] = &entry{game: g, updated: time.Now()}

	if s.store != nil {
		s.store.RecordNewGame(storage.GameRecord{
			GameID:          id,
			InitialFEN:      g.InitialFEN(),
			WhitePlayerID:   playerKey(whitePlayer),
			WhiteType:       int(whitePlayer.Type),
			WhiteLevel:      whitePlayer.Level,
			WhiteSearchTime: whitePlayer.SearchTime,
			BlackPlayerID:   playerKey(blackPlayer),
			BlackType:       int(blackPlayer.Type),
			BlackLevel:      blackPlayer.Level,
			BlackSearchTime: blackPlayer.SearchTime,
			StartTimeUTC:    g.StartTime(),
		})
		s.recordResultLocked(id, g)
	}
	return nil
}

// playerKey is the id stored for a side: the owning account when there is one.
func playerKey(p *core.Player) string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.ID
}

// ViewGame runs fn with the game under the read lock. fn must not keep the
// pointer or mutate the game.
func (s *Service) ViewGame(id string, fn func(g *game.Game)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.games[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	fn(e.game)
	return nil
}

// lookupLocked returns the entry for id; mu must be held.
func (s *Service) lookupLocked(id string) (*entry, error) {
	e, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return e, nil
}

// playableLocked rejects moves on pending or finished games.
func playableLocked(g *game.Game) error {
	switch state := g.State(); {
	case state == core.StatePending:
		return ErrGamePending
	case state.IsOver():
		return fmt.Errorf("%w: %s", ErrGameOver, state)
	}
	return nil
}

// MakeMove plays a human move. userID is the caller's account, empty for
// anonymous callers; a side owned by an account only accepts its owner.
func (s *Service) MakeMove(id, uci, userID string) (*game.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	g := e.game
	if err := playableLocked(g); err != nil {
		return nil, err
	}

	player := g.NextPlayer()
	if player.Type != core.PlayerHuman {
		return nil, ErrNotHumanTurn
	}
	if player.UserID != "" && player.UserID != userID {
		return nil, ErrNotYourTurn
	}

	result, err := g.Play(uci)
	if err != nil {
		return nil, err
	}
	s.afterMoveLocked(id, e, result)
	return result, nil
}

// BeginComputerMove marks the game pending and returns what the engine
// needs: the current FEN and the player to move.
func (s *Service) BeginComputerMove(id string) (fen string, player core.Player, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id)
	if err != nil {
		return "", player, err
	}
	g := e.game
	if err := playableLocked(g); err != nil {
		return "", player, err
	}
	if !g.NextPlayer().IsComputer() {
		return "", player, ErrNotComputerTurn
	}

	g.SetPending(true)
	e.updated = time.Now()
	s.waiter.NotifyStateChange(id)
	return g.CurrentFEN(), *g.NextPlayer(), nil
}

// CompleteComputerMove applies the engine's move to a pending game. The
// move is validated by the rules engine like any other; on error the game
// returns to ongoing with the computer still to move.
func (s *Service) CompleteComputerMove(id, uci string, score, depth int) (*game.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	g := e.game
	if g.State() != core.StatePending {
		return nil, fmt.Errorf("no computer move pending for game %s", id)
	}
	g.SetPending(false)

	result, err := g.Play(uci)
	if err != nil {
		e.updated = time.Now()
		s.waiter.NotifyStateChange(id)
		return nil, err
	}
	result.Score = score
	result.Depth = depth
	s.afterMoveLocked(id, e, result)
	return result, nil
}

// AbortComputerMove clears a pending flag without playing a move.
func (s *Service) AbortComputerMove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.games[id]; ok && e.game.State() == core.StatePending {
		e.game.SetPending(false)
		e.updated = time.Now()
		s.waiter.NotifyStateChange(id)
	}
}

func (s *Service) afterMoveLocked(id string, e *entry, result *game.MoveResult) {
	e.updated = time.Now()
	g := e.game
	moves := g.Moves()

	if s.store != nil {
		s.store.RecordMove(storage.MoveRecord{
			GameID:       id,
			MoveNumber:   len(moves),
			MoveUCI:      result.Move,
			FENAfterMove: g.CurrentFEN(),
			PlayerColor:  result.PlayerColor.String(),
			MoveTimeUTC:  time.Now().UTC(),
		})
		s.recordResultLocked(id, g)
	}

	s.waiter.NotifyGame(id, len(moves))
}

// recordResultLocked persists the final result once the game is over.
func (s *Service) recordResultLocked(id string, g *game.Game) {
	state := g.State()
	if !state.IsOver() || s.store == nil {
		return
	}
	s.store.RecordGameResult(storage.GameResult{
		GameID:      id,
		Result:      state.Result(),
		Termination: g.ChessState().String(),
		EndTimeUTC:  time.Now().UTC(),
	})
}

// authorizeLocked allows anyone on a game without owners, otherwise only
// one of its owners.
func authorizeLocked(g *game.Game, userID string) error {
	owned := false
	for _, c := range []chess.Color{chess.White, chess.Black} {
		p := g.GetPlayer(c)
		if p == nil || p.UserID == "" {
			continue
		}
		if p.UserID == userID {
			return nil
		}
		owned = true
	}
	if owned {
		return ErrNotGameOwner
	}
	return nil
}

// mutableLocked looks up a game that userID may change and that is not
// waiting on the engine.
func (s *Service) mutableLocked(id, userID string) (*entry, error) {
	e, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	if err := authorizeLocked(e.game, userID); err != nil {
		return nil, err
	}
	if e.game.State() == core.StatePending {
		return nil, ErrGamePending
	}
	return e, nil
}

// UndoMoves takes back count plies. Finished games are reopened.
func (s *Service) UndoMoves(id string, count int, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.mutableLocked(id, userID)
	if err != nil {
		return err
	}
	if err := e.game.UndoMoves(count); err != nil {
		return err
	}
	e.updated = time.Now()

	remaining := len(e.game.Moves())
	if s.store != nil {
		s.store.DeleteUndoneMoves(id, remaining)
	}
	s.waiter.NotifyGame(id, remaining)
	return nil
}

// UpdatePlayers replaces both players; not allowed while the engine is thinking.
func (s *Service) UpdatePlayers(id string, whitePlayer, blackPlayer *core.Player, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.mutableLocked(id, userID)
	if err != nil {
		return err
	}
	e.game.UpdatePlayers(whitePlayer, blackPlayer)
	e.updated = time.Now()
	s.waiter.NotifyStateChange(id)
	return nil
}

// DeleteGame removes a game from memory and releases its waiters.
func (s *Service) DeleteGame(id, userID string) error {
	s.mu.Lock()
	if _, err := s.mutableLocked(id, userID); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.games, id)
	s.mu.Unlock()

	s.waiter.RemoveGame(id)
	return nil
}

// NextColor reports whose turn it is; used by callers that only need the side.
func (s *Service) NextColor(id string) (chess.Color, error) {
	var c chess.Color
	err := s.ViewGame(id, func(g *game.Game) { c = g.NextTurn() })
	return c, err
}

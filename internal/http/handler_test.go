package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"chessgame/internal/chess"
	"chessgame/internal/core"
	"chessgame/internal/engine"
	"chessgame/internal/processor"
	"chessgame/internal/service"
	"chessgame/internal/storage"
	"chessgame/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// firstMoveEngine answers every search with the first legal move.
type firstMoveEngine struct{ fen string }

func (e *firstMoveEngine) SetSkillLevel(int)                   {}
func (e *firstMoveEngine) SetPosition(fen string, _ []string) { e.fen = fen }
func (e *firstMoveEngine) Close() error                        { return nil }

func (e *firstMoveEngine) Search(context.Context, time.Duration) (*engine.SearchResult, error) {
	pos, err := chess.ParseFEN(e.fen)
	if err != nil {
		return nil, err
	}
	legal := pos.LegalMoves(pos.Turn())
	if len(legal) == 0 {
		return &engine.SearchResult{}, nil
	}
	return &engine.SearchResult{BestMove: legal[0].UCI(), Depth: 1}, nil
}

type testServer struct {
	app  *fiber.App
	svc  *service.Service
	proc *processor.Processor
}

func newTestServer(t *testing.T, withStorage bool) *testServer {
	t.Helper()
	var st *storage.Store
	if withStorage {
		var err error
		st, err = storage.NewStore(filepath.Join(t.TempDir(), "chess.db"), false)
		testutil.RequireNoError(t, err)
		testutil.RequireNoError(t, st.InitDB())
	}
	svc := service.New(st, []byte("test-secret-minimum-32-characters-long"))
	proc := processor.New(svc, processor.Config{
		Workers: 1,
		Factory: func() (processor.Searcher, error) { return &firstMoveEngine{}, nil },
	})
	t.Cleanup(func() {
		proc.Close()
		svc.Shutdown(time.Second)
	})
	return &testServer{app: NewFiberApp(proc, svc, true), svc: svc, proc: proc}
}

// do sends a request and decodes the JSON response into out when non-nil.
func (s *testServer) do(t *testing.T, method, path string, body any, token string, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		testutil.RequireNoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	testutil.RequireNoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		testutil.RequireNoError(t, err)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decoding %s %s response %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

func (s *testServer) createGame(t *testing.T, req core.CreateGameRequest, token string) core.GameResponse {
	t.Helper()
	var game core.GameResponse
	status := s.do(t, "POST", "/api/v1/games", req, token, &game)
	testutil.AssertEqual(t, status, fiber.StatusCreated)
	return game
}

var (
	humanCfg    = core.PlayerConfig{Type: core.PlayerHuman}
	computerCfg = core.PlayerConfig{Type: core.PlayerComputer, Level: 1, SearchTime: 100}
)

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	var body map[string]any
	status := s.do(t, "GET", "/health", nil, "", &body)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, body["status"], "healthy")
	testutil.AssertEqual(t, body["storage"], "disabled")
	testutil.AssertEqual(t, body["engine"], "ok")
}

func TestGameLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	g := s.createGame(t, core.CreateGameRequest{White: humanCfg, Black: humanCfg}, "")
	base := "/api/v1/games/" + g.GameID

	var got core.GameResponse
	status := s.do(t, "POST", base+"/moves", core.MoveRequest{Move: "e2e4"}, "", &got)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, got.Moves, []string{"e2e4"})
	testutil.AssertEqual(t, got.Turn, "b")

	var legal core.LegalMovesResponse
	status = s.do(t, "GET", base+"/legal", nil, "", &legal)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, len(legal.Moves), 20)

	var board core.BoardResponse
	s.do(t, "GET", base+"/board", nil, "", &board)
	testutil.AssertEqual(t, board.FEN, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")

	var pgn core.PGNResponse
	s.do(t, "GET", base+"/pgn", nil, "", &pgn)
	testutil.AssertContains(t, pgn.PGN, "e4")

	status = s.do(t, "POST", base+"/undo", core.UndoRequest{Count: 1}, "", &got)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, got.FEN, chess.StartingFEN)

	status = s.do(t, "DELETE", base, nil, "", nil)
	testutil.AssertEqual(t, status, fiber.StatusNoContent)

	var apiErr core.ErrorResponse
	status = s.do(t, "GET", base, nil, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusNotFound)
	testutil.AssertEqual(t, apiErr.Code, core.ErrGameNotFound)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t, false)
	g := s.createGame(t, core.CreateGameRequest{White: humanCfg, Black: humanCfg}, "")
	base := "/api/v1/games/" + g.GameID

	var apiErr core.ErrorResponse
	status := s.do(t, "POST", base+"/moves", core.MoveRequest{Move: "e4"}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusBadRequest)
	testutil.AssertEqual(t, apiErr.Code, core.ErrInvalidRequest)
	testutil.AssertContains(t, apiErr.Details, "Move must be at least 4 characters")

	status = s.do(t, "POST", base+"/moves", core.MoveRequest{Move: "e2e5"}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusBadRequest)
	testutil.AssertEqual(t, apiErr.Code, core.ErrInvalidMove)

	status = s.do(t, "POST", "/api/v1/games", core.CreateGameRequest{
		White: core.PlayerConfig{Type: 7}, Black: humanCfg,
	}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusBadRequest)
	testutil.AssertContains(t, apiErr.Details, "Type must be one of [1 2]")

	status = s.do(t, "GET", "/api/v1/games/not-a-uuid", nil, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusBadRequest)

	req := httptest.NewRequest("POST", base+"/moves", bytes.NewReader([]byte("move=e2e4")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.app.Test(req, -1)
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, resp.StatusCode, fiber.StatusUnsupportedMediaType)
}

func TestUnknownGame(t *testing.T) {
	s := newTestServer(t, false)
	var apiErr core.ErrorResponse
	status := s.do(t, "GET", "/api/v1/games/"+uuid.NewString()+"/legal", nil, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusNotFound)
	testutil.AssertEqual(t, apiErr.Code, core.ErrGameNotFound)
}

func TestComputerMoveAndLongPoll(t *testing.T) {
	s := newTestServer(t, false)
	g := s.createGame(t, core.CreateGameRequest{White: computerCfg, Black: humanCfg}, "")
	base := "/api/v1/games/" + g.GameID

	var got core.GameResponse
	status := s.do(t, "POST", base+"/moves", core.MoveRequest{Move: core.ComputerMove}, "", &got)
	testutil.AssertEqual(t, status, fiber.StatusAccepted)

	// returns once the engine's move lands
	status = s.do(t, "GET", base+"?wait=true&moveCount=0", nil, "", &got)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, len(got.Moves), 1)
	testutil.AssertEqual(t, got.Turn, "b")
}

func TestLongPollWakesOnMove(t *testing.T) {
	s := newTestServer(t, false)
	g := s.createGame(t, core.CreateGameRequest{White: humanCfg, Black: humanCfg}, "")

	go func() {
		time.Sleep(50 * time.Millisecond)
		s.proc.Execute(processor.NewMakeMoveCommand(g.GameID, core.MoveRequest{Move: "d2d4"}))
	}()

	var got core.GameResponse
	start := time.Now()
	status := s.do(t, "GET", "/api/v1/games/"+g.GameID+"/wait?moveCount=0", nil, "", &got)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, got.Moves, []string{"d2d4"})
	testutil.AssertTrue(t, time.Since(start) < service.WaitTimeout, "woken before timeout")
}

func TestAuthAndOwnership(t *testing.T) {
	s := newTestServer(t, true)

	var reg AuthResponse
	status := s.do(t, "POST", "/api/v1/auth/register", RegisterRequest{
		Username: "Alice", Email: "Alice@Example.com", Password: "password1",
	}, "", &reg)
	testutil.AssertEqual(t, status, fiber.StatusCreated)
	testutil.AssertEqual(t, reg.Username, "alice")
	testutil.AssertTrue(t, reg.Token != "")

	var apiErr core.ErrorResponse
	status = s.do(t, "POST", "/api/v1/auth/register", RegisterRequest{
		Username: "alice", Password: "password2",
	}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusConflict)

	status = s.do(t, "POST", "/api/v1/auth/register", RegisterRequest{
		Username: "bob", Password: "onlyletters",
	}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusBadRequest)
	testutil.AssertEqual(t, apiErr.Error, "weak password")

	var login AuthResponse
	status = s.do(t, "POST", "/api/v1/auth/login", LoginRequest{Identifier: "ALICE@example.com", Password: "password1"}, "", &login)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, login.UserID, reg.UserID)

	status = s.do(t, "POST", "/api/v1/auth/login", LoginRequest{Identifier: "alice", Password: "wrong123"}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusUnauthorized)

	var me service.User
	status = s.do(t, "GET", "/api/v1/auth/me", nil, login.Token, &me)
	testutil.AssertEqual(t, status, fiber.StatusOK)
	testutil.AssertEqual(t, me.Email, "alice@example.com")
	testutil.AssertTrue(t, me.LastLoginAt != nil)

	status = s.do(t, "GET", "/api/v1/auth/me", nil, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusUnauthorized)

	// games created with a token belong to the caller
	g := s.createGame(t, core.CreateGameRequest{White: humanCfg, Black: computerCfg}, login.Token)
	testutil.AssertEqual(t, g.Players.White.UserID, reg.UserID)

	base := "/api/v1/games/" + g.GameID
	status = s.do(t, "POST", base+"/moves", core.MoveRequest{Move: "e2e4"}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusForbidden)
	testutil.AssertEqual(t, apiErr.Code, core.ErrNotYourTurn)

	status = s.do(t, "DELETE", base, nil, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusForbidden)

	status = s.do(t, "POST", base+"/moves", core.MoveRequest{Move: "e2e4"}, login.Token, nil)
	testutil.AssertEqual(t, status, fiber.StatusOK)
}

func TestAccountsWithoutStorage(t *testing.T) {
	s := newTestServer(t, false)
	var apiErr core.ErrorResponse
	status := s.do(t, "POST", "/api/v1/auth/register", RegisterRequest{
		Username: "alice", Password: "password1",
	}, "", &apiErr)
	testutil.AssertEqual(t, status, fiber.StatusServiceUnavailable)
}

func TestExtractBearerToken(t *testing.T) {
	testutil.AssertEqual(t, extractBearerToken("Bearer abc"), "abc")
	testutil.AssertEqual(t, extractBearerToken("Basic abc"), "")
	testutil.AssertEqual(t, extractBearerToken(""), "")
}

func TestValidatePassword(t *testing.T) {
	testutil.AssertNoError(t, validatePassword("abcdefg1"))
	testutil.AssertTrue(t, validatePassword("short1") != nil)
	testutil.AssertTrue(t, validatePassword("12345678") != nil)
	testutil.AssertTrue(t, validatePassword("abcdefgh") != nil)
}

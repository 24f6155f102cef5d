package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"chessgame/internal/chess"
	"chessgame/internal/client/api"
	"chessgame/internal/core"
	"chessgame/internal/engine"
	chesshttp "chessgame/internal/http"
	"chessgame/internal/processor"
	"chessgame/internal/service"
	"chessgame/internal/storage"
	"chessgame/internal/testutil"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
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
	return &engine.SearchResult{BestMove: legal[0].UCI(), Depth: 3, Score: 12}, nil
}

type harness struct {
	reg *Registry
	s   *Session
	out *bytes.Buffer
}

func newHarness(t *testing.T, store *storage.Store) *harness {
	t.Helper()
	svc := service.New(store, []byte("test-secret-minimum-32-characters-long"))
	proc := processor.New(svc, processor.Config{
		Workers: 1,
		Factory: func() (processor.Searcher, error) { return &firstMoveEngine{}, nil },
	})
	srv := httptest.NewServer(adaptor.FiberApp(chesshttp.NewFiberApp(proc, svc, true)))
	t.Cleanup(func() {
		srv.Close()
		proc.Close()
		svc.Shutdown(time.Second)
	})

	out := &bytes.Buffer{}
	s := &Session{
		Client: api.New(srv.URL),
		Out:    out,
		ReadPassword: func(string) (string, error) {
			return "password123", nil
		},
	}
	return &harness{reg: NewRegistry(s), s: s, out: out}
}

// run executes one line and returns what it printed.
func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	h.out.Reset()
	h.reg.Execute(context.Background(), line)
	return h.out.String()
}

func TestParsePlayer(t *testing.T) {
	cfg, err := parsePlayer("h")
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, cfg.Type, core.PlayerHuman)

	cfg, err = parsePlayer("C12")
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, cfg.Level, 12)
	testutil.AssertEqual(t, cfg.Type, core.PlayerComputer)

	for _, bad := range []string{"x", "c21", "c-1", "cx"} {
		_, err := parsePlayer(bad)
		testutil.AssertTrue(t, err != nil, "parsePlayer(%q)", bad)
	}
}

func TestGameCommands(t *testing.T) {
	h := newHarness(t, nil)

	out := h.run(t, "move e2e4")
	testutil.AssertContains(t, out, "no current game")

	out = h.run(t, "new")
	testutil.AssertContains(t, out, "Game created")
	testutil.AssertTrue(t, h.s.GameID != "")

	out = h.run(t, "m e2e4")
	testutil.AssertContains(t, out, "Move accepted: e2e4")
	testutil.AssertEqual(t, h.s.moveCount(), 1)

	out = h.run(t, "move e2e4")
	testutil.AssertContains(t, out, "Error:")
	testutil.AssertContains(t, out, "INVALID_MOVE")

	out = h.run(t, "legal")
	testutil.AssertContains(t, out, "20 legal move(s)")

	out = h.run(t, "show")
	testutil.AssertContains(t, out, "History: 1.e2e4")
	testutil.AssertContains(t, out, "Last move: e2e4 by White")

	out = h.run(t, "pgn")
	testutil.AssertContains(t, out, "e4")

	out = h.run(t, "undo")
	testutil.AssertContains(t, out, "Undid 1 move(s)")
	testutil.AssertEqual(t, h.s.moveCount(), 0)

	out = h.run(t, "state")
	testutil.AssertContains(t, out, `"gameId": "`+h.s.GameID+`"`)

	gameID := h.s.GameID
	out = h.run(t, "delete")
	testutil.AssertContains(t, out, "Game deleted: "+gameID)
	testutil.AssertEqual(t, h.s.GameID, "")

	out = h.run(t, "join "+gameID)
	testutil.AssertContains(t, out, "404")
}

func TestComputerMoves(t *testing.T) {
	h := newHarness(t, nil)

	// white engine opens as soon as the game exists
	out := h.run(t, "new c5 h")
	testutil.AssertContains(t, out, "Computer played:")
	testutil.AssertContains(t, out, "(depth 3, score 12)")
	testutil.AssertEqual(t, h.s.moveCount(), 1)
	testutil.AssertEqual(t, h.s.Game.Turn, "b")

	// a human reply hands the move back to the engine
	out = h.run(t, "move e7e5")
	testutil.AssertContains(t, out, "Computer played:")
	testutil.AssertEqual(t, h.s.moveCount(), 3)

	out = h.run(t, "computer")
	testutil.AssertContains(t, out, core.ErrNotHumanTurn)

	out = h.run(t, "players h c2")
	testutil.AssertContains(t, out, "White: human | Black: computer (level 2, 1000ms)")

	out = h.run(t, "computer")
	testutil.AssertContains(t, out, "Computer played:")
	testutil.AssertEqual(t, h.s.moveCount(), 4)
}

func TestPollReturnsNewMoves(t *testing.T) {
	h := newHarness(t, nil)
	h.run(t, "new")

	other := api.New(h.s.Client.BaseURL)
	go func() {
		time.Sleep(100 * time.Millisecond)
		other.MakeMove(context.Background(), h.s.GameID, "d2d4")
	}()

	out := h.run(t, "poll")
	testutil.AssertContains(t, out, "Game updated! Move count now 1")
	testutil.AssertContains(t, out, "Last move: d2d4")
}

func TestAuthCommands(t *testing.T) {
	store, err := storage.NewStore(t.TempDir()+"/chess.db", false)
	testutil.RequireNoError(t, err)
	testutil.RequireNoError(t, store.InitDB())
	h := newHarness(t, store)

	out := h.run(t, "whoami")
	testutil.AssertContains(t, out, "Not logged in")

	out = h.run(t, "register Carol carol@example.com")
	testutil.AssertContains(t, out, "Registered and logged in as carol")
	testutil.AssertTrue(t, h.s.UserID != "")
	testutil.AssertContains(t, h.s.Prompt(), "carol")

	out = h.run(t, "whoami")
	testutil.AssertContains(t, out, "Email:    carol@example.com")

	out = h.run(t, "new")
	testutil.AssertContains(t, out, "You play")

	h.run(t, "logout")
	testutil.AssertEqual(t, h.s.Client.Token(), "")

	// anonymous players cannot move in an owned game
	out = h.run(t, "move e2e4")
	testutil.AssertContains(t, out, "403")

	out = h.run(t, "login carol@example.com")
	testutil.AssertContains(t, out, "Logged in as carol")
	out = h.run(t, "move e2e4")
	testutil.AssertContains(t, out, "Move accepted")
}

func TestUtilityCommands(t *testing.T) {
	h := newHarness(t, nil)

	out := h.run(t, "health")
	testutil.AssertContains(t, out, "Status:  healthy")
	testutil.AssertContains(t, out, "Storage: disabled")

	out = h.run(t, "raw post /api/v1/games {\"white\":{\"type\":1},\"black\":{\"type\":1}}")
	testutil.AssertContains(t, out, "201 Created")
	testutil.AssertContains(t, out, `"fen": "`+chess.StartingFEN+`"`)

	out = h.run(t, "raw get /api/v1/games/not-a-uuid")
	testutil.AssertContains(t, out, "400 Bad Request")

	out = h.run(t, "health -v")
	testutil.AssertContains(t, out, "[API] GET /health")
	testutil.AssertTrue(t, h.s.Client.Trace != nil)

	out = h.run(t, "help")
	testutil.AssertContains(t, out, "Game Commands:")
	testutil.AssertContains(t, out, "Auth Commands:")
	out = h.run(t, "help m")
	testutil.AssertContains(t, out, "Usage: move <uci-move>")

	out = h.run(t, "bogus")
	testutil.AssertContains(t, out, "Unknown command: bogus")

	testutil.AssertFalse(t, h.reg.Execute(context.Background(), "health"))
	testutil.AssertTrue(t, h.reg.Execute(context.Background(), "exit"))
}

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chessgame/internal/storage"
	"chessgame/internal/testutil"

	"github.com/lixenwraith/auth"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, &out)
	return out.String(), err
}

func TestDatabaseCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")

	out, err := runCmd(t, "db", "init", "-path", path)
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "Database initialized")

	out, err = runCmd(t, "db", "query", "-path", path)
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "No games found")

	_, err = runCmd(t, "db", "moves", "-path", path)
	testutil.AssertContains(t, err.Error(), "game ID required")

	out, err = runCmd(t, "db", "delete", "-path", path)
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "Database deleted")
	_, statErr := os.Stat(path)
	testutil.AssertTrue(t, os.IsNotExist(statErr), "database file removed")
}

func TestQueryShowsGames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")
	store, err := storage.NewStore(path, false)
	testutil.RequireNoError(t, err)
	testutil.RequireNoError(t, store.InitDB())
	store.RecordNewGame(storage.GameRecord{
		GameID:        "0f0e7c2a-1111-2222-3333-444455556666",
		InitialFEN:    "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		WhitePlayerID: "white-player-id",
		WhiteType:     1,
		BlackPlayerID: "black-player-id",
		BlackType:     2,
		BlackLevel:    5,
		StartTimeUTC:  time.Now().UTC(),
	})
	testutil.RequireNoError(t, store.Flush(context.Background()))
	testutil.RequireNoError(t, store.Close())

	out, err := runCmd(t, "db", "query", "-path", path, "-gameId", "*")
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "0f0e7c2a...")
	testutil.AssertContains(t, out, "(computer L5)")
	testutil.AssertContains(t, out, "Found 1 game(s)")
}

func TestUserCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")
	_, err := runCmd(t, "db", "init", "-path", path)
	testutil.RequireNoError(t, err)

	_, err = runCmd(t, "user", "add", "-path", path, "-username", "alice")
	testutil.AssertContains(t, err.Error(), "password required")

	_, err = runCmd(t, "user", "add", "-path", path, "-username", "alice", "-password", "short")
	testutil.AssertContains(t, err.Error(), "at least 8 characters")

	out, err := runCmd(t, "user", "add", "-path", path, "-username", "Alice", "-email", "a@example.com", "-password", "password1")
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "Username: alice")

	_, err = runCmd(t, "user", "add", "-path", path, "-username", "alice", "-password", "password2")
	testutil.AssertErrorIs(t, err, storage.ErrUserExists)

	out, err = runCmd(t, "user", "list", "-path", path)
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "alice")
	testutil.AssertContains(t, out, "a@example.com")
	testutil.AssertContains(t, out, "Total users: 1")

	out, err = runCmd(t, "user", "set-password", "-path", path, "-username", "alice", "-password", "newpassword9")
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "Password updated")

	store, err := storage.NewStore(path, false)
	testutil.RequireNoError(t, err)
	user, err := store.GetUserByUsername("alice")
	testutil.RequireNoError(t, err)
	testutil.AssertNoError(t, auth.VerifyPassword("newpassword9", user.PasswordHash))
	testutil.RequireNoError(t, store.Close())

	_, err = runCmd(t, "user", "delete", "-path", path)
	testutil.AssertContains(t, err.Error(), "exactly one")

	out, err = runCmd(t, "user", "delete", "-path", path, "-username", "alice")
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "User deleted")

	out, err = runCmd(t, "user", "list", "-path", path)
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, out, "No users found")
}

func TestUnknownCommands(t *testing.T) {
	_, err := runCmd(t, "db")
	testutil.AssertContains(t, err.Error(), "usage")

	_, err = runCmd(t, "db", "vacuum", "-path", "x")
	testutil.AssertContains(t, err.Error(), "unknown db subcommand")

	_, err = runCmd(t, "user", "rename")
	testutil.AssertContains(t, err.Error(), "unknown user subcommand")
}

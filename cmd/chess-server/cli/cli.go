// Package cli implements the chess-server admin subcommands for the
// database and user accounts.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"chessgame/internal/core"
	"chessgame/internal/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"golang.org/x/term"
)

const minPasswordLength = 8

// Run dispatches "db ..." and "user ..." subcommands, writing to stdout.
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, out io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: db <init|delete|query|moves> | user <add|delete|set-password|set-hash|list>")
	}

	switch args[0] {
	case "db":
		return runDB(args[1], args[2:], out)
	case "user":
		return runUser(args[1], args[2:], out)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runDB(subcommand string, args []string, out io.Writer) error {
	switch subcommand {
	case "init":
		return runInit(args, out)
	case "delete":
		return runDelete(args, out)
	case "query":
		return runQuery(args, out)
	case "moves":
		return runMoves(args, out)
	default:
		return fmt.Errorf("unknown db subcommand: %s", subcommand)
	}
}

// openStore parses fs, requires -path and opens the database.
func openStore(fs *flag.FlagSet, path *string, args []string) (*storage.Store, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(*path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	return fs, path
}

func runInit(args []string, out io.Writer) error {
	fs, path := newFlagSet("db init")
	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string, out io.Writer) error {
	fs, path := newFlagSet("db delete")
	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}

	// DeleteDB closes the store
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", *path)
	return nil
}

func runQuery(args []string, out io.Writer) error {
	fs, path := newFlagSet("db query")
	gameID := fs.String("gameId", "", "Game ID to filter (optional, * for all)")
	playerID := fs.String("playerId", "", "Player or user ID to filter (optional, * for all)")

	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(*gameID, *playerID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tWhite\tBlack\tStart Time\tResult\tTermination")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			short(g.GameID),
			playerInfo(g.WhitePlayerID, g.WhiteType, g.WhiteLevel),
			playerInfo(g.BlackPlayerID, g.BlackType, g.BlackLevel),
			g.StartTimeUTC.Format("2006-01-02 15:04:05"),
			g.Result,
			g.Termination,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

func runMoves(args []string, out io.Writer) error {
	fs, path := newFlagSet("db moves")
	gameID := fs.String("gameId", "", "Game ID (required)")

	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if *gameID == "" {
		return fmt.Errorf("game ID required")
	}

	moves, err := store.QueryMoves(*gameID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tColor\tMove\tTime\tFEN")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			m.MoveNumber,
			m.PlayerColor,
			m.MoveUCI,
			m.MoveTimeUTC.Format("15:04:05"),
			m.FENAfterMove,
		)
	}
	w.Flush()
	return nil
}

func runUser(subcommand string, args []string, out io.Writer) error {
	switch subcommand {
	case "add":
		return runUserAdd(args, out)
	case "delete":
		return runUserDelete(args, out)
	case "set-password":
		return runUserSetPassword(args, out)
	case "set-hash":
		return runUserSetHash(args, out)
	case "list":
		return runUserList(args, out)
	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

// readPassword prompts on the terminal without echo.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func runUserAdd(args []string, out io.Writer) error {
	fs, path := newFlagSet("user add")
	username := fs.String("username", "", "Username (required)")
	email := fs.String("email", "", "Email address (optional)")
	password := fs.String("password", "", "Password")
	hash := fs.String("hash", "", "Pre-computed password hash")
	interactive := fs.Bool("interactive", false, "Interactive password prompt")

	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if *username == "" {
		return fmt.Errorf("username required")
	}

	var passwordHash string
	switch {
	case *password != "" && *hash != "":
		return fmt.Errorf("cannot specify both -password and -hash")
	case *interactive && (*password != "" || *hash != ""):
		return fmt.Errorf("cannot use -interactive with -password or -hash")
	case *interactive:
		var pw string
		if pw, err = readPassword("Enter password: "); err != nil {
			return err
		}
		passwordHash, err = hashPassword(pw)
	case *hash != "":
		if err := auth.ValidatePHCHashFormat(*hash); err != nil {
			return fmt.Errorf("invalid hash format: %w", err)
		}
		passwordHash = *hash
	case *password != "":
		passwordHash, err = hashPassword(*password)
	default:
		return fmt.Errorf("password required: use -password, -hash, or -interactive")
	}
	if err != nil {
		return err
	}

	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Username:     strings.ToLower(*username),
		Email:        strings.ToLower(*email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateUser(record); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(out, "User created successfully:\n")
	fmt.Fprintf(out, "  ID: %s\n", record.UserID)
	fmt.Fprintf(out, "  Username: %s\n", record.Username)
	if record.Email != "" {
		fmt.Fprintf(out, "  Email: %s\n", record.Email)
	}
	return nil
}

func runUserDelete(args []string, out io.Writer) error {
	fs, path := newFlagSet("user delete")
	username := fs.String("username", "", "Username to delete")
	userID := fs.String("id", "", "User ID to delete")

	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if (*username == "") == (*userID == "") {
		return fmt.Errorf("specify exactly one of -username or -id")
	}

	targetID := *userID
	if targetID == "" {
		user, err := store.GetUserByUsername(*username)
		if err != nil {
			return fmt.Errorf("user not found: %s", *username)
		}
		targetID = user.UserID
	}

	if err := store.DeleteUser(targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Fprintf(out, "User deleted: %s\n", targetID)
	return nil
}

func runUserSetPassword(args []string, out io.Writer) error {
	fs, path := newFlagSet("user set-password")
	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "New password")
	interactive := fs.Bool("interactive", false, "Interactive password prompt")

	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if *username == "" {
		return fmt.Errorf("username required")
	}

	newPassword := *password
	switch {
	case *interactive && *password != "":
		return fmt.Errorf("cannot use -interactive with -password")
	case *interactive:
		if newPassword, err = readPassword("Enter new password: "); err != nil {
			return err
		}
	case *password == "":
		return fmt.Errorf("password required: use -password or -interactive")
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return setHash(store, *username, passwordHash, out)
}

func runUserSetHash(args []string, out io.Writer) error {
	fs, path := newFlagSet("user set-hash")
	username := fs.String("username", "", "Username (required)")
	hash := fs.String("hash", "", "Password hash (required)")

	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if *username == "" || *hash == "" {
		return fmt.Errorf("username and hash required")
	}
	if err := auth.ValidatePHCHashFormat(*hash); err != nil {
		return fmt.Errorf("invalid hash format: %w", err)
	}
	return setHash(store, *username, *hash, out)
}

func setHash(store *storage.Store, username, hash string, out io.Writer) error {
	user, err := store.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user not found: %s", username)
	}
	if err := store.UpdateUserPassword(user.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	fmt.Fprintf(out, "Password updated for user: %s\n", username)
	return nil
}

func runUserList(args []string, out io.Writer) error {
	fs, path := newFlagSet("user list")
	store, err := openStore(fs, path, args)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "User ID\tUsername\tEmail\tCreated\tLast Login")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, u := range users {
		lastLogin := "never"
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
		}
		email := u.Email
		if email == "" {
			email = "(none)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			short(u.UserID),
			u.Username,
			email,
			u.CreatedAt.Format("2006-01-02 15:04"),
			lastLogin,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal users: %d\n", len(users))
	return nil
}

func playerInfo(id string, playerType, level int) string {
	if core.PlayerType(playerType) == core.PlayerComputer {
		return fmt.Sprintf("%s (computer L%d)", short(id), level)
	}
	return fmt.Sprintf("%s (human)", short(id))
}

func short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

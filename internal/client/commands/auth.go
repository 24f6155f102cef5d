package commands

import (
	"context"
	"fmt"

	"chessgame/internal/client/api"
	"chessgame/internal/client/display"
)

func (r *Registry) registerAuthCommands() {
	for _, cmd := range []*Command{
		{
			Name:        "register",
			ShortName:   "r",
			Description: "Register a new user",
			Usage:       "register <username> [email]",
			Handler:     registerHandler,
		},
		{
			Name:        "login",
			ShortName:   "l",
			Description: "Login with username or email",
			Usage:       "login <username|email>",
			Handler:     loginHandler,
		},
		{
			Name:        "logout",
			ShortName:   "o",
			Description: "Clear authentication",
			Usage:       "logout",
			Handler:     logoutHandler,
		},
		{
			Name:        "whoami",
			ShortName:   "i",
			Description: "Show current user",
			Usage:       "whoami",
			Handler:     whoamiHandler,
		},
	} {
		cmd.Group = "Auth"
		r.Register(cmd)
	}
}

func (s *Session) readPassword(prompt string) (string, error) {
	if s.ReadPassword == nil {
		return "", fmt.Errorf("password input not available")
	}
	return s.ReadPassword(display.Colorize(display.Yellow, prompt))
}

func (s *Session) authenticate(resp *api.AuthResponse) {
	s.Client.SetToken(resp.Token)
	s.UserID = resp.UserID
	s.Username = resp.Username
}

func registerHandler(ctx context.Context, s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: register <username> [email]")
	}
	email := ""
	if len(args) > 1 {
		email = args[1]
	}

	password, err := s.readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := s.readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	resp, err := s.Client.Register(ctx, args[0], password, email)
	if err != nil {
		return err
	}
	s.authenticate(resp)

	s.printf(display.Green, "Registered and logged in as %s\n", resp.Username)
	fmt.Fprintf(s.Out, "User ID: %s\n", resp.UserID)
	return nil
}

func loginHandler(ctx context.Context, s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: login <username|email>")
	}

	password, err := s.readPassword("Password: ")
	if err != nil {
		return err
	}

	resp, err := s.Client.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	s.authenticate(resp)

	s.printf(display.Green, "Logged in as %s\n", resp.Username)
	fmt.Fprintf(s.Out, "Token expires: %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func logoutHandler(_ context.Context, s *Session, _ []string) error {
	s.Client.SetToken("")
	s.UserID = ""
	s.Username = ""
	s.printf(display.Green, "Logged out\n")
	return nil
}

func whoamiHandler(ctx context.Context, s *Session, _ []string) error {
	if s.Client.Token() == "" {
		fmt.Fprintln(s.Out, "Not logged in")
		return nil
	}

	user, err := s.Client.CurrentUser(ctx)
	if err != nil {
		return err
	}

	s.printf(display.Cyan, "Current User:\n")
	fmt.Fprintf(s.Out, "  Username: %s\n", user.Username)
	fmt.Fprintf(s.Out, "  User ID:  %s\n", user.UserID)
	if user.Email != "" {
		fmt.Fprintf(s.Out, "  Email:    %s\n", user.Email)
	}
	fmt.Fprintf(s.Out, "  Created:  %s\n", user.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if user.LastLoginAt != nil {
		fmt.Fprintf(s.Out, "  Last login: %s\n", user.LastLoginAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

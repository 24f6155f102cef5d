package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chessgame/internal/client/display"
)

func (r *Registry) registerDebugCommands() {
	for _, cmd := range []*Command{
		{
			Name:        "health",
			ShortName:   ".",
			Description: "Check server health",
			Usage:       "health",
			Handler:     healthHandler,
		},
		{
			Name:        "url",
			ShortName:   "/",
			Description: "Show or set the API base URL",
			Usage:       "url [apiUrl]",
			Handler:     urlHandler,
		},
		{
			Name:        "raw",
			ShortName:   ":",
			Description: "Send raw API request",
			Usage:       "raw <method> <path> [json-body]",
			Handler:     rawRequestHandler,
		},
		{
			Name:        "verbose",
			ShortName:   "v",
			Description: "Toggle request tracing",
			Usage:       "verbose",
			Handler:     verboseHandler,
		},
	} {
		cmd.Group = "Utility"
		r.Register(cmd)
	}
}

func healthHandler(ctx context.Context, s *Session, _ []string) error {
	resp, err := s.Client.Health(ctx)
	if err != nil {
		return err
	}

	s.printf(display.Cyan, "Server Health:\n")
	fmt.Fprintf(s.Out, "  Status:  %s\n", resp.Status)
	fmt.Fprintf(s.Out, "  Time:    %s\n", time.Unix(resp.Time, 0).Format("2006-01-02 15:04:05"))
	if resp.Storage != "" {
		fmt.Fprintf(s.Out, "  Storage: %s\n", resp.Storage)
	}
	if resp.Engine != "" {
		fmt.Fprintf(s.Out, "  Engine:  %s\n", resp.Engine)
	}
	fmt.Fprintf(s.Out, "  Games:   %d\n", resp.Games)
	return nil
}

func urlHandler(_ context.Context, s *Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Out, "Current API URL: %s\n", s.Client.BaseURL)
		return nil
	}

	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	s.Client.SetBaseURL(url)

	s.printf(display.Cyan, "API URL set to: %s\n", s.Client.BaseURL)
	return nil
}

func rawRequestHandler(ctx context.Context, s *Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> <path> [json-body]")
	}

	status, body, err := s.Client.Raw(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}

	color := display.Green
	if status >= 400 {
		color = display.Red
	}
	s.printf(color, "%d %s\n", status, http.StatusText(status))

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		fmt.Fprintln(s.Out, pretty.String())
	} else if len(body) > 0 {
		fmt.Fprintln(s.Out, string(body))
	}
	return nil
}

func verboseHandler(_ context.Context, s *Session, _ []string) error {
	s.Verbose = !s.Verbose
	state := "off"
	if s.Verbose {
		state = "on"
	}
	fmt.Fprintf(s.Out, "Verbose mode %s\n", state)
	return nil
}

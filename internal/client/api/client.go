// Package api is a typed HTTP client for the chess server REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chessgame/internal/core"
)

// HealthResponse mirrors GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage"`
	Engine  string `json:"engine"`
	Games   int    `json:"games"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserResponse struct {
	UserID      string     `json:"userId"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	core.ErrorResponse
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Status, e.ErrorResponse.Error)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// Trace receives one line per request and response when set.
	Trace io.Writer

	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		// long polls are held up to 25s server side
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) tracef(format string, args ...any) {
	if c.Trace != nil {
		fmt.Fprintf(c.Trace, format, args...)
	}
}

// send performs a request and returns the status and raw body.
func (c *Client) send(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		c.tracef("[API] %s %s %s\n", method, path, data)
	} else {
		c.tracef("[API] %s %s\n", method, path)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	c.tracef("[%d %s]\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	return resp.StatusCode, data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	status, data, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if status >= 400 {
		apiErr := &APIError{Status: status}
		if json.Unmarshal(data, &apiErr.ErrorResponse) != nil || apiErr.ErrorResponse.Error == "" {
			apiErr.ErrorResponse.Error = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func gamePath(gameID string, suffix ...string) string {
	return "/api/v1/games/" + gameID + strings.Join(suffix, "")
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame(ctx context.Context, req core.CreateGameRequest) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/games", req, &resp)
	return &resp, err
}

func (c *Client) GetGame(ctx context.Context, gameID string) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.do(ctx, http.MethodGet, gamePath(gameID), nil, &resp)
	return &resp, err
}

// WaitForChange long-polls until the game differs from moveCount or the
// server's wait times out.
func (c *Client) WaitForChange(ctx context.Context, gameID string, moveCount int) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.do(ctx, http.MethodGet, gamePath(gameID, fmt.Sprintf("/wait?moveCount=%d", moveCount)), nil, &resp)
	return &resp, err
}

func (c *Client) ConfigurePlayers(ctx context.Context, gameID string, req core.ConfigurePlayersRequest) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.do(ctx, http.MethodPut, gamePath(gameID, "/players"), req, &resp)
	return &resp, err
}

func (c *Client) DeleteGame(ctx context.Context, gameID string) error {
	return c.do(ctx, http.MethodDelete, gamePath(gameID), nil, nil)
}

// MakeMove plays a UCI move; core.ComputerMove queues an engine move instead.
func (c *Client) MakeMove(ctx context.Context, gameID, move string) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/moves"), core.MoveRequest{Move: move}, &resp)
	return &resp, err
}

func (c *Client) UndoMoves(ctx context.Context, gameID string, count int) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/undo"), core.UndoRequest{Count: count}, &resp)
	return &resp, err
}

func (c *Client) GetBoard(ctx context.Context, gameID string) (*core.BoardResponse, error) {
	var resp core.BoardResponse
	err := c.do(ctx, http.MethodGet, gamePath(gameID, "/board"), nil, &resp)
	return &resp, err
}

func (c *Client) GetLegalMoves(ctx context.Context, gameID string) (*core.LegalMovesResponse, error) {
	var resp core.LegalMovesResponse
	err := c.do(ctx, http.MethodGet, gamePath(gameID, "/legal"), nil, &resp)
	return &resp, err
}

func (c *Client) GetPGN(ctx context.Context, gameID string) (*core.PGNResponse, error) {
	var resp core.PGNResponse
	err := c.do(ctx, http.MethodGet, gamePath(gameID, "/pgn"), nil, &resp)
	return &resp, err
}

func (c *Client) Register(ctx context.Context, username, password, email string) (*AuthResponse, error) {
	var resp AuthResponse
	req := RegisterRequest{Username: username, Email: email, Password: password}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp)
	return &resp, err
}

func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	var resp AuthResponse
	req := LoginRequest{Identifier: identifier, Password: password}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp)
	return &resp, err
}

func (c *Client) CurrentUser(ctx context.Context) (*UserResponse, error) {
	var resp UserResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &resp)
	return &resp, err
}

// Raw sends an arbitrary request. A body that is not valid JSON is sent as
// a JSON string.
func (c *Client) Raw(ctx context.Context, method, path, body string) (int, []byte, error) {
	var payload any
	if body != "" {
		if json.Valid([]byte(body)) {
			payload = json.RawMessage(body)
		} else {
			payload = body
		}
	}
	return c.send(ctx, strings.ToUpper(method), path, payload)
}

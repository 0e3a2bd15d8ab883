// Package client is an HTTP client for the sleuth game API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/protocol"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap maps the error code back to its gameerr sentinel so callers can use
// errors.Is on client errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case gameerr.KindInvalidInput:
		return gameerr.ErrInvalidInput
	case gameerr.KindInvalidConfiguration:
		return gameerr.ErrInvalidConfiguration
	case gameerr.KindNotFound:
		return gameerr.ErrNotFound
	case gameerr.KindConflict:
		return gameerr.ErrConflict
	case gameerr.KindInvalidState:
		return gameerr.ErrInvalidState
	default:
		return nil
	}
}

// Client talks to a sleuth server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates a client for the server at serverURL.
func NewClient(serverURL string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", serverURL)
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.WithPrefix("client"),
	}, nil
}

func (c *Client) CreateRoom(ctx context.Context, playerName string) (protocol.CreateRoomResponse, error) {
	var resp protocol.CreateRoomResponse
	err := c.do(ctx, http.MethodPost, "/api/game/create-room", protocol.CreateRoomRequest{PlayerName: playerName}, &resp)
	return resp, err
}

func (c *Client) JoinRoom(ctx context.Context, code, playerName string) (protocol.JoinRoomResponse, error) {
	var resp protocol.JoinRoomResponse
	err := c.do(ctx, http.MethodPost, "/api/game/join-room", protocol.JoinRoomRequest{RoomCode: code, PlayerName: playerName}, &resp)
	return resp, err
}

func (c *Client) StartGame(ctx context.Context, code string) (protocol.StartGameResponse, error) {
	var resp protocol.StartGameResponse
	err := c.do(ctx, http.MethodPost, "/api/game/start-game", protocol.StartGameRequest{RoomCode: code}, &resp)
	return resp, err
}

func (c *Client) MakeGuess(ctx context.Context, code, playerName string, guess protocol.Triple) (protocol.MakeGuessResponse, error) {
	var resp protocol.MakeGuessResponse
	err := c.do(ctx, http.MethodPost, "/api/game/make-guess", protocol.MakeGuessRequest{
		RoomCode:   code,
		PlayerName: playerName,
		Guess:      &guess,
	}, &resp)
	return resp, err
}

func (c *Client) Status(ctx context.Context, code string) (protocol.GameStatusResponse, error) {
	var resp protocol.GameStatusResponse
	err := c.do(ctx, http.MethodGet, "/api/game/game-status/"+url.PathEscape(code), nil, &resp)
	return resp, err
}

func (c *Client) Hand(ctx context.Context, code, playerName string) (protocol.HandResponse, error) {
	var resp protocol.HandResponse
	err := c.do(ctx, http.MethodGet, "/api/game/hand/"+url.PathEscape(code)+"/"+url.PathEscape(playerName), nil, &resp)
	return resp, err
}

func (c *Client) GameData(ctx context.Context) (protocol.GameDataResponse, error) {
	var resp protocol.GameDataResponse
	err := c.do(ctx, http.MethodGet, "/api/game/game-data", nil, &resp)
	return resp, err
}

func (c *Client) Rooms(ctx context.Context) ([]protocol.RoomSummary, error) {
	var resp []protocol.RoomSummary
	err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	c.logger.Debug("Sending request", "method", method, "path", path, "request_id", reqID)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body protocol.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Package backend calls the proxy endpoints on behalf of the board.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperengineering/questboard/internal/auth"
	"github.com/hyperengineering/questboard/internal/types"
)

// DefaultTimeout applies when the caller passes no timeout.
const DefaultTimeout = 10 * time.Second

// maxErrorBody bounds how much of an error body is kept as the message.
const maxErrorBody = 512

// ErrPlayerNotFound is returned when the proxy has no record for the player.
var ErrPlayerNotFound = errors.New("player not found")

// Error is a non-2xx answer from the proxy.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Client talks to one proxy deployment. It never retries.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client for the proxy at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// PostActivity appends one activity record.
func (c *Client) PostActivity(ctx context.Context, ev types.ActivityEvent) error {
	_, err := c.send(ctx, http.MethodPost, "/functions/airtable", ev)
	return err
}

// ListPlayers returns the roster.
func (c *Client) ListPlayers(ctx context.Context) ([]types.Player, error) {
	body, err := c.send(ctx, http.MethodGet, "/functions/players", nil)
	if err != nil {
		return nil, err
	}
	var resp types.PlayersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	return resp.Players, nil
}

// VerifyPlayer checks a player's password. A rejected password matches
// auth.ErrWrongPassword; the upstream *Error stays reachable with errors.As.
func (c *Client) VerifyPlayer(ctx context.Context, playerID, password string) error {
	body, err := c.send(ctx, http.MethodPost, "/functions/players-verify",
		types.VerifyRequest{PlayerID: playerID, Password: password})
	if err != nil {
		return mapAuthError(err)
	}
	var resp types.VerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode verify response: %w", err)
	}
	if !resp.OK {
		return auth.ErrWrongPassword
	}
	return nil
}

// UpdatePlayerStatus sets a player's status after the proxy re-checks the
// password. It returns the status the roster now holds.
func (c *Client) UpdatePlayerStatus(ctx context.Context, playerID string, desired types.PlayerStatus, password string) (types.PlayerStatus, error) {
	body, err := c.send(ctx, http.MethodPost, "/functions/players-update",
		types.UpdateStatusRequest{PlayerID: playerID, DesiredStatus: desired, Password: password})
	if err != nil {
		return "", mapAuthError(err)
	}
	var resp types.UpdateStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode update response: %w", err)
	}
	if resp.Status == "" {
		resp.Status = desired
	}
	return resp.Status, nil
}

func mapAuthError(err error) error {
	var be *Error
	if !errors.As(err, &be) {
		return err
	}
	switch be.Status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", auth.ErrWrongPassword, be)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", auth.ErrMissingHash, be)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrPlayerNotFound, be)
	}
	return err
}

// send performs one request and returns the body of a 2xx answer.
func (c *Client) send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts {"message": ...} from a JSON body, else returns the
// trimmed text.
func errorMessage(body []byte) string {
	var m types.MessageResponse
	if err := json.Unmarshal(body, &m); err == nil && m.Message != "" {
		return m.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a typed HTTP client for the room API. One method per
// endpoint; the session token (host or seat) rides along as a Bearer
// header on every call.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the client's token
func (c *Client) SetToken(token string) {
	c.token = token
}

// Health checks server liveness
func (c *Client) Health() (HealthResult, error) {
	var result HealthResult
	err := c.do(http.MethodGet, "/health", nil, &result)
	return result, err
}

// CreateRoom creates a room and returns it with the host session token.
// A nil shuffleFactor leaves the server default in place.
func (c *Client) CreateRoom(shuffleFactor *int) (CreateResult, error) {
	body := map[string]int{}
	if shuffleFactor != nil {
		body["shuffle_factor"] = *shuffleFactor
	}
	var result CreateResult
	err := c.do(http.MethodPost, "/api/v1/rooms", body, &result)
	return result, err
}

// JoinRoom seats a named player, resuming an existing seat if the name
// matches one already in the room
func (c *Client) JoinRoom(code, name string) (JoinResult, error) {
	var result JoinResult
	err := c.do(http.MethodPost, roomPath(code, "join"), map[string]string{"name": name}, &result)
	return result, err
}

// GetRoomState fetches the room and its players, trimmed to what the
// session's viewer is allowed to see
func (c *Client) GetRoomState(code string) (RoomState, error) {
	var result RoomState
	err := c.do(http.MethodGet, roomPath(code, ""), nil, &result)
	return result, err
}

// Advance moves the round to its next stage (host only)
func (c *Client) Advance(code string) (Room, error) {
	var result Room
	err := c.do(http.MethodPost, roomPath(code, "advance"), nil, &result)
	return result, err
}

// SetShuffleFactor updates the shuffle bias used at the next reset
func (c *Client) SetShuffleFactor(code string, factor int) (Room, error) {
	var result Room
	err := c.do(http.MethodPatch, roomPath(code, "shuffle"), map[string]int{"shuffle_factor": factor}, &result)
	return result, err
}

// SetQRUrl updates the join URL shown on the host display
func (c *Client) SetQRUrl(code, url string) (Room, error) {
	var result Room
	err := c.do(http.MethodPatch, roomPath(code, "qr"), map[string]string{"url": url}, &result)
	return result, err
}

// EndRoom deletes the room, its players and their sessions
func (c *Client) EndRoom(code string) error {
	return c.do(http.MethodDelete, roomPath(code, ""), nil, nil)
}

// Fold folds the session's seat for the rest of the round
func (c *Client) Fold(code string) (Player, error) {
	var result Player
	err := c.do(http.MethodPost, roomPath(code, "fold"), nil, &result)
	return result, err
}

// Reveal toggles whether the seat's hole cards show on the host display
func (c *Client) Reveal(code string) (Player, error) {
	var result Player
	err := c.do(http.MethodPost, roomPath(code, "reveal"), nil, &result)
	return result, err
}

// Leave gives up the session's seat
func (c *Client) Leave(code string) error {
	return c.do(http.MethodPost, roomPath(code, "leave"), nil, nil)
}

func roomPath(code, action string) string {
	p := "/api/v1/rooms/" + code
	if action != "" {
		p += "/" + action
	}
	return p
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// do performs one request/response cycle, decoding either the result
// or the API error envelope
func (c *Client) do(method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

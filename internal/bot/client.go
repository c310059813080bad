package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/pkg/battleship"
)

// WSEvent mirrors handler.WSEvent for client-side deserialization.
type WSEvent struct {
	Type   string         `json:"type"`
	GameID string         `json:"game_id"`
	Data   map[string]any `json:"data"`
}

// Client is an HTTP+WebSocket client for a single remote player.
type Client struct {
	name     string
	baseURL  string
	token    string
	userID   string
	wsConn   *websocket.Conn
	events   chan WSEvent
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a new bot client targeting the given server URL.
func NewClient(name, baseURL string) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		events:  make(chan WSEvent, 64),
		httpC:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the bot name.
func (c *Client) Name() string { return c.name }

// UserID returns the bot's user ID after login.
func (c *Client) UserID() string { return c.userID }

// Login authenticates via the dev login endpoint.
func (c *Client) Login() error {
	resp, err := c.httpC.Get(c.baseURL + "/auth/dev?name=" + url.QueryEscape(c.name))
	if err != nil {
		return fmt.Errorf("dev login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("dev login status %d: %s", resp.StatusCode, body)
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("decode tokens: %w", err)
	}
	c.token = tokens.AccessToken

	// Fetch user ID from /users/me
	user, err := c.getJSON("/api/v1/users/me")
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if id, ok := user["id"].(string); ok {
		c.userID = id
	}
	log.Debug().Str("bot", c.name).Str("userId", c.userID).Msg("Bot logged in")
	return nil
}

// GameOptions are the board settings sent when creating a game. Zero
// values leave the server's rules in place.
type GameOptions struct {
	Size      int   `json:"size,omitempty"`
	Fleet     []int `json:"fleet,omitempty"`
	Adjacency *bool `json:"adjacency,omitempty"`
	Seed      int64 `json:"seed,omitempty"`
}

// CreateGame creates a new game against a server-generated board and
// returns its ID.
func (c *Client) CreateGame(opts GameOptions) (string, error) {
	resp, err := c.postJSON("/api/v1/games", opts)
	if err != nil {
		return "", err
	}
	id, _ := resp["id"].(string)
	if id == "" {
		return "", fmt.Errorf("create game: response missing id")
	}
	return id, nil
}

// GameInfo is the public part of a remote game.
type GameInfo struct {
	ID       string
	Size     int
	Fleet    battleship.Fleet
	Moves    int
	Finished bool
}

// GetGame fetches game details.
func (c *Client) GetGame(gameID string) (GameInfo, error) {
	resp, err := c.getJSON("/api/v1/games/" + gameID)
	if err != nil {
		return GameInfo{}, err
	}
	size, _ := resp["size"].(float64)
	moves, _ := resp["moves"].(float64)
	rawFleet, _ := resp["fleet"].(string)
	status, _ := resp["status"].(string)
	fleet, err := battleship.ParseFleet(rawFleet)
	if err != nil {
		return GameInfo{}, fmt.Errorf("decode fleet: %w", err)
	}
	return GameInfo{
		ID:       gameID,
		Size:     int(size),
		Fleet:    fleet,
		Moves:    int(moves),
		Finished: status == "finished",
	}, nil
}

// ShotOutcome is the server's answer to one shot.
type ShotOutcome struct {
	Result   battleship.Result
	Moves    int
	Finished bool
}

// Fire shoots at (row, col) in the given game.
func (c *Client) Fire(gameID string, cell battleship.Cell) (ShotOutcome, error) {
	resp, err := c.postJSON("/api/v1/games/"+gameID+"/shots", cell)
	if err != nil {
		return ShotOutcome{}, err
	}
	return decodeOutcome(resp)
}

// Autoplay asks the server to fire its own best shot.
func (c *Client) Autoplay(gameID string) (battleship.Cell, ShotOutcome, error) {
	resp, err := c.postJSON("/api/v1/games/"+gameID+"/autoplay", nil)
	if err != nil {
		return battleship.Cell{}, ShotOutcome{}, err
	}
	out, err := decodeOutcome(resp)
	if err != nil {
		return battleship.Cell{}, out, err
	}
	cell, err := decodeCell(resp["cell"])
	return cell, out, err
}

// Suggest returns the server's recommended next cell.
func (c *Client) Suggest(gameID string) (battleship.Cell, error) {
	resp, err := c.getJSON("/api/v1/games/" + gameID + "/suggest")
	if err != nil {
		return battleship.Cell{}, err
	}
	return decodeCell(resp["cell"])
}

func decodeOutcome(resp map[string]any) (ShotOutcome, error) {
	raw, _ := resp["result"].(string)
	res, err := battleship.ParseResult(raw)
	if err != nil {
		return ShotOutcome{}, fmt.Errorf("decode result: %w", err)
	}
	moves, _ := resp["moves"].(float64)
	finished, _ := resp["finished"].(bool)
	return ShotOutcome{Result: res, Moves: int(moves), Finished: finished}, nil
}

func decodeCell(v any) (battleship.Cell, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return battleship.Cell{}, fmt.Errorf("response missing cell")
	}
	row, rok := m["row"].(float64)
	col, cok := m["col"].(float64)
	if !rok || !cok {
		return battleship.Cell{}, fmt.Errorf("malformed cell %v", m)
	}
	return battleship.Cell{Row: int(row), Col: int(col)}, nil
}

// ConnectWS opens a WebSocket connection and starts listening for events.
func (c *Client) ConnectWS() error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/ws?token=" + url.QueryEscape(c.token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	return nil
}

// SubscribeGame sends a subscribe message for the given game.
func (c *Client) SubscribeGame(gameID string) error {
	msg := map[string]string{"action": "subscribe", "game_id": gameID}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wsConn.WriteJSON(msg)
}

// Events returns the channel of incoming WebSocket events.
func (c *Client) Events() <-chan WSEvent { return c.events }

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			if !c.closedWS {
				log.Debug().Err(err).Str("bot", c.name).Msg("WS read error")
			}
			return
		}
		// The hub batches queued events into one frame, one per line.
		for _, line := range bytes.Split(msg, []byte("\n")) {
			var event WSEvent
			if err := json.Unmarshal(line, &event); err != nil {
				continue
			}
			c.events <- event
		}
	}
}

func (c *Client) getJSON(path string) (map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpC.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

func (c *Client) postJSON(path string, payload any) (map[string]any, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpC.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// Package realtime streams live like and view counts over a websocket.
package realtime

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/pixelfolio/cli/pkg/logger"
)

// EventType is the "type" field of a server message
type EventType string

const (
	EventLikeCountUpdate EventType = "like_count_update"
	EventViewCountUpdate EventType = "view_count_update"
	EventHeartbeat       EventType = "heartbeat"
	EventPong            EventType = "pong"
	EventError           EventType = "error"
)

// Event is one message from the server
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler receives events of the type it was registered for
type Handler func(Event)

// Config holds websocket client settings
type Config struct {
	URL                  string
	ConnectTimeout       time.Duration
	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int // -1 retries forever
}

// DefaultConfig returns settings for the given endpoint
func DefaultConfig(rawURL string) Config {
	return Config{
		URL:                  rawURL,
		ConnectTimeout:       15 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		ReconnectBaseDelay:   2 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: -1,
	}
}

// ConnectionState is the client's link status
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	MessagesReceived int64
	MessagesSent     int64
	ReconnectCount   int
	LastError        string
	ConnectedAt      time.Time
	DisconnectedAt   time.Time
}

// Client keeps a websocket open until its context ends, reconnecting with
// exponential backoff
type Client struct {
	config  Config
	session credentials.Session
	state   atomic.Int32

	listenersMu sync.RWMutex
	listeners   map[EventType][]Handler

	writeMu sync.Mutex
	conn    *websocket.Conn

	statsLock sync.RWMutex
	stats     ConnectionStats
}

// NewClient creates a client. The session's token, if any, is sent on connect.
func NewClient(config Config, session credentials.Session) *Client {
	if session == nil {
		session = credentials.Anonymous()
	}
	return &Client{
		config:    config,
		session:   session,
		listeners: make(map[EventType][]Handler),
	}
}

// On registers h for events of type t. Handlers run on the read loop, in
// arrival order.
func (c *Client) On(t EventType, h Handler) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners[t] = append(c.listeners[t], h)
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// IsConnected returns true if the connection is established
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// GetStats returns connection statistics
func (c *Client) GetStats() ConnectionStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()
	return c.stats
}

// Run connects and dispatches events until ctx is done. It returns nil on
// cancellation and an error once reconnect attempts are exhausted.
func (c *Client) Run(ctx context.Context) error {
	delay := c.config.ReconnectBaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	attempts := 0

	for {
		c.setState(StateConnecting)
		connected, err := c.connectOnce(ctx)
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return nil
		}
		if connected {
			attempts = 0
			delay = c.config.ReconnectBaseDelay
			if delay <= 0 {
				delay = time.Second
			}
		}
		c.recordError(err)

		if c.config.MaxReconnectAttempts >= 0 && attempts >= c.config.MaxReconnectAttempts {
			c.setState(StateDisconnected)
			return fmt.Errorf("realtime connection lost after %d reconnect attempts: %w", attempts, err)
		}
		attempts++

		wait := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
		logger.Debug("Reconnecting websocket", "attempt", attempts, "wait_ms", wait.Milliseconds(), "error", err)
		c.setState(StateReconnecting)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(StateDisconnected)
			return nil
		case <-timer.C:
		}

		c.statsLock.Lock()
		c.stats.ReconnectCount++
		c.statsLock.Unlock()

		delay *= 2
		if c.config.ReconnectMaxDelay > 0 && delay > c.config.ReconnectMaxDelay {
			delay = c.config.ReconnectMaxDelay
		}
	}
}

// Send writes a message to the server
func (c *Client) Send(t EventType, payload interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Event{Type: t, Payload: raw})
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}

	c.statsLock.Lock()
	c.stats.MessagesSent++
	c.statsLock.Unlock()
	return nil
}

func (c *Client) connectOnce(ctx context.Context) (bool, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return false, err
	}

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	c.setState(StateConnected)
	c.statsLock.Lock()
	c.stats.ConnectedAt = time.Now()
	c.statsLock.Unlock()
	logger.Debug("Websocket connected", "url", c.config.URL)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.heartbeatLoop(ctx, conn, done)
	}()

	err = c.readLoop(conn)

	close(done)
	wg.Wait()

	c.writeMu.Lock()
	c.conn = nil
	c.writeMu.Unlock()
	conn.Close()

	c.statsLock.Lock()
	c.stats.DisconnectedAt = time.Now()
	c.statsLock.Unlock()
	return true, err
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid realtime url: %w", err)
	}

	header := http.Header{}
	if c.session.Authenticated() {
		q := u.Query()
		q.Set("token", c.session.Token())
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+c.session.Token())
	}

	dialCtx := ctx
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), header)
	return conn, err
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Debug("Ignoring malformed websocket message", "error", err)
			continue
		}

		c.statsLock.Lock()
		c.stats.MessagesReceived++
		c.statsLock.Unlock()

		c.listenersMu.RLock()
		handlers := append([]Handler(nil), c.listeners[ev.Type]...)
		c.listenersMu.RUnlock()

		for _, h := range handlers {
			h(ev)
		}
	}
}

// heartbeatLoop pings on an interval and closes the connection when ctx
// ends so the blocked read returns
func (c *Client) heartbeatLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	interval := c.config.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			if err := c.Send(EventHeartbeat, nil); err != nil {
				logger.Debug("Failed to send heartbeat", "error", err)
			}
		}
	}
}

func (c *Client) setState(s ConnectionState) {
	c.state.Store(int32(s))
}

func (c *Client) recordError(err error) {
	if err == nil {
		return
	}
	c.statsLock.Lock()
	c.stats.LastError = err.Error()
	c.statsLock.Unlock()
}

// Package live keeps a websocket open to the API's event stream and fans
// server-pushed events out to listeners.
package live

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
)

// MessageType represents the type of event message
type MessageType string

const (
	MessageTypeNewPost             MessageType = "new_post"
	MessageTypeLikeCountUpdate     MessageType = "like_count_update"
	MessageTypeCommentCountUpdate  MessageType = "comment_count_update"
	MessageTypeFollowerCountUpdate MessageType = "follower_count_update"
	MessageTypeHeartbeat           MessageType = "heartbeat"
	MessageTypePong                MessageType = "pong"
	MessageTypeError               MessageType = "error"
)

// Message is one event frame
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PostEvent is the payload of new_post and the post count updates
type PostEvent struct {
	PostID       string `json:"postId"`
	AuthorID     string `json:"authorId,omitempty"`
	LikeCount    *int   `json:"likeCount,omitempty"`
	CommentCount *int   `json:"commentCount,omitempty"`
}

// FollowEvent is the payload of follower_count_update
type FollowEvent struct {
	UserID        string `json:"userId"`
	FollowerCount int    `json:"followerCount"`
}

// Decode unmarshals the payload into v
func (m Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	return json.Unmarshal(m.Payload, v)
}

// Config holds event stream client configuration
type Config struct {
	URL string
	// Cookies is called on every dial so refreshed session cookies are used
	Cookies func() []*http.Cookie

	ConnectTimeout       time.Duration
	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int // -1 is unlimited
}

// DefaultConfig returns the configuration for the stream at streamURL
func DefaultConfig(streamURL string) Config {
	return Config{
		URL:                  streamURL,
		ConnectTimeout:       15 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		ReconnectBaseDelay:   2 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: -1,
	}
}

// StreamURL maps an http(s) API base URL and a path to a ws(s) URL
func StreamURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	return u.String(), nil
}

// ConnectionState represents the state of the connection
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	MessagesReceived int64
	MessagesSent     int64
	ReconnectCount   int
	LastError        string
	ConnectedAt      time.Time
	DisconnectedAt   time.Time
}

type listener struct {
	id int
	fn func(Message)
}

// Client manages the event stream connection
type Client struct {
	config Config
	state  atomic.Value // ConnectionState

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	reconnectAttempts int
	reconnectDelay    time.Duration

	listenersMu sync.RWMutex
	listeners   map[MessageType][]listener
	nextID      int

	ctx    context.Context
	cancel context.CancelFunc

	statsLock sync.RWMutex
	stats     ConnectionStats
}

// NewClient creates a disconnected client
func NewClient(config Config) *Client {
	c := &Client{
		config:         config,
		listeners:      make(map[MessageType][]listener),
		reconnectDelay: config.ReconnectBaseDelay,
	}
	c.state.Store(StateDisconnected)
	return c
}

// Connect dials the stream and starts the read and heartbeat loops, which
// run (reconnecting as needed) until ctx is done or Close is called
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.setState(StateConnecting)

	conn, err := c.dial()
	if err != nil {
		c.setState(StateError)
		c.recordError(err.Error())
		return err
	}

	c.attach(conn)
	logger.Debug("Event stream connected", "url", c.config.URL)
	return nil
}

// Close stops the loops and closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		conn.Close()
	}

	c.setState(StateDisconnected)
	c.recordDisconnected()

	logger.Debug("Event stream closed")
	return nil
}

// IsConnected returns true if the connection is established
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// State returns the connection state
func (c *Client) State() ConnectionState {
	return c.state.Load().(ConnectionState)
}

// On subscribes to a message type; an empty type receives every message.
// Listeners run on the read loop in arrival order and must not block.
func (c *Client) On(msgType MessageType, fn func(Message)) func() {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[msgType] = append(c.listeners[msgType], listener{id: id, fn: fn})
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()

		list := c.listeners[msgType]
		for i, l := range list {
			if l.id == id {
				c.listeners[msgType] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Send sends a message to the server
func (c *Client) Send(msgType MessageType, payload interface{}) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	msg := Message{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Payload = raw
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}

	c.recordMessageSent()
	return nil
}

// GetStats returns connection statistics
func (c *Client) GetStats() ConnectionStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()
	return c.stats
}

func (c *Client) dial() (*websocket.Conn, error) {
	header := http.Header{}
	if c.config.Cookies != nil {
		parts := make([]string, 0, 2)
		for _, ck := range c.config.Cookies() {
			parts = append(parts, ck.Name+"="+ck.Value)
		}
		if len(parts) > 0 {
			header.Set("Cookie", strings.Join(parts, "; "))
		}
	}

	dialCtx := c.ctx
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(c.ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, c.config.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("event stream: %s: %w", resp.Status, err)
		}
		return nil, err
	}
	return conn, nil
}

// attach installs conn and starts its loops
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected)
	c.reconnectAttempts = 0
	c.reconnectDelay = c.config.ReconnectBaseDelay
	c.recordConnected()

	stop := make(chan struct{})
	go c.readLoop(conn, stop)
	go c.heartbeatLoop(stop)
}

func (c *Client) readLoop(conn *websocket.Conn, stop chan struct{}) {
	defer close(stop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.recordError(err.Error())
			logger.Warn("Event stream read error", "error", err)
			go c.handleDisconnect(conn)
			return
		}

		c.recordMessageReceived()
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("Dropping malformed event", "error", err)
			continue
		}
		c.emit(msg)
	}
}

func (c *Client) emit(msg Message) {
	c.listenersMu.RLock()
	callbacks := append(append([]listener(nil), c.listeners[msg.Type]...), c.listeners[""]...)
	c.listenersMu.RUnlock()

	for _, l := range callbacks {
		l.fn(msg)
	}
}

func (c *Client) heartbeatLoop(stop <-chan struct{}) {
	if c.config.HeartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := c.Send(MessageTypeHeartbeat, nil); err != nil {
				logger.Debug("Failed to send heartbeat", "error", err)
			}
		}
	}
}

func (c *Client) handleDisconnect(old *websocket.Conn) {
	c.mu.Lock()
	if c.conn == old {
		c.conn = nil
	}
	c.mu.Unlock()
	old.Close()

	c.setState(StateReconnecting)
	c.recordDisconnected()

	// Exponential backoff with jitter
	for {
		if c.config.MaxReconnectAttempts >= 0 && c.reconnectAttempts >= c.config.MaxReconnectAttempts {
			c.setState(StateError)
			logger.Error("Max reconnection attempts reached")
			return
		}

		wait := c.reconnectDelay + time.Duration(rand.Int63n(int64(c.reconnectDelay/2)+1))
		logger.Debug("Reconnecting event stream", "attempt", c.reconnectAttempts+1, "wait_ms", wait.Milliseconds())

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(wait):
		}

		conn, err := c.dial()
		if err != nil {
			c.reconnectAttempts++
			c.recordError(err.Error())
			c.reconnectDelay = min(c.reconnectDelay*2, c.config.ReconnectMaxDelay)
			continue
		}

		c.statsLock.Lock()
		c.stats.ReconnectCount++
		c.statsLock.Unlock()

		c.attach(conn)
		logger.Debug("Event stream reconnected")
		return
	}
}

func (c *Client) setState(state ConnectionState) {
	c.state.Store(state)
}

func (c *Client) recordMessageReceived() {
	c.statsLock.Lock()
	c.stats.MessagesReceived++
	c.statsLock.Unlock()
}

func (c *Client) recordMessageSent() {
	c.statsLock.Lock()
	c.stats.MessagesSent++
	c.statsLock.Unlock()
}

func (c *Client) recordError(errMsg string) {
	c.statsLock.Lock()
	c.stats.LastError = errMsg
	c.statsLock.Unlock()
}

func (c *Client) recordConnected() {
	c.statsLock.Lock()
	c.stats.ConnectedAt = time.Now()
	c.statsLock.Unlock()
}

func (c *Client) recordDisconnected() {
	c.statsLock.Lock()
	c.stats.DisconnectedAt = time.Now()
	c.statsLock.Unlock()
}

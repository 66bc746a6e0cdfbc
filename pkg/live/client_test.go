package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer pushes each frame written to frames and records the cookie
// header of every handshake
type echoServer struct {
	*httptest.Server
	frames chan Message

	mu      sync.Mutex
	cookies []string
	conns   []*websocket.Conn
}

func newEchoServer(t *testing.T) *echoServer {
	t.Helper()
	s := &echoServer{frames: make(chan Message, 16)}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.cookies = append(s.cookies, r.Header.Get("Cookie"))
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var msg Message
				if json.Unmarshal(data, &msg) == nil && msg.Type == MessageTypeHeartbeat {
					s.frames <- Message{Type: MessageTypePong}
				}
			}
		}()
		for msg := range s.frames {
			data, _ := json.Marshal(msg)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(func() {
		s.dropAll()
		s.Server.Close()
	})
	return s
}

func (s *echoServer) url(t *testing.T) string {
	u, err := StreamURL(s.URL, "/events")
	require.NoError(t, err)
	return u
}

// dropAll closes every server-side connection
func (s *echoServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = nil
}

func (s *echoServer) handshakes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cookies...)
}

func payload(t *testing.T, v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://localhost:5000", "/events", "ws://localhost:5000/events"},
		{"https://api.example.com/v1/", "events", "wss://api.example.com/v1/events"},
	}
	for _, tt := range tests {
		got, err := StreamURL(tt.base, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := StreamURL("ftp://example.com", "/events")
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	c := NewClient(DefaultConfig("ws://localhost/events"))
	assert.Equal(t, StateDisconnected, c.State())
	assert.False(t, c.IsConnected())
	assert.Error(t, c.Send(MessageTypeHeartbeat, nil))
}

func TestConnect_SendsCookiesAndDeliversInOrder(t *testing.T) {
	srv := newEchoServer(t)
	cfg := DefaultConfig(srv.url(t))
	cfg.Cookies = func() []*http.Cookie {
		return []*http.Cookie{{Name: "accessToken", Value: "a1"}, {Name: "refreshToken", Value: "r1"}}
	}
	c := NewClient(cfg)

	var mu sync.Mutex
	var got []int
	c.On(MessageTypeLikeCountUpdate, func(m Message) {
		var ev PostEvent
		if !assert.NoError(t, m.Decode(&ev)) {
			return
		}
		mu.Lock()
		got = append(got, *ev.LikeCount)
		mu.Unlock()
	})

	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	assert.True(t, c.IsConnected())

	for i := 1; i <= 3; i++ {
		n := i
		srv.frames <- Message{Type: MessageTypeLikeCountUpdate, Payload: payload(t, PostEvent{PostID: "p1", LikeCount: &n})}
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, []string{"accessToken=a1; refreshToken=r1"}, srv.handshakes())
	assert.EqualValues(t, 3, c.GetStats().MessagesReceived)
}

func TestOn_Unsubscribe(t *testing.T) {
	c := NewClient(DefaultConfig("ws://localhost/events"))

	var first, second, all int
	off := c.On(MessageTypeNewPost, func(Message) { first++ })
	c.On(MessageTypeNewPost, func(Message) { second++ })
	c.On("", func(Message) { all++ })

	c.emit(Message{Type: MessageTypeNewPost})
	off()
	c.emit(Message{Type: MessageTypeNewPost})
	c.emit(Message{Type: MessageTypePong})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 3, all)
}

func TestHeartbeat(t *testing.T) {
	srv := newEchoServer(t)
	cfg := DefaultConfig(srv.url(t))
	cfg.HeartbeatInterval = 20 * time.Millisecond
	c := NewClient(cfg)

	pongs := make(chan struct{}, 8)
	c.On(MessageTypePong, func(Message) {
		select {
		case pongs <- struct{}{}:
		default:
		}
	})
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	select {
	case <-pongs:
	case <-time.After(2 * time.Second):
		t.Fatal("no pong received")
	}
	assert.Positive(t, c.GetStats().MessagesSent)
}

func TestReconnectsAfterDrop(t *testing.T) {
	srv := newEchoServer(t)
	cfg := DefaultConfig(srv.url(t))
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	cfg.ReconnectMaxDelay = 20 * time.Millisecond
	c := NewClient(cfg)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	srv.dropAll()

	require.Eventually(t, func() bool {
		return len(srv.handshakes()) == 2 && c.IsConnected()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, c.GetStats().ReconnectCount)
}

func TestConnect_Fails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	u, err := StreamURL(srv.URL, "/events")
	require.NoError(t, err)

	c := NewClient(DefaultConfig(u))
	assert.Error(t, c.Connect(context.Background()))
	assert.Equal(t, StateError, c.State())
	assert.NotEmpty(t, c.GetStats().LastError)
}

func TestClose(t *testing.T) {
	srv := newEchoServer(t)
	c := NewClient(DefaultConfig(srv.url(t)))
	require.NoError(t, c.Connect(context.Background()))

	require.NoError(t, c.Close())
	assert.Equal(t, StateDisconnected, c.State())
	assert.Error(t, c.Send(MessageTypeHeartbeat, nil))
}

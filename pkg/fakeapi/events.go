package fakeapi

import (
	"net/http"
	"sync"

	"github.com/aditya-makadiya/sociofeed/pkg/live"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type subscriber struct {
	userID string
	send   chan []byte
}

// push drops the frame when the subscriber is too slow to keep up
func (sub *subscriber) push(frame []byte) {
	select {
	case sub.send <- frame:
	default:
	}
}

// hub fans events out to every open stream
type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

func (h *hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// broadcast sends frame to every subscriber except the user skip
func (h *hub) broadcast(frame []byte, skip string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if skip == "" || sub.userID != skip {
			sub.push(frame)
		}
	}
}

func encodeEvent(t live.MessageType, payload interface{}) []byte {
	msg := live.Message{Type: t}
	if payload != nil {
		raw, _ := json.Marshal(payload)
		msg.Payload = raw
	}
	frame, _ := json.Marshal(msg)
	return frame
}

// publish sends an event to every connected stream
func (s *Server) publish(t live.MessageType, payload interface{}) {
	s.hub.broadcast(encodeEvent(t, payload), "")
}

// publishOthers sends an event to every stream not owned by userID
func (s *Server) publishOthers(userID string, t live.MessageType, payload interface{}) {
	s.hub.broadcast(encodeEvent(t, payload), userID)
}

// Subscribers returns the number of open event streams
func (s *Server) Subscribers() int {
	return s.hub.size()
}

func (s *Server) events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return // Upgrade already replied
	}
	defer conn.Close()

	sub := &subscriber{userID: c.GetString("user_id"), send: make(chan []byte, 64)}
	s.hub.add(sub)
	defer s.hub.remove(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg live.Message
			if json.Unmarshal(data, &msg) == nil && msg.Type == live.MessageTypeHeartbeat {
				sub.push(encodeEvent(live.MessageTypePong, nil))
			}
		}
	}()

	for {
		select {
		case frame := <-sub.send:
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

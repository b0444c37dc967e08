package service

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Lifecycle event names published to harness subscribers.
const (
	EventSessionCreated  = "session_created"
	EventSessionDeleted  = "session_deleted"
	EventMemberJoined    = "member_joined"
	EventMemberLeft      = "member_left"
	EventActivitySet     = "activity_set"
	EventActivityCleared = "activity_cleared"
)

// Event is one session-directory lifecycle notification.
type Event struct {
	Event       string `json:"event"`
	SessionName string `json:"sessionName,omitempty"`
	Xuid        string `json:"xuid,omitempty"`
}

// Subscriber is one WebSocket connection watching directory events.
type Subscriber struct {
	Conn *websocket.Conn
	Send chan []byte
}

// EventHub fans session lifecycle events out to WebSocket subscribers so
// harness clients can observe mock state changes without polling.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	upgrader    websocket.Upgrader
	log         *zap.Logger
}

// NewEventHub creates an event hub.
func NewEventHub(readBufferSize, writeBufferSize int, log *zap.Logger) *EventHub {
	return &EventHub{
		subscribers: make(map[*Subscriber]struct{}),
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
		},
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *EventHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// Register adds a subscriber and returns it with a cleanup function.
func (h *EventHub) Register(conn *websocket.Conn) (*Subscriber, func()) {
	s := &Subscriber{
		Conn: conn,
		Send: make(chan []byte, 64),
	}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()

	h.log.Info("event subscriber registered", zap.String("remote", conn.RemoteAddr().String()))

	cleanup := func() {
		h.unregister(s)
	}
	return s, cleanup
}

func (h *EventHub) unregister(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s]; !ok {
		return
	}
	delete(h.subscribers, s)
	close(s.Send)
	h.log.Info("event subscriber unregistered", zap.String("remote", s.Conn.RemoteAddr().String()))
}

// Publish sends an event to every subscriber. Slow subscribers drop events
// rather than block the directory.
func (h *EventHub) Publish(evt Event) {
	if h == nil {
		return
	}
	raw, _ := json.Marshal(evt)

	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.Send <- raw:
		default:
			h.log.Warn("event subscriber buffer full, dropping event",
				zap.String("event", evt.Event))
		}
	}
}

// Close disconnects all subscribers.
func (h *EventHub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[*Subscriber]struct{})
	h.mu.Unlock()

	for s := range subs {
		close(s.Send)
		_ = s.Conn.Close()
	}
}

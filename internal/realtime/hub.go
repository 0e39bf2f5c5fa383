// Package realtime fans events out to websocket clients grouped in rooms.
package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

const (
	EventWelcome    = "welcome"
	EventJoinRoom   = "joinRoom"
	EventLeaveRoom  = "leaveRoom"
	EventTyping     = "typing"
	EventUserTyping = "userTyping"
	EventMessage    = "message"
	EventPresence   = "presence"
	EventError      = "error"
)

var ErrNotParticipant = errors.New("user is not a participant of this room")

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Publisher is what the message relay needs from the hub.
type Publisher interface {
	Emit(room, event string, payload interface{})
}

type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	closed  bool
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.closeSend()
		return
	}
	h.clients[c] = struct{}{}
}

// Unregister removes the client from every room and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = nil
	c.closeSend()
}

// Join adds the client to a room. Room ids are two user ids joined by "_";
// a client may only join rooms that include its own user.
func (h *Hub) Join(c *Client, room string) error {
	if !RoomIncludes(room, c.UserID) {
		return ErrNotParticipant
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return errors.New("client is not registered")
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	if c.rooms == nil {
		c.rooms = make(map[string]struct{})
	}
	c.rooms[room] = struct{}{}
	return nil
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Emit delivers an event to every client in room. It never blocks; clients
// whose queue is full miss the event.
func (h *Hub) Emit(room, event string, payload interface{}) {
	h.EmitExcept(room, nil, event, payload)
}

func (h *Hub) EmitExcept(room string, except *Client, event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode realtime event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		h.push(c, frame, event)
	}
}

func (h *Hub) Broadcast(event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode realtime event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.push(c, frame, event)
	}
}

// SendTo delivers an event to a single client.
func (h *Hub) SendTo(c *Client, event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode realtime event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		h.push(c, frame, event)
	}
}

// push must be called with h.mu held.
func (h *Hub) push(c *Client, frame []byte, event string) {
	select {
	case c.send <- frame:
	default:
		h.logger.Warn("dropping realtime event for slow client",
			"event", event,
			"client_id", c.ID,
			"user_id", c.UserID,
		)
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Online reports whether userID has at least one connected client.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// Close disconnects every client. Later registrations are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.closeSend()
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
}

func RoomIncludes(room, userID string) bool {
	if userID == "" {
		return false
	}
	for _, part := range strings.Split(room, "_") {
		if part == userID {
			return true
		}
	}
	return false
}

func encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

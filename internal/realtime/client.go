package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Client is one websocket connection. A user may hold several.
type Client struct {
	ID     string
	UserID string

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	rooms     map[string]struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Upgrader accepts any origin; CORS for the REST API is enforced by the
// router and the websocket requires an access token.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type typingPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

// Serve upgrades the request, registers the client and blocks until the
// connection ends.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := NewClient(hub, conn, userID)
	hub.Register(c)
	hub.logger.Info("websocket connected", "client_id", c.ID, "user_id", userID)

	hub.SendTo(c, EventWelcome, map[string]string{
		"message":  "Welcome to Talknet",
		"userId":   userID,
		"clientId": c.ID,
	})
	hub.Broadcast(EventPresence, map[string]interface{}{"userId": userID, "online": true})

	go c.writePump()
	c.readPump()

	hub.Unregister(c)
	if !hub.Online(userID) {
		hub.Broadcast(EventPresence, map[string]interface{}{"userId": userID, "online": false})
	}
	hub.logger.Info("websocket disconnected", "client_id", c.ID, "user_id", userID)
	return nil
}

func (c *Client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", "client_id", c.ID, "error", err)
			}
			return
		}
		c.handle(env)
	}
}

func (c *Client) handle(env Envelope) {
	switch env.Event {
	case EventJoinRoom:
		room := decodeRoom(env.Data)
		if err := c.hub.Join(c, room); err != nil {
			c.hub.SendTo(c, EventError, map[string]string{"event": env.Event, "message": err.Error()})
			return
		}
	case EventLeaveRoom:
		c.hub.Leave(c, decodeRoom(env.Data))
	case EventTyping:
		var p typingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			c.hub.SendTo(c, EventError, map[string]string{"event": env.Event, "message": "roomId is required"})
			return
		}
		if !c.joined(p.RoomID) {
			c.hub.SendTo(c, EventError, map[string]string{"event": env.Event, "message": ErrNotParticipant.Error()})
			return
		}
		c.hub.EmitExcept(p.RoomID, c, EventUserTyping, map[string]string{
			"roomId":   p.RoomID,
			"userId":   c.UserID,
			"userName": p.UserName,
		})
	default:
		c.hub.SendTo(c, EventError, map[string]string{"event": env.Event, "message": "unknown event"})
	}
}

func (c *Client) joined(room string) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// decodeRoom accepts either a bare string or {"roomId": "..."}.
func decodeRoom(data json.RawMessage) string {
	var room string
	if err := json.Unmarshal(data, &room); err == nil {
		return room
	}
	var p roomPayload
	if err := json.Unmarshal(data, &p); err == nil {
		return p.RoomID
	}
	return ""
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/config"
	"github.com/pongarena/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

var dbClient *sqlx.DB
var rdbClient *redis.Client
var wsConfig *config.Config

// SetDependencies wires the shared database, Redis client, and config into
// the ws package. Call once during startup before serving connections.
func SetDependencies(db *sqlx.DB, r *redis.Client, cfg *config.Config) {
	dbClient = db
	rdbClient = r
	wsConfig = cfg
}

// Client represents a connected WebSocket client
type Client struct {
	conn      *websocket.Conn
	sessionID string
	userID    int
	matchID   string
	spectator bool
	send      chan []byte
}

// Hub maintains the set of active clients
type Hub struct {
	clients    map[string]*Client            // sessionID -> Client
	matchRooms map[string]map[string]*Client // matchID -> sessionID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		matchRooms: make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// BroadcastToMatch sends a message to every client in a match room
func (h *Hub) BroadcastToMatch(matchID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.matchRooms[matchID]; exists {
		for _, client := range room {
			select {
			case client.send <- data:
			default:
				// Client's buffer is full
				log.Printf("Client send buffer full for session %s in match %s, dropping message", client.sessionID, matchID)
			}
		}
	}
}

// SendToSession sends a message to a specific session
func (h *Hub) SendToSession(sessionID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[sessionID]; exists {
		select {
		case client.send <- data:
			// sent
		default:
			log.Printf("[WS] SendToSession dropped message for session %s (buffer full)", sessionID)
		}
	} else {
		log.Printf("[WS] SendToSession no client for session %s", sessionID)
	}
}

// joinRoom moves a client into a match room, leaving its previous room first.
func (h *Hub) joinRoom(c *Client, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.matchID != "" {
		if room, exists := h.matchRooms[c.matchID]; exists {
			delete(room, c.sessionID)
			if len(room) == 0 {
				delete(h.matchRooms, c.matchID)
			}
		}
	}

	c.matchID = matchID
	if _, exists := h.matchRooms[matchID]; !exists {
		h.matchRooms[matchID] = make(map[string]*Client)
	}
	h.matchRooms[matchID][c.sessionID] = c
}

// leaveRoom removes a client from its current match room.
func (h *Hub) leaveRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.matchID == "" {
		return
	}
	if room, exists := h.matchRooms[c.matchID]; exists {
		delete(room, c.sessionID)
		if len(room) == 0 {
			delete(h.matchRooms, c.matchID)
		}
	}
	c.matchID = ""
}

// bindUser records the authenticated user on a client. The mutable client
// identity fields (userID, matchID) are guarded by the hub mutex; pumps and
// callback goroutines touch them through the hub.
func (h *Hub) bindUser(c *Client, userID int) {
	h.mu.Lock()
	c.userID = userID
	h.mu.Unlock()
}

// clientUserID reads a client's bound user id.
func (h *Hub) clientUserID(c *Client) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.userID
}

// clientMatchID reads a client's current room binding.
func (h *Hub) clientMatchID(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.matchID
}

// sessionUserIDs resolves the authenticated user behind each player of a
// match snapshot. Unauthenticated or no-longer-connected sessions map to 0.
func (h *Hub) sessionUserIDs(snap game.Match) map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make(map[string]int, len(snap.Players))
	for _, p := range snap.Players {
		if client, exists := h.clients[p.ID]; exists {
			ids[p.ID] = client.userID
		} else {
			ids[p.ID] = 0
		}
	}
	return ids
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed — connection is being replaced or cleaned up.
				// Best-effort close frame; ignore errors (conn may already be closed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error for session %s: %v", c.sessionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket ping error for session %s: %v", c.sessionID, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	c.send <- data
}

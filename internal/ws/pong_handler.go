package ws

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pongarena/backend/internal/auth"
	"github.com/pongarena/backend/internal/game"
	"github.com/pongarena/backend/internal/presence"
)

// Pong-specific message data types
type SetUserData struct {
	Token string `json:"token"`
}

type JoinGameData struct {
	GameID    string `json:"game_id"`
	Multiteam bool   `json:"multiteam"`
	Spectate  bool   `json:"spectate"`
}

type PaddleMoveData struct {
	Direction string `json:"direction"`
}

// GameHub is the single hub for all matches.
var GameHub *Hub

func init() {
	GameHub = NewHub()
	go runGameHub(GameHub)
}

func newSessionID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "sess_" + hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return "sess_" + hex.EncodeToString(bytes)
}

// HandleWebSocket upgrades the connection and registers a new session.
func HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:      conn,
		sessionID: newSessionID(),
		send:      make(chan []byte, 256),
	}

	GameHub.register <- client

	go client.writePump()
	go client.readPump()
}

// NotifyMatched pushes match_found to both paired sessions and moves them
// into the match room. Wired as the matchmaker's pairing callback.
func NotifyMatched(matchID string, sessions []string) {
	for _, sessionID := range sessions {
		GameHub.mu.RLock()
		client, exists := GameHub.clients[sessionID]
		var userID int
		if exists {
			userID = client.userID
		}
		GameHub.mu.RUnlock()
		if !exists {
			log.Printf("[WS] Matched session %s has no live connection", sessionID)
			continue
		}

		GameHub.joinRoom(client, matchID)
		if userID > 0 {
			presence.SetStatus(dbClient, rdbClient, userID, "in_game")
		}

		snap, _ := game.Registry.Snapshot(matchID)
		GameHub.SendToSession(sessionID, map[string]interface{}{
			"type":    "match_found",
			"game_id": matchID,
			"state":   snap,
		})
	}
	log.Printf("[MATCHMAKER] Notified %d sessions of match %s", len(sessions), matchID)
}

// runGameHub runs the hub with pong session lifecycle logic.
func runGameHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sessionID] = client
			h.mu.Unlock()

			log.Printf("[WS] Session %s connected", client.sessionID)

			h.SendToSession(client.sessionID, map[string]interface{}{
				"type":       "connected",
				"session_id": client.sessionID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			cur, ok := h.clients[client.sessionID]
			userID := client.userID
			if ok && cur == client {
				delete(h.clients, client.sessionID)
				if room, exists := h.matchRooms[client.matchID]; exists {
					delete(room, client.sessionID)
					if len(room) == 0 {
						delete(h.matchRooms, client.matchID)
					}
				}
			}
			h.mu.Unlock()

			if !ok || cur != client {
				continue
			}

			log.Printf("[WS] Session %s disconnected", client.sessionID)

			if userID > 0 {
				presence.SetStatus(dbClient, rdbClient, userID, "offline")
				game.Queue.Dequeue(userID)
			}

			if matchID, ok := game.Registry.MatchIDForSession(client.sessionID); ok {
				finalizeForDeparture(h, matchID, client, userID)
				if game.Registry.Remove(matchID, client.sessionID) {
					h.BroadcastToMatch(matchID, map[string]interface{}{
						"type":       "player_left",
						"session_id": client.sessionID,
					})
				}
			}

			close(client.send)
		}
	}
}

// finalizeForDeparture ends a playing 2-player match when one of its players
// drops. The winner is whichever side leads on points at the moment of the
// disconnect, ties going to the left side. The leaver's user id is passed in
// because the hub has already dropped the client from its session map.
func finalizeForDeparture(h *Hub, matchID string, leaving *Client, leavingUserID int) {
	snap, ok := game.Registry.Snapshot(matchID)
	if !ok || snap.Status != game.StatusPlaying || len(snap.Players) != 2 {
		return
	}

	if snap.PlayerByID(leaving.sessionID) == nil {
		return
	}

	winner := snap.WinningSide()

	if !game.Registry.MarkFinished(matchID) {
		return
	}
	log.Printf("[REGISTRY] Match %s finished by departure, winner: %s", matchID, winner)

	finishMatch(h, matchID, snap, winner, departureUserIDs(h, snap, leaving, leavingUserID))
}

// departureUserIDs resolves the users behind a departing match's players. The
// leaver is already gone from the hub's session map, so their id comes from
// the value captured at unregister time.
func departureUserIDs(h *Hub, snap game.Match, leaving *Client, leavingUserID int) map[string]int {
	userIDs := h.sessionUserIDs(snap)
	if userIDs[leaving.sessionID] == 0 {
		userIDs[leaving.sessionID] = leavingUserID
	}
	return userIDs
}

// readPump reads messages for pong sessions.
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for session %s: %v", c.sessionID, err)
			} else {
				log.Printf("WebSocket read error for session %s: %v", c.sessionID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming pong messages.
func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "set_user":
		var data SetUserData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid user data")
			return
		}
		c.handleSetUser(data)

	case "join_game":
		var data JoinGameData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError("Invalid join data")
				return
			}
		}
		c.handleJoinGame(data)

	case "paddle_move":
		var data PaddleMoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid move data")
			return
		}
		c.handlePaddleMove(data)

	case "start_game":
		c.handleStartGame()

	case "get_game_state":
		c.handleGetGameState()

	case "matchmake":
		c.handleMatchmake()

	case "ping":
		d, _ := json.Marshal(map[string]interface{}{"type": "pong"})
		c.send <- d

	default:
		c.sendError("Unknown message type")
	}
}

// handleSetUser binds an authenticated user to this session.
func (c *Client) handleSetUser(data SetUserData) {
	if wsConfig == nil {
		c.sendError("Server not ready")
		return
	}

	userID, err := auth.ParseToken(wsConfig.JWTSecret, data.Token)
	if err != nil {
		c.sendError("Invalid token")
		return
	}

	GameHub.bindUser(c, userID)
	presence.SetStatus(dbClient, rdbClient, userID, "online")
	log.Printf("[WS] Session %s bound to user %d", c.sessionID, userID)

	d, _ := json.Marshal(map[string]interface{}{
		"type":    "user_set",
		"user_id": userID,
	})
	c.send <- d
}

// handleJoinGame admits the session into a match, creating one if needed.
func (c *Client) handleJoinGame(data JoinGameData) {
	if data.Spectate {
		if data.GameID == "" {
			c.sendError("game_id required to spectate")
			return
		}
		snap, ok := game.Registry.Snapshot(data.GameID)
		if !ok {
			d, _ := json.Marshal(map[string]interface{}{
				"type":    "join_error",
				"message": "Game not found",
			})
			c.send <- d
			return
		}
		c.spectator = true
		GameHub.joinRoom(c, data.GameID)
		d, _ := json.Marshal(map[string]interface{}{
			"type":    "game_joined",
			"game_id": data.GameID,
			"state":   snap,
		})
		c.send <- d
		return
	}

	matchID := data.GameID
	created := false
	if matchID == "" {
		if found, ok := game.Registry.FindWaitingMatch(data.Multiteam); ok {
			matchID = found
		} else {
			matchID = game.Registry.CreateMatch(data.Multiteam)
			created = true
		}
	}

	if !game.Registry.Admit(matchID, c.sessionID) {
		if created {
			game.Registry.RemoveMatch(matchID)
		}
		d, _ := json.Marshal(map[string]interface{}{
			"type":    "join_error",
			"message": "Unable to join game",
		})
		c.send <- d
		return
	}

	GameHub.joinRoom(c, matchID)
	if userID := GameHub.clientUserID(c); userID > 0 {
		presence.SetStatus(dbClient, rdbClient, userID, "in_game")
	}

	snap, _ := game.Registry.Snapshot(matchID)
	d, _ := json.Marshal(map[string]interface{}{
		"type":    "game_joined",
		"game_id": matchID,
		"state":   snap,
	})
	c.send <- d

	GameHub.BroadcastToMatch(matchID, map[string]interface{}{
		"type":       "player_joined",
		"session_id": c.sessionID,
		"state":      snap,
	})
}

// handlePaddleMove applies paddle input, including the local co-op aliases
// that steer the first left-side paddle.
func (c *Client) handlePaddleMove(data PaddleMoveData) {
	if c.spectator {
		c.sendError("Spectators cannot move paddles")
		return
	}

	var dir game.Direction
	coop := false

	switch data.Direction {
	case "up":
		dir = game.DirectionUp
	case "down":
		dir = game.DirectionDown
	case "stop":
		dir = game.DirectionStop
	case "player1_up":
		dir, coop = game.DirectionUp, true
	case "player1_down":
		dir, coop = game.DirectionDown, true
	case "player1_stop":
		dir, coop = game.DirectionStop, true
	default:
		c.sendError("Invalid direction")
		return
	}

	if !coop {
		game.Registry.ApplyInput(c.sessionID, dir)
		return
	}

	// Co-op aliases drive the first left-side paddle of the session's match.
	snap, ok := game.Registry.SnapshotForSession(c.sessionID)
	if !ok {
		return
	}
	for _, p := range snap.Players {
		if p.Team == game.TeamLeft && p.PaddleIndex == 0 {
			game.Registry.ApplyInput(p.ID, dir)
			return
		}
	}
}

// handleStartGame requests the start of a multiteam lobby.
func (c *Client) handleStartGame() {
	matchID, ok := game.Registry.MatchIDForSession(c.sessionID)
	if !ok {
		c.sendError("Not in a game")
		return
	}
	if !game.Registry.RequestStart(matchID, c.sessionID) {
		c.sendError("Cannot start game")
	}
}

// handleGetGameState sends the session's current match snapshot.
func (c *Client) handleGetGameState() {
	var snap game.Match
	var ok bool
	if matchID := GameHub.clientMatchID(c); c.spectator && matchID != "" {
		snap, ok = game.Registry.Snapshot(matchID)
	} else {
		snap, ok = game.Registry.SnapshotForSession(c.sessionID)
	}
	if !ok {
		c.sendError("Not in a game")
		return
	}

	d, _ := json.Marshal(map[string]interface{}{
		"type":    "game_state",
		"game_id": snap.ID,
		"state":   snap,
	})
	c.send <- d
}

// handleMatchmake enqueues the session for automatic pairing.
func (c *Client) handleMatchmake() {
	userID := GameHub.clientUserID(c)
	if userID == 0 {
		c.sendError("Authentication required for matchmaking")
		return
	}
	if _, ok := game.Registry.MatchIDForSession(c.sessionID); ok {
		c.sendError("Already in a game")
		return
	}

	game.Queue.Enqueue(c.sessionID, userID)

	status := game.Queue.Status(userID)
	d, _ := json.Marshal(map[string]interface{}{
		"type":                   "queue_status",
		"in_queue":               status.InQueue,
		"position":               status.Position,
		"estimated_wait_seconds": status.EstimatedWaitSeconds,
		"queue_length":           status.QueueLength,
	})
	c.send <- d
}

package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/pongarena/backend/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addClient seats a client directly in the hub maps, bypassing the network
// register path.
func addClient(h *Hub, sessionID string, userID int, buffer int) *Client {
	c := &Client{
		sessionID: sessionID,
		userID:    userID,
		send:      make(chan []byte, buffer),
	}
	h.mu.Lock()
	h.clients[sessionID] = c
	h.mu.Unlock()
	return c
}

func decodeMessage(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestBroadcastReachesWholeRoom(t *testing.T) {
	h := NewHub()
	c1 := addClient(h, "s1", 0, 4)
	c2 := addClient(h, "s2", 0, 4)
	outsider := addClient(h, "s3", 0, 4)
	h.joinRoom(c1, "game_a")
	h.joinRoom(c2, "game_a")

	h.BroadcastToMatch("game_a", map[string]interface{}{"type": "game_state"})

	for _, c := range []*Client{c1, c2} {
		select {
		case raw := <-c.send:
			assert.Equal(t, "game_state", decodeMessage(t, raw)["type"])
		default:
			t.Fatalf("client %s did not receive the broadcast", c.sessionID)
		}
	}

	select {
	case <-outsider.send:
		t.Fatal("client outside the room must not receive the broadcast")
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := addClient(h, "s1", 0, 1)
	h.joinRoom(c, "game_a")

	h.BroadcastToMatch("game_a", map[string]interface{}{"type": "first"})
	h.BroadcastToMatch("game_a", map[string]interface{}{"type": "second"})

	raw := <-c.send
	assert.Equal(t, "first", decodeMessage(t, raw)["type"])

	select {
	case <-c.send:
		t.Fatal("second message should have been dropped, not queued")
	default:
	}
}

func TestJoinRoomMovesClientBetweenRooms(t *testing.T) {
	h := NewHub()
	c := addClient(h, "s1", 0, 4)

	h.joinRoom(c, "game_a")
	h.joinRoom(c, "game_b")

	h.mu.RLock()
	_, inOld := h.matchRooms["game_a"]
	_, inNew := h.matchRooms["game_b"]["s1"]
	h.mu.RUnlock()

	assert.False(t, inOld, "emptied room must be deleted")
	assert.True(t, inNew)
	assert.Equal(t, "game_b", c.matchID)
}

func TestLeaveRoomClearsBinding(t *testing.T) {
	h := NewHub()
	c := addClient(h, "s1", 0, 4)
	h.joinRoom(c, "game_a")

	h.leaveRoom(c)

	assert.Equal(t, "", c.matchID)
	h.mu.RLock()
	_, exists := h.matchRooms["game_a"]
	h.mu.RUnlock()
	assert.False(t, exists)

	// Leaving twice is harmless.
	h.leaveRoom(c)
}

func TestSessionUserIDs(t *testing.T) {
	h := NewHub()
	addClient(h, "s1", 42, 1)
	addClient(h, "s2", 0, 1)

	snap := game.Match{Players: []*game.Player{
		{ID: "s1", Team: game.TeamLeft},
		{ID: "s2", Team: game.TeamRight},
		{ID: "gone", Team: game.TeamRight},
	}}

	ids := h.sessionUserIDs(snap)
	assert.Equal(t, 42, ids["s1"])
	assert.Equal(t, 0, ids["s2"], "unauthenticated session maps to 0")
	assert.Equal(t, 0, ids["gone"], "disconnected session maps to 0")
}

func TestBindUserVisibleThroughAccessor(t *testing.T) {
	h := NewHub()
	c := addClient(h, "s1", 0, 1)

	h.bindUser(c, 7)

	assert.Equal(t, 7, h.clientUserID(c))
}

func TestRoomBindingSafeForConcurrentReads(t *testing.T) {
	h := NewHub()
	c := addClient(h, "s1", 0, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			h.joinRoom(c, "game_a")
			h.leaveRoom(c)
			h.bindUser(c, i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = h.clientMatchID(c)
			_ = h.clientUserID(c)
		}
	}()
	wg.Wait()
}

func TestSendToSessionUnknownIsNoop(t *testing.T) {
	h := NewHub()
	// Only asserts this does not panic or block.
	h.SendToSession("missing", map[string]interface{}{"type": "pong"})
}

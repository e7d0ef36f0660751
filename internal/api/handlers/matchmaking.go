package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/game"
)

// JoinMatchmaking enqueues the authenticated user for automatic pairing
func JoinMatchmaking(c *gin.Context) {
	userID := currentUserID(c)

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	if _, ok := game.Registry.MatchIDForSession(req.SessionID); ok {
		c.JSON(http.StatusConflict, gin.H{"error": "session already in a game"})
		return
	}

	matchID := game.Queue.Enqueue(req.SessionID, userID)
	status := game.Queue.Status(userID)

	resp := gin.H{"status": status}
	if matchID != "" {
		resp["game_id"] = matchID
	}
	c.JSON(http.StatusOK, resp)
}

// MatchmakingStatus reports the authenticated user's queue position
func MatchmakingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, game.Queue.Status(currentUserID(c)))
}

// LeaveMatchmaking removes the authenticated user from the queue
func LeaveMatchmaking(c *gin.Context) {
	game.Queue.Dequeue(currentUserID(c))
	c.JSON(http.StatusOK, gin.H{"left": true})
}

// ListMultiteamGames returns joinable multiteam lobbies
func ListMultiteamGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": game.Registry.ListMultiteam()})
}

// JoinOrCreateMultiteam admits a session into a waiting multiteam lobby,
// creating one when none is open
func JoinOrCreateMultiteam(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	matchID, ok := game.Registry.FindWaitingMatch(true)
	if !ok {
		matchID = game.Registry.CreateMatch(true)
	}

	if !game.Registry.Admit(matchID, req.SessionID) {
		c.JSON(http.StatusConflict, gin.H{"error": "unable to join game"})
		return
	}

	snap, _ := game.Registry.Snapshot(matchID)
	c.JSON(http.StatusOK, gin.H{
		"game_id": matchID,
		"state":   snap,
	})
}

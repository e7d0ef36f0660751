package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/game"
)

// ListGames returns summaries of all registered matches
func ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": game.Registry.List()})
}

// GetGame returns the full state of one match
func GetGame(c *gin.Context) {
	snap, ok := game.Registry.Snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// CreateGame registers a new match
func CreateGame(c *gin.Context) {
	var req struct {
		Multiteam bool `json:"multiteam"`
	}
	// Body is optional; an empty body yields a classic match.
	c.ShouldBindJSON(&req)

	matchID := game.Registry.CreateMatch(req.Multiteam)
	snap, _ := game.Registry.Snapshot(matchID)
	c.JSON(http.StatusCreated, gin.H{
		"game_id": matchID,
		"state":   snap,
	})
}

// JoinGame admits a session into a match
func JoinGame(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	matchID := c.Param("id")
	if _, ok := game.Registry.Snapshot(matchID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
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

// LeaveGame removes a session from a match
func LeaveGame(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	if !game.Registry.Remove(c.Param("id"), req.SessionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not in game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

// MovePaddle applies paddle input for a session
func MovePaddle(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
		Direction string `json:"direction"`
	}
	if err := c.BindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and direction required"})
		return
	}

	var dir game.Direction
	switch req.Direction {
	case "up":
		dir = game.DirectionUp
	case "down":
		dir = game.DirectionDown
	case "stop":
		dir = game.DirectionStop
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be up, down, or stop"})
		return
	}

	game.Registry.ApplyInput(req.SessionID, dir)
	c.JSON(http.StatusOK, gin.H{"applied": true})
}

// StartGame requests the start of a multiteam lobby
func StartGame(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	if !game.Registry.RequestStart(c.Param("id"), req.SessionID) {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot start game"})
		return
	}

	snap, _ := game.Registry.Snapshot(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"game_id": c.Param("id"),
		"state":   snap,
	})
}

// UpdateGameSettings reconfigures a waiting match
func UpdateGameSettings(c *gin.Context) {
	var req struct {
		Difficulty string `json:"difficulty"`
		MaxScore   int    `json:"max_score"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings"})
		return
	}

	settings := game.Settings{MaxScore: req.MaxScore}
	if req.Difficulty != "" {
		d := game.Difficulty(req.Difficulty)
		if !d.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be easy, normal, or hard"})
			return
		}
		settings.Difficulty = d
	}
	if req.MaxScore < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_score must be positive"})
		return
	}

	if !game.Registry.UpdateSettings(c.Param("id"), settings) {
		c.JSON(http.StatusConflict, gin.H{"error": "settings can only change while waiting"})
		return
	}

	snap, _ := game.Registry.Snapshot(c.Param("id"))
	c.JSON(http.StatusOK, snap)
}

// SpectateGame returns a read-only snapshot of a match
func SpectateGame(c *gin.Context) {
	snap, ok := game.Registry.Snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game_id":   snap.ID,
		"state":     snap,
		"spectator": true,
	})
}

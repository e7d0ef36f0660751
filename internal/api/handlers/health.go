package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/game"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"service":      "pongarena-api",
		"version":      version,
		"uptime":       time.Since(startTime).String(),
		"active_games": game.Registry.ActiveMatchCount(),
	})
}

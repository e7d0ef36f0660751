package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/presence"
)

// OnlineUsers lists users who are currently online or in a game
func OnlineUsers(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := presence.OnlineUsers(db)
		if err != nil {
			log.Printf("[DB] Failed to list online users: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

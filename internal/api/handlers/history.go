package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/records"
)

// GetHistory returns the authenticated user's recent matches
func GetHistory(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

		history, err := records.GetHistory(db, currentUserID(c), limit)
		if err != nil {
			log.Printf("[DB] Failed to load history: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	}
}

// GetStats returns the authenticated user's win/loss aggregates
func GetStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := records.GetUserStats(db, currentUserID(c))
		if err != nil {
			log.Printf("[DB] Failed to load stats: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// GetLeaderboard returns the top users ranked by wins
func GetLeaderboard(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

		leaderboard, err := records.GetLeaderboard(db, limit)
		if err != nil {
			log.Printf("[DB] Failed to load leaderboard: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": leaderboard})
	}
}

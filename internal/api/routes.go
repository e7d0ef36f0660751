package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/api/handlers"
	"github.com/pongarena/backend/internal/config"
	"github.com/pongarena/backend/internal/middleware"
	"github.com/pongarena/backend/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Auth endpoints
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handlers.Register(db, cfg))
			authGroup.POST("/login", handlers.Login(db, cfg))
		}

		// Game endpoints
		games := v1.Group("/games")
		{
			games.GET("", handlers.ListGames)
			games.GET("/:id", handlers.GetGame)
			games.POST("", handlers.AuthMiddleware(cfg), handlers.CreateGame)
			games.POST("/:id/join", handlers.JoinGame)
			games.POST("/:id/leave", handlers.LeaveGame)
			games.POST("/:id/paddle", handlers.MovePaddle)
			games.POST("/:id/start", handlers.StartGame)
			games.PATCH("/:id/settings", handlers.UpdateGameSettings)
			games.POST("/:id/spectate", handlers.SpectateGame)
		}

		// Matchmaking endpoints
		matchmaking := v1.Group("/matchmaking", handlers.AuthMiddleware(cfg))
		{
			matchmaking.POST("", handlers.JoinMatchmaking)
			matchmaking.GET("/status", handlers.MatchmakingStatus)
			matchmaking.DELETE("", handlers.LeaveMatchmaking)
		}

		// Multiteam lobbies
		multiteam := v1.Group("/multiteam")
		{
			multiteam.GET("", handlers.ListMultiteamGames)
			multiteam.POST("", handlers.AuthMiddleware(cfg), handlers.JoinOrCreateMultiteam)
		}

		// User data endpoints
		v1.GET("/history", handlers.AuthMiddleware(cfg), handlers.GetHistory(db))
		v1.GET("/stats", handlers.AuthMiddleware(cfg), handlers.GetStats(db))
		v1.GET("/leaderboard", handlers.GetLeaderboard(db))
		v1.GET("/status/users", handlers.OnlineUsers(db))
	}

	// WebSocket endpoint
	router.GET("/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket)
}

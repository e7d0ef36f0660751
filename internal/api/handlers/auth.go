package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/auth"
	"github.com/pongarena/backend/internal/config"
)

// Register creates a new user account
func Register(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			Password    string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.DisplayName = strings.TrimSpace(req.DisplayName)
		if req.Username == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}
		if len(req.Password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
			return
		}
		if req.DisplayName == "" {
			req.DisplayName = req.Username
		}

		if existing, err := auth.GetUserByUsername(db, req.Username); err == nil && existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Printf("Failed to hash password: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		user, err := auth.CreateUser(db, req.Username, req.DisplayName, hash)
		if err != nil {
			log.Printf("[DB] Failed to create user %s: %v", req.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		token, err := auth.IssueToken(cfg.JWTSecret, user.ID, time.Duration(cfg.TokenExpiryHours)*time.Hour)
		if err != nil {
			log.Printf("Failed to issue token for user %d: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// Login verifies credentials and issues a JWT
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		user, err := auth.GetUserByUsername(db, strings.TrimSpace(req.Username))
		if err != nil {
			if auth.ErrNoUser(err) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			log.Printf("[DB] Failed to load user %s: %v", req.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if !auth.VerifyPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := auth.IssueToken(cfg.JWTSecret, user.ID, time.Duration(cfg.TokenExpiryHours)*time.Hour)
		if err != nil {
			log.Printf("Failed to issue token for user %d: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		auth.TouchLastLogin(db, user.ID)

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// AuthMiddleware validates the bearer token and stores the user id on the
// request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		userID, err := auth.ParseToken(cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// currentUserID reads the authenticated user id set by AuthMiddleware.
func currentUserID(c *gin.Context) int {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const statusTTL = 24 * time.Hour

// SetStatus records a user's connection state (online, offline, in_game).
// Postgres is the source of truth; a Redis mirror with a TTL serves quick
// lookups. Both writes are best-effort.
func SetStatus(db *sqlx.DB, rdb *redis.Client, userID int, status string) {
	if db != nil {
		_, err := db.Exec(`UPDATE users SET status = $1 WHERE id = $2`, status, userID)
		if err != nil {
			log.Printf("[DB] Failed to update status for user %d: %v", userID, err)
		}
	}

	if rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		key := fmt.Sprintf("user:%d:status", userID)
		if err := rdb.Set(ctx, key, status, statusTTL).Err(); err != nil {
			log.Printf("[REDIS] Failed to set status for user %d: %v", userID, err)
		}
	}
}

// TouchLastSeen refreshes the user's last_login timestamp.
func TouchLastSeen(db *sqlx.DB, userID int) {
	if db == nil {
		return
	}
	if _, err := db.Exec(`UPDATE users SET last_login = NOW() WHERE id = $1`, userID); err != nil {
		log.Printf("[DB] Failed to update last_login for user %d: %v", userID, err)
	}
}

// OnlineUsers lists users whose status is not offline.
func OnlineUsers(db *sqlx.DB) ([]models.User, error) {
	var users []models.User
	err := db.Select(&users, `
		SELECT id, username, display_name, status, created_at, last_login
		FROM users
		WHERE status != 'offline'
		ORDER BY display_name
	`)
	return users, err
}

// Status returns a user's current status, preferring the Redis mirror and
// falling back to Postgres.
func Status(ctx context.Context, db *sqlx.DB, rdb *redis.Client, userID int) (string, error) {
	if rdb != nil {
		key := fmt.Sprintf("user:%d:status", userID)
		val, err := rdb.Get(ctx, key).Result()
		if err == nil {
			return val, nil
		}
		if err != redis.Nil {
			log.Printf("[REDIS] Failed to read status for user %d: %v", userID, err)
		}
	}

	var status string
	if err := db.Get(&status, `SELECT status FROM users WHERE id = $1`, userID); err != nil {
		return "", err
	}
	return status, nil
}

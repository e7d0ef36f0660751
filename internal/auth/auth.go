package auth

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password for storage
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks a plaintext password against the stored hash
func VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// IssueToken signs an HS256 JWT binding the user id
func IssueToken(secret string, userID int, expiry time.Duration) (string, error) {
	exp := time.Now().Add(expiry)
	claims := jwt.MapClaims{"user_id": userID, "exp": exp.Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a JWT and returns the bound user id
func ParseToken(secret, token string) (int, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	if !parsed.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid claims")
	}
	userIDf, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("missing user_id claim")
	}
	return int(userIDf), nil
}

// GetUserByUsername fetches a user by username
func GetUserByUsername(db *sqlx.DB, username string) (*models.User, error) {
	var user models.User
	err := db.Get(&user, `SELECT id, username, display_name, password_hash, status, created_at, last_login FROM users WHERE username=$1`, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID fetches a user by id
func GetUserByID(db *sqlx.DB, id int) (*models.User, error) {
	var user models.User
	err := db.Get(&user, `SELECT id, username, display_name, password_hash, status, created_at, last_login FROM users WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new account and returns it
func CreateUser(db *sqlx.DB, username, displayName, passwordHash string) (*models.User, error) {
	var id int
	err := db.QueryRowx(`
		INSERT INTO users (username, display_name, password_hash, status, created_at)
		VALUES ($1, $2, $3, 'offline', NOW())
		RETURNING id
	`, username, displayName, passwordHash).Scan(&id)
	if err != nil {
		return nil, err
	}
	return GetUserByID(db, id)
}

// TouchLastLogin stamps a successful login (best-effort)
func TouchLastLogin(db *sqlx.DB, userID int) {
	if _, err := db.Exec(`UPDATE users SET last_login=NOW() WHERE id=$1`, userID); err != nil {
		log.Printf("[DB] Failed to update last_login for user %d: %v", userID, err)
	}
}

// ErrNoUser reports whether an error is the no-rows sentinel
func ErrNoUser(err error) bool {
	return err == sql.ErrNoRows
}

package models

import (
	"database/sql"
	"time"
)

// User represents an authenticated account
type User struct {
	ID           int          `db:"id" json:"id"`
	Username     string       `db:"username" json:"username"`
	DisplayName  string       `db:"display_name" json:"display_name"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Status       string       `db:"status" json:"status"` // online | offline | in_game
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	LastLogin    sql.NullTime `db:"last_login" json:"last_login,omitempty"`
}

// GameRecord is a persisted finished match between two authenticated users
type GameRecord struct {
	ID           int       `db:"id" json:"id"`
	MatchID      string    `db:"match_id" json:"match_id"`
	Player1ID    int       `db:"player1_id" json:"player1_id"`
	Player2ID    int       `db:"player2_id" json:"player2_id"`
	Player1Score int       `db:"player1_score" json:"player1_score"`
	Player2Score int       `db:"player2_score" json:"player2_score"`
	WinnerID     int       `db:"winner_id" json:"winner_id"`
	GameDate     time.Time `db:"game_date" json:"game_date"`
}

// UserStats aggregates a user's match history
type UserStats struct {
	TotalGames int `db:"total_games" json:"total_games"`
	Wins       int `db:"wins" json:"wins"`
	Losses     int `db:"losses" json:"losses"`
}

// LeaderboardEntry is one row of the global leaderboard
type LeaderboardEntry struct {
	UserID      int    `db:"user_id" json:"user_id"`
	DisplayName string `db:"display_name" json:"display_name"`
	Wins        int    `db:"wins" json:"wins"`
	Losses      int    `db:"losses" json:"losses"`
	TotalGames  int    `db:"total_games" json:"total_games"`
}

// HistoryEntry is one row of a user's recent-matches listing
type HistoryEntry struct {
	ID           int       `db:"id" json:"id"`
	MatchID      string    `db:"match_id" json:"match_id"`
	GameDate     time.Time `db:"game_date" json:"game_date"`
	Player1Score int       `db:"player1_score" json:"player1_score"`
	Player2Score int       `db:"player2_score" json:"player2_score"`
	Player1Name  string    `db:"player1_name" json:"player1_name"`
	Player2Name  string    `db:"player2_name" json:"player2_name"`
	WinnerName   string    `db:"winner_name" json:"winner_name"`
}

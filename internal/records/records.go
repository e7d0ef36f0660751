package records

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/pongarena/backend/internal/models"
)

// SaveGameRecord persists a finished 1v1 match between two authenticated
// users. Writes are fire-and-forget: failures are logged and never surface
// to the simulation.
func SaveGameRecord(db *sqlx.DB, matchID string, player1ID, player2ID, score1, score2, winnerID int) {
	if db == nil {
		return
	}

	_, err := db.Exec(`
		INSERT INTO game_records (match_id, player1_id, player2_id, player1_score, player2_score, winner_id, game_date)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, matchID, player1ID, player2ID, score1, score2, winnerID)
	if err != nil {
		log.Printf("[DB] Failed to save game record for match %s: %v", matchID, err)
		return
	}

	log.Printf("[DB] Game record saved: %d vs %d (%d-%d), winner: %d", player1ID, player2ID, score1, score2, winnerID)
}

// GetHistory returns a user's most recent finished matches with display
// names resolved.
func GetHistory(db *sqlx.DB, userID, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var history []models.HistoryEntry
	err := db.Select(&history, `
		SELECT
			g.id,
			g.match_id,
			g.game_date,
			g.player1_score,
			g.player2_score,
			u1.display_name AS player1_name,
			u2.display_name AS player2_name,
			CASE WHEN g.winner_id = u1.id THEN u1.display_name ELSE u2.display_name END AS winner_name
		FROM game_records g
		JOIN users u1 ON g.player1_id = u1.id
		JOIN users u2 ON g.player2_id = u2.id
		WHERE g.player1_id = $1 OR g.player2_id = $1
		ORDER BY g.game_date DESC
		LIMIT $2
	`, userID, limit)
	return history, err
}

// GetUserStats aggregates wins and losses for one user.
func GetUserStats(db *sqlx.DB, userID int) (*models.UserStats, error) {
	var stats models.UserStats
	err := db.Get(&stats, `
		SELECT
			COUNT(*) AS total_games,
			COUNT(*) FILTER (WHERE winner_id = $1) AS wins,
			COUNT(*) FILTER (WHERE winner_id != $1) AS losses
		FROM game_records
		WHERE player1_id = $1 OR player2_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetLeaderboard returns the top users ranked by wins.
func GetLeaderboard(db *sqlx.DB, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var leaderboard []models.LeaderboardEntry
	err := db.Select(&leaderboard, `
		SELECT
			u.id AS user_id,
			u.display_name,
			COUNT(g.id) FILTER (WHERE g.winner_id = u.id) AS wins,
			COUNT(g.id) FILTER (WHERE g.winner_id IS NOT NULL AND g.winner_id != u.id) AS losses,
			COUNT(g.id) AS total_games
		FROM users u
		LEFT JOIN game_records g ON g.player1_id = u.id OR g.player2_id = u.id
		GROUP BY u.id, u.display_name
		ORDER BY wins DESC
		LIMIT $1
	`, limit)
	return leaderboard, err
}

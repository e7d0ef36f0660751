package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pongarena/backend/internal/game"
	"github.com/pongarena/backend/internal/records"
)

const finalSnapshotTTL = time.Hour

// OnMatchFinished handles matches the tick loop ended at their score limit.
// Wired as the registry's finished callback.
func OnMatchFinished(matchID string) {
	snap, ok := game.Registry.Snapshot(matchID)
	if !ok {
		return
	}
	finishMatch(GameHub, matchID, snap, snap.WinningSide(), GameHub.sessionUserIDs(snap))
}

// StartBroadcaster streams playing-match snapshots to their rooms at the
// given cadence and finalizes matches whose score limit was reached.
func StartBroadcaster(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("[BROADCAST] Broadcaster started (interval %v)", interval)

		for range ticker.C {
			for _, snap := range game.Registry.PlayingSnapshots() {
				GameHub.BroadcastToMatch(snap.ID, map[string]interface{}{
					"type":    "game_state",
					"game_id": snap.ID,
					"state":   snap,
				})

				// The tick loop flips status on its own; this re-check covers
				// a snapshot taken between the winning point and the flip.
				if snap.ScoreReached() {
					if game.Registry.MarkFinished(snap.ID) {
						winner := snap.WinningSide()
						log.Printf("[BROADCAST] Match %s finished, winner: %s", snap.ID, winner)
						finishMatch(GameHub, snap.ID, snap, winner, GameHub.sessionUserIDs(snap))
					}
				}
			}
		}
	}()
}

// finishMatch announces the result, records it for classic 1v1 matches
// between authenticated users, and snapshots the final state to Redis.
func finishMatch(h *Hub, matchID string, snap game.Match, winner game.TeamSide, userIDs map[string]int) {
	h.BroadcastToMatch(matchID, map[string]interface{}{
		"type":        "game_over",
		"game_id":     matchID,
		"winner":      winner,
		"left_score":  snap.Teams.Left.Score,
		"right_score": snap.Teams.Right.Score,
	})

	saveRecordIfRanked(matchID, snap, winner, userIDs)
	saveFinalSnapshot(matchID, snap)
}

// saveRecordIfRanked persists the result when the match was a classic 1v1
// between two authenticated users.
func saveRecordIfRanked(matchID string, snap game.Match, winner game.TeamSide, userIDs map[string]int) {
	if snap.Multiteam || len(snap.Players) != 2 {
		return
	}

	var leftPlayer, rightPlayer *game.Player
	for _, p := range snap.Players {
		if p.Team == game.TeamLeft {
			leftPlayer = p
		} else {
			rightPlayer = p
		}
	}
	if leftPlayer == nil || rightPlayer == nil {
		return
	}

	leftUser := userIDs[leftPlayer.ID]
	rightUser := userIDs[rightPlayer.ID]
	if leftUser == 0 || rightUser == 0 {
		return
	}

	winnerID := leftUser
	if winner == game.TeamRight {
		winnerID = rightUser
	}

	go records.SaveGameRecord(dbClient, matchID, leftUser, rightUser,
		snap.Teams.Left.Score, snap.Teams.Right.Score, winnerID)
}

// saveFinalSnapshot writes the terminal match state to Redis with a TTL so
// late readers can still fetch the result.
func saveFinalSnapshot(matchID string, snap game.Match) {
	if rdbClient == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal final state for match %s: %v", matchID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("match:%s:final", matchID)
	if err := rdbClient.Set(ctx, key, data, finalSnapshotTTL).Err(); err != nil {
		log.Printf("[REDIS] Failed to save final state for match %s: %v", matchID, err)
	}
}

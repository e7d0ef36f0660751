package game

import (
	"fmt"
	"time"
)

// Ball is the single moving object in a match. Velocity is the stored base
// velocity; SpeedMultiplier is applied at read time and never baked in.
type Ball struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	VelocityX       float64 `json:"velocity_x"`
	VelocityY       float64 `json:"velocity_y"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
}

// Player is one paddle, owned by exactly one match and keyed by the
// connecting session's identifier.
type Player struct {
	ID           string   `json:"id"`
	Team         TeamSide `json:"team"`
	Position     float64  `json:"position"`
	PaddleIndex  int      `json:"paddle_index"`
	PaddleHeight float64  `json:"paddle_height"`
	PaddleColor  string   `json:"paddle_color"`

	// Score mirrors the owning team's score. Kept per player for
	// backward-compatible display; the team aggregate is authoritative.
	Score int `json:"score"`
}

// TeamStats aggregates one side of the field.
type TeamStats struct {
	Score       int `json:"score"`
	PlayerCount int `json:"player_count"`
	PaddleCount int `json:"paddle_count"`
}

// Teams holds both side aggregates.
type Teams struct {
	Left  TeamStats `json:"left"`
	Right TeamStats `json:"right"`
}

// Match is the full authoritative state of one game instance. It carries no
// behavior of its own beyond being mutated by the registry and the physics
// step; all access is via the owning Registry.
type Match struct {
	ID             string      `json:"id"`
	Status         MatchStatus `json:"status"`
	Width          float64     `json:"width"`
	Height         float64     `json:"height"`
	Players        []*Player   `json:"players"`
	Teams          Teams       `json:"teams"`
	Ball           Ball        `json:"ball"`
	Locked         bool        `json:"locked"`
	StartRequested bool        `json:"start_requested"`
	Multiteam      bool        `json:"multiteam"`
	Difficulty     Difficulty  `json:"difficulty"`
	MaxScore       int         `json:"max_score"`

	GameStartTime time.Time `json:"game_start_time"`
	LastUpdate    time.Time `json:"last_update"`
}

// NewMatch creates an empty waiting match with default dimensions and
// difficulty. The ball starts centered, moving down-right at the
// difficulty's base speed.
func NewMatch(id string, multiteam bool) *Match {
	difficulty := DifficultyNormal
	v := BaseVelocity * difficulty.SpeedMultiplier()

	return &Match{
		ID:     id,
		Status: StatusWaiting,
		Width:  FieldWidth,
		Height: FieldHeight,
		Ball: Ball{
			X:               FieldWidth / 2,
			Y:               FieldHeight / 2,
			VelocityX:       v,
			VelocityY:       v,
			SpeedMultiplier: 1.0,
		},
		Multiteam:  multiteam,
		Difficulty: difficulty,
		MaxScore:   DefaultMaxScore,
		LastUpdate: time.Now(),
	}
}

// TeamsReady reports whether both sides have at least one player. It gates
// both match start and the playing -> waiting reversion on departure.
func (m *Match) TeamsReady() bool {
	return m.Teams.Left.PlayerCount > 0 && m.Teams.Right.PlayerCount > 0
}

// PlayerByID returns the player for a session id, or nil.
func (m *Match) PlayerByID(sessionID string) *Player {
	for _, p := range m.Players {
		if p.ID == sessionID {
			return p
		}
	}
	return nil
}

// TeamPlayers returns the players on one side in join order.
func (m *Match) TeamPlayers(side TeamSide) []*Player {
	var players []*Player
	for _, p := range m.Players {
		if p.Team == side {
			players = append(players, p)
		}
	}
	return players
}

// WinningSide returns the side with the higher team score. Ties go to the
// left side, matching the display order used by clients.
func (m *Match) WinningSide() TeamSide {
	if m.Teams.Right.Score > m.Teams.Left.Score {
		return TeamRight
	}
	return TeamLeft
}

// ScoreReached reports whether either team has hit the win threshold.
func (m *Match) ScoreReached() bool {
	return m.Teams.Left.Score >= m.MaxScore || m.Teams.Right.Score >= m.MaxScore
}

// paddleColor derives a per-paddle color from the team base color. Each
// paddle on a side gets a slightly brighter shade so stacked paddles stay
// distinguishable.
func paddleColor(side TeamSide, paddleIndex int) string {
	r, g, b := 100, 100, 255
	if side == TeamRight {
		r, g, b = 255, 100, 100
	}
	shift := paddleIndex * 20
	return fmt.Sprintf("rgb(%d, %d, %d)", clampChannel(r+shift), clampChannel(g+shift), clampChannel(b+shift))
}

func clampChannel(v int) int {
	if v > 255 {
		return 255
	}
	return v
}

// MatchSummary is the reduced view served by the match-listing endpoints.
type MatchSummary struct {
	ID           string      `json:"id"`
	PlayersCount int         `json:"players_count"`
	Status       MatchStatus `json:"status"`
	Scores       []int       `json:"scores"`
	Multiteam    bool        `json:"multiteam"`
	TeamPlayers  map[string]int `json:"team_players"`
}

// Summary builds the listing view of a match.
func (m *Match) Summary() MatchSummary {
	scores := make([]int, 0, len(m.Players))
	for _, p := range m.Players {
		scores = append(scores, p.Score)
	}
	return MatchSummary{
		ID:           m.ID,
		PlayersCount: len(m.Players),
		Status:       m.Status,
		Scores:       scores,
		Multiteam:    m.Multiteam,
		TeamPlayers: map[string]int{
			string(TeamLeft):  m.Teams.Left.PlayerCount,
			string(TeamRight): m.Teams.Right.PlayerCount,
		},
	}
}

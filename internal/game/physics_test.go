package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newPlayingMatch builds a classic 1v1 match in the playing state with both
// paddles centered, the shape Admit produces once both seats fill.
func newPlayingMatch() *Match {
	m := NewMatch("game_test", false)
	center := (FieldHeight - DefaultPaddleHeight) / 2
	m.Players = []*Player{
		{ID: "s1", Team: TeamLeft, Position: center, PaddleHeight: DefaultPaddleHeight},
		{ID: "s2", Team: TeamRight, Position: center, PaddleHeight: DefaultPaddleHeight},
	}
	m.Teams.Left = TeamStats{PlayerCount: 1, PaddleCount: 1}
	m.Teams.Right = TeamStats{PlayerCount: 1, PaddleCount: 1}
	m.Status = StatusPlaying
	m.Locked = true
	m.GameStartTime = time.Now()
	return m
}

func TestAdvanceIgnoresWaitingMatch(t *testing.T) {
	m := NewMatch("game_waiting", false)
	x, y := m.Ball.X, m.Ball.Y

	m.Advance(time.Now())

	assert.Equal(t, x, m.Ball.X)
	assert.Equal(t, y, m.Ball.Y)
	assert.Equal(t, StatusWaiting, m.Status)
}

func TestAdvanceIgnoresSinglePlayer(t *testing.T) {
	m := newPlayingMatch()
	m.Players = m.Players[:1]
	x := m.Ball.X

	m.Advance(time.Now())

	assert.Equal(t, x, m.Ball.X)
}

func TestAdvanceMovesBall(t *testing.T) {
	m := newPlayingMatch()
	base := BaseVelocity * m.Difficulty.SpeedMultiplier()

	m.Advance(m.GameStartTime)

	assert.InDelta(t, FieldWidth/2+base, m.Ball.X, 1e-9)
	assert.InDelta(t, FieldHeight/2+base, m.Ball.Y, 1e-9)
	assert.InDelta(t, 1.0, m.Ball.SpeedMultiplier, 1e-9)
}

func TestWallReflection(t *testing.T) {
	m := newPlayingMatch()
	m.Ball.Y = 2
	m.Ball.VelocityY = -3.9

	m.Advance(m.GameStartTime)

	assert.True(t, m.Ball.VelocityY > 0, "velocity should flip downward after hitting the top wall")
}

func TestLeftPaddleReflectsBall(t *testing.T) {
	m := newPlayingMatch()
	m.Ball.X = PaddleWidth + BallRadius + 2
	m.Ball.Y = FieldHeight / 2
	m.Ball.VelocityX = -3.9
	m.Ball.VelocityY = 0

	m.Advance(m.GameStartTime)

	assert.InDelta(t, PaddleWidth+BallRadius, m.Ball.X, 1e-9)
	assert.True(t, m.Ball.VelocityX > 0, "velocity should flip rightward off the left paddle")
}

func TestRightPaddleReflectsBall(t *testing.T) {
	m := newPlayingMatch()
	m.Ball.X = FieldWidth - PaddleWidth - BallRadius - 2
	m.Ball.Y = FieldHeight / 2
	m.Ball.VelocityX = 3.9
	m.Ball.VelocityY = 0

	m.Advance(m.GameStartTime)

	assert.InDelta(t, FieldWidth-PaddleWidth-BallRadius, m.Ball.X, 1e-9)
	assert.True(t, m.Ball.VelocityX < 0, "velocity should flip leftward off the right paddle")
}

func TestMissedBallScoresOpposingTeam(t *testing.T) {
	m := newPlayingMatch()
	// Park the left paddle at the top so it cannot intercept.
	m.Players[0].Position = 0
	m.Ball.X = 2
	m.Ball.Y = FieldHeight / 2
	m.Ball.VelocityX = -3.9
	m.Ball.VelocityY = 0

	m.Advance(m.GameStartTime)

	assert.Equal(t, 1, m.Teams.Right.Score)
	assert.Equal(t, 0, m.Teams.Left.Score)
	assert.Equal(t, 1, m.Players[1].Score, "team score should mirror onto the scoring player")
	assert.Equal(t, 0, m.Players[0].Score)
	assert.InDelta(t, FieldWidth/2, m.Ball.X, 1e-9, "ball should re-serve from center")
	assert.InDelta(t, FieldHeight/2, m.Ball.Y, 1e-9)
}

func TestSpeedRampGrowsWithMatchAge(t *testing.T) {
	m := newPlayingMatch()
	now := m.GameStartTime.Add(10 * time.Second)

	m.Advance(now)

	assert.InDelta(t, 1.4, m.Ball.SpeedMultiplier, 1e-6)
}

func TestSpeedRampIsCapped(t *testing.T) {
	m := newPlayingMatch()
	now := m.GameStartTime.Add(10 * time.Minute)

	m.Advance(now)

	assert.InDelta(t, MaxSpeedMultiplier, m.Ball.SpeedMultiplier, 1e-9)
}

func TestScoringKeepsSpeedMultiplier(t *testing.T) {
	m := newPlayingMatch()
	m.Players[0].Position = 0
	m.Ball.X = 2
	m.Ball.Y = FieldHeight / 2
	m.Ball.VelocityX = -3.9
	m.Ball.VelocityY = 0
	now := m.GameStartTime.Add(20 * time.Second)

	m.Advance(now)

	assert.Equal(t, 1, m.Teams.Right.Score)
	assert.InDelta(t, 1.8, m.Ball.SpeedMultiplier, 1e-6, "speed ramp should survive a rally reset")
}

func TestMovePaddleClampsAtEdges(t *testing.T) {
	m := newPlayingMatch()
	p := m.Players[0]

	p.Position = 5
	m.MovePaddle("s1", DirectionUp)
	assert.Equal(t, 0.0, p.Position)
	m.MovePaddle("s1", DirectionUp)
	assert.Equal(t, 0.0, p.Position)

	p.Position = FieldHeight - p.PaddleHeight - 5
	m.MovePaddle("s1", DirectionDown)
	assert.Equal(t, FieldHeight-p.PaddleHeight, p.Position)
	m.MovePaddle("s1", DirectionDown)
	assert.Equal(t, FieldHeight-p.PaddleHeight, p.Position)
}

func TestMovePaddleStepAndStop(t *testing.T) {
	m := newPlayingMatch()
	p := m.Players[1]
	start := p.Position

	m.MovePaddle("s2", DirectionDown)
	assert.Equal(t, start+PaddleStep, p.Position)

	m.MovePaddle("s2", DirectionStop)
	assert.Equal(t, start+PaddleStep, p.Position)

	m.MovePaddle("s2", DirectionUp)
	assert.Equal(t, start, p.Position)
}

func TestMovePaddleUnknownSession(t *testing.T) {
	m := newPlayingMatch()
	start := m.Players[0].Position

	m.MovePaddle("ghost", DirectionDown)

	assert.Equal(t, start, m.Players[0].Position)
}

func TestPaddleColorShades(t *testing.T) {
	assert.Equal(t, "rgb(100, 100, 255)", paddleColor(TeamLeft, 0))
	assert.Equal(t, "rgb(120, 120, 255)", paddleColor(TeamLeft, 1))
	assert.Equal(t, "rgb(255, 100, 100)", paddleColor(TeamRight, 0))
	// Channels saturate rather than wrap.
	assert.Equal(t, "rgb(255, 255, 255)", paddleColor(TeamRight, 10))
}

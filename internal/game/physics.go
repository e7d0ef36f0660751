package game

import (
	"math"
	"math/rand"
	"time"
)

// Advance runs one physics and scoring step. It is a no-op unless the match
// is playing with at least two players. The caller owns the match lock and
// is responsible for checking the win threshold afterwards.
func (m *Match) Advance(now time.Time) {
	m.LastUpdate = now

	if m.Status != StatusPlaying || len(m.Players) < 2 {
		return
	}

	if m.GameStartTime.IsZero() {
		m.GameStartTime = now
	}

	// Elapsed-time speed ramp: +40% per interval, capped. Deliberately not
	// reset on scoring; escalation is a match-duration effect.
	elapsedMs := float64(now.Sub(m.GameStartTime).Milliseconds())
	multiplier := 1.0 + elapsedMs/SpeedIncreaseIntervalMs*SpeedRampFactor
	if multiplier > MaxSpeedMultiplier {
		multiplier = MaxSpeedMultiplier
	}
	m.Ball.SpeedMultiplier = multiplier

	m.Ball.X += m.Ball.VelocityX * multiplier
	m.Ball.Y += m.Ball.VelocityY * multiplier

	// Top and bottom walls
	if m.Ball.Y <= 0 || m.Ball.Y >= m.Height {
		m.Ball.VelocityY = -m.Ball.VelocityY
	}

	// Paddle sweeps are first-match-wins per side: in multiteam mode several
	// paddles share the same horizontal band, and one ball frame must never
	// count against two of them.
	for _, p := range m.Players {
		if p.Team != TeamLeft {
			continue
		}
		if m.Ball.X-BallRadius <= PaddleWidth &&
			m.Ball.Y >= p.Position && m.Ball.Y <= p.Position+p.PaddleHeight {
			m.Ball.X = PaddleWidth + BallRadius
			m.Ball.VelocityX = math.Abs(m.Ball.VelocityX)
			break
		}
	}

	for _, p := range m.Players {
		if p.Team != TeamRight {
			continue
		}
		if m.Ball.X+BallRadius >= m.Width-PaddleWidth &&
			m.Ball.Y >= p.Position && m.Ball.Y <= p.Position+p.PaddleHeight {
			m.Ball.X = m.Width - PaddleWidth - BallRadius
			m.Ball.VelocityX = -math.Abs(m.Ball.VelocityX)
			break
		}
	}

	// Scoring
	if m.Ball.X <= 0 {
		m.awardPoint(TeamRight)
		m.resetBall()
	} else if m.Ball.X >= m.Width {
		m.awardPoint(TeamLeft)
		m.resetBall()
	}
}

// awardPoint increments the scoring team's aggregate and keeps the
// per-player mirrors in sync.
func (m *Match) awardPoint(side TeamSide) {
	if side == TeamLeft {
		m.Teams.Left.Score++
	} else {
		m.Teams.Right.Score++
	}
	for _, p := range m.Players {
		if p.Team == side {
			p.Score++
		}
	}
}

// resetBall re-serves from the field center: a 50/50 serve direction, a
// random vertical component, and the difficulty's base speed. The ramped
// speed multiplier is left alone.
func (m *Match) resetBall() {
	m.Ball.X = m.Width / 2
	m.Ball.Y = m.Height / 2

	direction := 1.0
	if rand.Float64() > 0.5 {
		direction = -1.0
	}

	base := BaseVelocity * m.Difficulty.SpeedMultiplier()
	m.Ball.VelocityX = direction * base
	m.Ball.VelocityY = (rand.Float64()*2 - 1) * base
}

// MovePaddle applies one discrete movement command to a player's paddle and
// clamps the result to the field. Movement is event-driven, not integrated
// over ticks: one command moves the paddle exactly one step.
func (m *Match) MovePaddle(sessionID string, direction Direction) {
	p := m.PlayerByID(sessionID)
	if p == nil {
		return
	}

	switch direction {
	case DirectionUp:
		p.Position = math.Max(0, p.Position-PaddleStep)
	case DirectionDown:
		p.Position = math.Min(m.Height-p.PaddleHeight, p.Position+PaddleStep)
	case DirectionStop:
		// Placeholder for directional state; discrete-step movement has
		// nothing to stop.
	}
}

package game

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"
)

// MatchRegistry is the single authority for match creation, player
// admission and removal, input routing, and per-match tick-loop lifecycle.
// All maps are guarded by mu; each match is only ever mutated with the
// registry lock held, so a match never sees two concurrent writers.
type MatchRegistry struct {
	matches      map[string]*Match // keyed by match ID
	sessionMatch map[string]string // session ID -> match ID
	loops        map[string]chan struct{} // match ID -> tick loop stop signal
	tickInterval time.Duration
	onFinished   FinishedFunc
	mu           sync.RWMutex
}

// FinishedFunc is called after a tick loop ends a match at its score limit.
type FinishedFunc func(matchID string)

// Registry is the process-wide match registry instance.
var Registry *MatchRegistry

// InitializeRegistry creates the global registry with the given physics
// tick interval.
func InitializeRegistry(tickInterval time.Duration) {
	Registry = NewMatchRegistry(tickInterval)
}

// NewMatchRegistry creates an empty registry.
func NewMatchRegistry(tickInterval time.Duration) *MatchRegistry {
	if tickInterval <= 0 {
		tickInterval = time.Second / 60
	}
	return &MatchRegistry{
		matches:      make(map[string]*Match),
		sessionMatch: make(map[string]string),
		loops:        make(map[string]chan struct{}),
		tickInterval: tickInterval,
	}
}

// SetFinishedHandler registers the callback used to announce matches the
// tick loop ended on its own.
func (r *MatchRegistry) SetFinishedHandler(fn FinishedFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFinished = fn
}

// generateToken generates a secure random hex token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// generateMatchID generates a unique match ID
func generateMatchID() string {
	return "game_" + generateToken(8)
}

// CreateMatch allocates a new empty match and returns its id. Multiteam
// matches accept unbounded players per side; classic matches cap at one.
func (r *MatchRegistry) CreateMatch(multiteam bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := generateMatchID()
	r.matches[id] = NewMatch(id, multiteam)
	log.Printf("[REGISTRY] Match created: %s (multiteam=%v)", id, multiteam)
	return id
}

// Admit adds a session to a match. It fails if the match is unknown or
// locked, if a classic match is full, or if the session already belongs to
// a match. On success the player is assigned a team, a centered paddle and
// a per-paddle color, and the match auto-starts once its start condition
// holds.
func (r *MatchRegistry) Admit(matchID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.matches[matchID]
	if !exists {
		return false
	}
	if m.Locked {
		log.Printf("[REGISTRY] Match %s is locked, rejecting session %s", matchID, sessionID)
		return false
	}
	if !m.Multiteam && len(m.Players) >= 2 {
		return false
	}
	if _, inMatch := r.sessionMatch[sessionID]; inMatch {
		return false
	}

	// Team assignment: multiteam alternates by player-count parity, classic
	// seats the first player left and the second right.
	team := TeamLeft
	if m.Multiteam {
		if len(m.Players)%2 != 0 {
			team = TeamRight
		}
	} else if len(m.Players) == 1 {
		team = TeamRight
	}

	if team == TeamLeft {
		m.Teams.Left.PlayerCount++
		m.Teams.Left.PaddleCount++
	} else {
		m.Teams.Right.PlayerCount++
		m.Teams.Right.PaddleCount++
	}

	paddleIndex := len(m.TeamPlayers(team))

	// Every paddle starts vertically centered regardless of teammates.
	// Overlap is allowed: stacked paddles give a side denser coverage.
	m.Players = append(m.Players, &Player{
		ID:           sessionID,
		Team:         team,
		Position:     (m.Height - DefaultPaddleHeight) / 2,
		PaddleIndex:  paddleIndex,
		PaddleHeight: DefaultPaddleHeight,
		PaddleColor:  paddleColor(team, paddleIndex),
	})
	r.sessionMatch[sessionID] = matchID

	log.Printf("[REGISTRY] Session %s joined match %s (team=%s, players=%d)",
		sessionID, matchID, team, len(m.Players))

	// Classic matches start as soon as both seats fill; multiteam lobbies
	// stay open until a start was requested, since readiness holds long
	// before the lobby is done filling.
	if m.Status == StatusWaiting && m.TeamsReady() && (m.StartRequested || !m.Multiteam) {
		r.startLocked(m)
	}

	return true
}

// RequestStart flags a waiting match for start on behalf of one of its
// players. The match starts immediately if both teams are ready, otherwise
// as soon as readiness holds.
func (r *MatchRegistry) RequestStart(matchID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.matches[matchID]
	if !exists {
		return false
	}
	if m.PlayerByID(sessionID) == nil {
		return false
	}
	if m.Status != StatusWaiting {
		return false
	}

	m.StartRequested = true
	if m.TeamsReady() {
		r.startLocked(m)
	}
	return true
}

// startLocked transitions a waiting match to playing and spins up its tick
// loop. Caller holds r.mu.
func (r *MatchRegistry) startLocked(m *Match) {
	m.Status = StatusPlaying
	m.Locked = true
	m.GameStartTime = time.Now()

	// Replace any leftover loop for this id.
	if stop, running := r.loops[m.ID]; running {
		close(stop)
	}
	stop := make(chan struct{})
	r.loops[m.ID] = stop
	go r.runTickLoop(m.ID, stop)

	log.Printf("[REGISTRY] Match %s started (difficulty=%s, max_score=%d)", m.ID, m.Difficulty, m.MaxScore)
}

// runTickLoop advances one match at the fixed physics rate until the match
// finishes or the loop is cancelled. Cancellation is "stop scheduling": the
// stop channel closes and no further ticks fire.
func (r *MatchRegistry) runTickLoop(matchID string, stop chan struct{}) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			m, exists := r.matches[matchID]
			if !exists {
				r.mu.Unlock()
				return
			}

			m.Advance(now)

			if m.Status == StatusPlaying && m.ScoreReached() {
				m.Status = StatusFinished
				delete(r.loops, matchID)
				cb := r.onFinished
				log.Printf("[REGISTRY] Match %s finished %d-%d", matchID, m.Teams.Left.Score, m.Teams.Right.Score)
				r.mu.Unlock()
				if cb != nil {
					go cb(matchID)
				}
				return
			}
			r.mu.Unlock()
		}
	}
}

// stopLoopLocked cancels a match's tick loop if one is running. Caller
// holds r.mu.
func (r *MatchRegistry) stopLoopLocked(matchID string) {
	if stop, running := r.loops[matchID]; running {
		close(stop)
		delete(r.loops, matchID)
	}
}

// Remove takes a session out of a match. Surviving teammates are
// re-indexed and re-spread over the field, an emptied match is destroyed,
// and a playing match whose readiness broke reverts to waiting with its
// tick loop stopped.
func (r *MatchRegistry) Remove(matchID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.matches[matchID]
	if !exists {
		return false
	}

	idx := -1
	for i, p := range m.Players {
		if p.ID == sessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	team := m.Players[idx].Team
	if team == TeamLeft {
		m.Teams.Left.PlayerCount--
		m.Teams.Left.PaddleCount--
	} else {
		m.Teams.Right.PlayerCount--
		m.Teams.Right.PaddleCount--
	}

	m.Players = append(m.Players[:idx], m.Players[idx+1:]...)
	delete(r.sessionMatch, sessionID)

	log.Printf("[REGISTRY] Session %s left match %s (players=%d)", sessionID, matchID, len(m.Players))

	if len(m.Players) == 0 {
		r.removeMatchLocked(matchID)
		return true
	}

	r.respreadTeam(m, TeamLeft)
	r.respreadTeam(m, TeamRight)

	if m.Status == StatusPlaying && !m.TeamsReady() {
		m.Status = StatusWaiting
		r.stopLoopLocked(matchID)
		log.Printf("[REGISTRY] Match %s reverted to waiting (team empty)", matchID)
	}

	return true
}

// respreadTeam re-derives paddle indexes and positions for one side after a
// departure: the first remaining paddle re-centers, the rest spread evenly
// over the usable vertical span.
func (r *MatchRegistry) respreadTeam(m *Match, side TeamSide) {
	players := m.TeamPlayers(side)
	for i, p := range players {
		p.PaddleIndex = i
		usable := m.Height - p.PaddleHeight
		if i == 0 {
			p.Position = usable / 2
		} else {
			p.Position = usable / float64(len(players)+1) * float64(i)
		}
	}
}

// RemoveMatch destroys a match outright: the tick loop stops and every
// session mapping is erased.
func (r *MatchRegistry) RemoveMatch(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeMatchLocked(matchID)
}

func (r *MatchRegistry) removeMatchLocked(matchID string) {
	m, exists := r.matches[matchID]
	if !exists {
		return
	}
	r.stopLoopLocked(matchID)
	for _, p := range m.Players {
		delete(r.sessionMatch, p.ID)
	}
	delete(r.matches, matchID)
	log.Printf("[REGISTRY] Match %s removed", matchID)
}

// ApplyInput routes a directional command to the session's paddle. Unknown
// sessions are ignored; input races with match teardown are expected.
func (r *MatchRegistry) ApplyInput(sessionID string, direction Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matchID, exists := r.sessionMatch[sessionID]
	if !exists {
		return
	}
	m, exists := r.matches[matchID]
	if !exists {
		return
	}
	m.MovePaddle(sessionID, direction)
}

// Settings carries optional match configuration; zero values mean "leave
// unchanged".
type Settings struct {
	Difficulty Difficulty `json:"difficulty,omitempty"`
	MaxScore   int        `json:"max_score,omitempty"`
}

// UpdateSettings reconfigures a waiting match. Changing difficulty rescales
// the current ball velocity to the new base speed while preserving the
// direction of travel.
func (r *MatchRegistry) UpdateSettings(matchID string, settings Settings) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.matches[matchID]
	if !exists || m.Status != StatusWaiting {
		return false
	}

	if settings.Difficulty != "" {
		if !settings.Difficulty.Valid() {
			return false
		}
		m.Difficulty = settings.Difficulty

		base := BaseVelocity * settings.Difficulty.SpeedMultiplier()
		m.Ball.VelocityX = base * sign(m.Ball.VelocityX)
		m.Ball.VelocityY = base * sign(m.Ball.VelocityY)
	}

	if settings.MaxScore > 0 {
		m.MaxScore = settings.MaxScore
	}

	return true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Snapshot returns a deep copy of one match, safe to serialize outside the
// registry lock.
func (r *MatchRegistry) Snapshot(matchID string) (Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.matches[matchID]
	if !exists {
		return Match{}, false
	}
	return snapshotLocked(m), true
}

// SnapshotForSession returns a deep copy of the match a session belongs to.
func (r *MatchRegistry) SnapshotForSession(sessionID string) (Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matchID, exists := r.sessionMatch[sessionID]
	if !exists {
		return Match{}, false
	}
	m, exists := r.matches[matchID]
	if !exists {
		return Match{}, false
	}
	return snapshotLocked(m), true
}

// PlayingSnapshots returns deep copies of every match currently playing,
// for the broadcast sweep.
func (r *MatchRegistry) PlayingSnapshots() []Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var playing []Match
	for _, m := range r.matches {
		if m.Status == StatusPlaying {
			playing = append(playing, snapshotLocked(m))
		}
	}
	return playing
}

func snapshotLocked(m *Match) Match {
	copied := *m
	copied.Players = make([]*Player, len(m.Players))
	for i, p := range m.Players {
		player := *p
		copied.Players[i] = &player
	}
	return copied
}

// MatchIDForSession resolves the match a session currently belongs to.
func (r *MatchRegistry) MatchIDForSession(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, exists := r.sessionMatch[sessionID]
	return id, exists
}

// MarkFinished forces a playing match into the finished state, stopping its
// tick loop. Used by the lifecycle coordinator when it finalizes a match
// outside the tick path (for example on disconnect). Returns false if the
// match was not playing.
func (r *MatchRegistry) MarkFinished(matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.matches[matchID]
	if !exists || m.Status != StatusPlaying {
		return false
	}
	m.Status = StatusFinished
	r.stopLoopLocked(matchID)
	return true
}

// List returns summaries of all matches.
func (r *MatchRegistry) List() []MatchSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]MatchSummary, 0, len(r.matches))
	for _, m := range r.matches {
		summaries = append(summaries, m.Summary())
	}
	return summaries
}

// ListMultiteam returns summaries of multiteam matches only.
func (r *MatchRegistry) ListMultiteam() []MatchSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var summaries []MatchSummary
	for _, m := range r.matches {
		if m.Multiteam {
			summaries = append(summaries, m.Summary())
		}
	}
	return summaries
}

// FindWaitingMatch locates a joinable waiting match of the requested kind:
// a classic match with a free seat, or any waiting multiteam lobby.
func (r *MatchRegistry) FindWaitingMatch(multiteam bool) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, m := range r.matches {
		if m.Status != StatusWaiting || m.Multiteam != multiteam || m.Locked {
			continue
		}
		if !multiteam && len(m.Players) >= 2 {
			continue
		}
		return id, true
	}
	return "", false
}

// ActiveMatchCount returns the number of live matches.
func (r *MatchRegistry) ActiveMatchCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

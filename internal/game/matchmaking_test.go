package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchedEvent struct {
	matchID  string
	sessions []string
}

// testMatchmaker returns a matchmaker whose sweep never fires; pairing in
// tests happens only through the enqueue path.
func testMatchmaker() (*Matchmaker, *MatchRegistry, chan matchedEvent) {
	reg := testRegistry()
	mm := NewMatchmaker(reg, time.Hour)
	events := make(chan matchedEvent, 4)
	mm.SetMatchedHandler(func(matchID string, sessions []string) {
		events <- matchedEvent{matchID: matchID, sessions: sessions}
	})
	return mm, reg, events
}

func waitForMatch(t *testing.T, events chan matchedEvent) matchedEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for matched callback")
		return matchedEvent{}
	}
}

func TestEnqueuePairsTwoUsers(t *testing.T) {
	mm, reg, events := testMatchmaker()

	assert.Equal(t, "", mm.Enqueue("s1", 1), "a lone entry cannot pair")
	assert.Equal(t, 1, mm.Length())

	matchID := mm.Enqueue("s2", 2)
	require.NotEqual(t, "", matchID)
	assert.Equal(t, 0, mm.Length(), "paired entries leave the queue")

	ev := waitForMatch(t, events)
	assert.Equal(t, matchID, ev.matchID)
	assert.Equal(t, []string{"s1", "s2"}, ev.sessions, "sessions notified in queue order")

	snap, ok := reg.Snapshot(matchID)
	require.True(t, ok)
	assert.Equal(t, StatusPlaying, snap.Status, "a paired classic match starts immediately")
	assert.False(t, snap.Multiteam)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, TeamLeft, snap.PlayerByID("s1").Team)
	assert.Equal(t, TeamRight, snap.PlayerByID("s2").Team)
}

func TestEnqueueRebindsSession(t *testing.T) {
	mm, reg, events := testMatchmaker()

	assert.Equal(t, "", mm.Enqueue("old_session", 1))
	assert.Equal(t, "", mm.Enqueue("new_session", 1), "re-enqueue refreshes the binding, not the rank")
	assert.Equal(t, 1, mm.Length())

	matchID := mm.Enqueue("s2", 2)
	require.NotEqual(t, "", matchID)

	ev := waitForMatch(t, events)
	assert.Equal(t, []string{"new_session", "s2"}, ev.sessions)

	_, ok := reg.MatchIDForSession("old_session")
	assert.False(t, ok, "the stale session must not be seated")
}

func TestDequeueRemovesUser(t *testing.T) {
	mm, _, _ := testMatchmaker()

	mm.Enqueue("s1", 1)
	mm.Dequeue(1)

	status := mm.Status(1)
	assert.False(t, status.InQueue)
	assert.Equal(t, 0, status.QueueLength)

	// Dequeue of an absent user is a no-op.
	mm.Dequeue(42)
	assert.Equal(t, 0, mm.Length())
}

func TestStatusReportsRankAndEstimate(t *testing.T) {
	mm, _, _ := testMatchmaker()

	mm.Enqueue("s1", 1)

	status := mm.Status(1)
	assert.True(t, status.InQueue)
	assert.Equal(t, 1, status.Position)
	assert.Equal(t, 0, status.EstimatedWaitSeconds)
	assert.Equal(t, 1, status.QueueLength)

	status = mm.Status(99)
	assert.False(t, status.InQueue)
	assert.Equal(t, 0, status.Position)
	assert.Equal(t, 1, status.QueueLength)
}

func TestPairingSkipsSeatedSession(t *testing.T) {
	mm, reg, _ := testMatchmaker()

	// s1 wanders into another match after queueing.
	assert.Equal(t, "", mm.Enqueue("s1", 1))
	other := reg.CreateMatch(false)
	require.True(t, reg.Admit(other, "s1"))

	matchID := mm.Enqueue("s2", 2)
	assert.Equal(t, "", matchID, "a half-seatable pair is scrapped")

	// The aborted pairing must not leave an orphan match behind.
	assert.Equal(t, 1, reg.ActiveMatchCount())
	_, ok := reg.MatchIDForSession("s2")
	assert.False(t, ok)
}

func TestThirdUserWaitsForNextPair(t *testing.T) {
	mm, _, events := testMatchmaker()

	mm.Enqueue("s1", 1)
	mm.Enqueue("s2", 2)
	waitForMatch(t, events)

	assert.Equal(t, "", mm.Enqueue("s3", 3))
	status := mm.Status(3)
	assert.Equal(t, 1, status.Position, "the leftover entry heads the queue")

	matchID := mm.Enqueue("s4", 4)
	require.NotEqual(t, "", matchID)
	ev := waitForMatch(t, events)
	assert.Equal(t, []string{"s3", "s4"}, ev.sessions)
}

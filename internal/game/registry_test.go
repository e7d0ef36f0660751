package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRegistry returns a registry whose tick loop effectively never fires,
// so tests observe only the state transitions they drive themselves.
func testRegistry() *MatchRegistry {
	return NewMatchRegistry(time.Hour)
}

func TestClassicMatchFillsAndAutoStarts(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)

	require.True(t, reg.Admit(id, "s1"))
	snap, ok := reg.Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, StatusWaiting, snap.Status)
	assert.Equal(t, TeamLeft, snap.Players[0].Team)

	require.True(t, reg.Admit(id, "s2"))
	snap, _ = reg.Snapshot(id)
	assert.Equal(t, StatusPlaying, snap.Status, "classic match should start once both seats fill")
	assert.True(t, snap.Locked)
	assert.Equal(t, TeamRight, snap.Players[1].Team)

	assert.False(t, reg.Admit(id, "s3"), "locked match must reject late joiners")
}

func TestAdmitRejectsSecondMatch(t *testing.T) {
	reg := testRegistry()
	first := reg.CreateMatch(false)
	second := reg.CreateMatch(false)

	require.True(t, reg.Admit(first, "s1"))
	assert.False(t, reg.Admit(second, "s1"), "a session may belong to at most one match")

	matchID, ok := reg.MatchIDForSession("s1")
	require.True(t, ok)
	assert.Equal(t, first, matchID)
}

func TestAdmitUnknownMatch(t *testing.T) {
	reg := testRegistry()
	assert.False(t, reg.Admit("game_missing", "s1"))
}

func TestMultiteamAlternatesTeams(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(true)

	for _, s := range []string{"s1", "s2", "s3", "s4"} {
		require.True(t, reg.Admit(id, s))
	}

	snap, _ := reg.Snapshot(id)
	assert.Equal(t, TeamLeft, snap.Players[0].Team)
	assert.Equal(t, TeamRight, snap.Players[1].Team)
	assert.Equal(t, TeamLeft, snap.Players[2].Team)
	assert.Equal(t, TeamRight, snap.Players[3].Team)
	assert.Equal(t, 2, snap.Teams.Left.PlayerCount)
	assert.Equal(t, 2, snap.Teams.Right.PlayerCount)

	// Second paddle on a side gets the next index and a brighter shade.
	assert.Equal(t, 0, snap.Players[0].PaddleIndex)
	assert.Equal(t, 1, snap.Players[2].PaddleIndex)
	assert.NotEqual(t, snap.Players[0].PaddleColor, snap.Players[2].PaddleColor)
}

func TestMultiteamWaitsForStartRequest(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(true)

	require.True(t, reg.Admit(id, "s1"))
	require.True(t, reg.Admit(id, "s2"))

	snap, _ := reg.Snapshot(id)
	assert.Equal(t, StatusWaiting, snap.Status, "multiteam lobby must not start without a request")

	require.True(t, reg.RequestStart(id, "s1"))
	snap, _ = reg.Snapshot(id)
	assert.Equal(t, StatusPlaying, snap.Status)
}

func TestRequestStartBeforeReadiness(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(true)
	require.True(t, reg.Admit(id, "s1"))

	require.True(t, reg.RequestStart(id, "s1"))
	snap, _ := reg.Snapshot(id)
	assert.Equal(t, StatusWaiting, snap.Status, "one-sided lobby is not ready")

	// Readiness arriving later honors the earlier request.
	require.True(t, reg.Admit(id, "s2"))
	snap, _ = reg.Snapshot(id)
	assert.Equal(t, StatusPlaying, snap.Status)
}

func TestRequestStartRejectsOutsiders(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(true)
	require.True(t, reg.Admit(id, "s1"))

	assert.False(t, reg.RequestStart(id, "stranger"))
	assert.False(t, reg.RequestStart("game_missing", "s1"))
}

func TestRemoveRevertsPlayingToWaiting(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)
	require.True(t, reg.Admit(id, "s1"))
	require.True(t, reg.Admit(id, "s2"))

	require.True(t, reg.Remove(id, "s2"))

	snap, ok := reg.Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, StatusWaiting, snap.Status, "playing match with an empty side reverts to waiting")
	assert.Len(t, snap.Players, 1)
	assert.Equal(t, 0, snap.Teams.Right.PlayerCount)

	_, ok = reg.MatchIDForSession("s2")
	assert.False(t, ok, "departed session mapping must be erased")
}

func TestRemoveLastPlayerDestroysMatch(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)
	require.True(t, reg.Admit(id, "s1"))

	require.True(t, reg.Remove(id, "s1"))

	_, ok := reg.Snapshot(id)
	assert.False(t, ok, "an emptied match is destroyed")
	assert.Equal(t, 0, reg.ActiveMatchCount())
}

func TestRemoveRespreadsSurvivors(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(true)
	for _, s := range []string{"s1", "s2", "s3", "s4"} {
		require.True(t, reg.Admit(id, s))
	}

	// s1 and s3 are the left side; dropping s1 promotes s3 to index 0.
	require.True(t, reg.Remove(id, "s1"))

	snap, _ := reg.Snapshot(id)
	survivor := snap.PlayerByID("s3")
	require.NotNil(t, survivor)
	assert.Equal(t, 0, survivor.PaddleIndex)
	assert.Equal(t, (snap.Height-survivor.PaddleHeight)/2, survivor.Position, "lone survivor re-centers")
}

func TestUpdateSettingsOnlyWhileWaiting(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)

	require.True(t, reg.UpdateSettings(id, Settings{Difficulty: DifficultyHard, MaxScore: 5}))

	snap, _ := reg.Snapshot(id)
	assert.Equal(t, DifficultyHard, snap.Difficulty)
	assert.Equal(t, 5, snap.MaxScore)
	hardBase := BaseVelocity * DifficultyHard.SpeedMultiplier()
	assert.InDelta(t, hardBase, snap.Ball.VelocityX, 1e-9, "velocity rescales to the new base speed")
	assert.InDelta(t, hardBase, snap.Ball.VelocityY, 1e-9)

	require.True(t, reg.Admit(id, "s1"))
	require.True(t, reg.Admit(id, "s2"))
	assert.False(t, reg.UpdateSettings(id, Settings{MaxScore: 3}), "settings are frozen once playing")
}

func TestUpdateSettingsRejectsBadDifficulty(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)
	assert.False(t, reg.UpdateSettings(id, Settings{Difficulty: "nightmare"}))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)
	require.True(t, reg.Admit(id, "s1"))

	snap, _ := reg.Snapshot(id)
	snap.Players[0].Position = -999

	again, _ := reg.Snapshot(id)
	assert.NotEqual(t, -999.0, again.Players[0].Position, "snapshot mutation must not leak into the registry")
}

func TestFindWaitingMatchSkipsFullAndLocked(t *testing.T) {
	reg := testRegistry()

	_, ok := reg.FindWaitingMatch(false)
	assert.False(t, ok)

	full := reg.CreateMatch(false)
	require.True(t, reg.Admit(full, "s1"))
	require.True(t, reg.Admit(full, "s2"))

	_, ok = reg.FindWaitingMatch(false)
	assert.False(t, ok, "a started classic match is not joinable")

	open := reg.CreateMatch(false)
	found, ok := reg.FindWaitingMatch(false)
	require.True(t, ok)
	assert.Equal(t, open, found)

	_, ok = reg.FindWaitingMatch(true)
	assert.False(t, ok, "kind filter must hold")
}

func TestMarkFinishedStopsPlayingMatch(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)
	require.True(t, reg.Admit(id, "s1"))
	require.True(t, reg.Admit(id, "s2"))

	assert.True(t, reg.MarkFinished(id))
	snap, _ := reg.Snapshot(id)
	assert.Equal(t, StatusFinished, snap.Status)

	assert.False(t, reg.MarkFinished(id), "finishing is one-way")
}

func TestApplyInputRoutesToOwnPaddle(t *testing.T) {
	reg := testRegistry()
	id := reg.CreateMatch(false)
	require.True(t, reg.Admit(id, "s1"))
	require.True(t, reg.Admit(id, "s2"))

	before, _ := reg.Snapshot(id)
	reg.ApplyInput("s1", DirectionDown)
	reg.ApplyInput("ghost", DirectionDown) // silent no-op

	after, _ := reg.Snapshot(id)
	assert.Equal(t, before.PlayerByID("s1").Position+PaddleStep, after.PlayerByID("s1").Position)
	assert.Equal(t, before.PlayerByID("s2").Position, after.PlayerByID("s2").Position)
}

func TestListAndSummaries(t *testing.T) {
	reg := testRegistry()
	classic := reg.CreateMatch(false)
	multi := reg.CreateMatch(true)
	require.True(t, reg.Admit(classic, "s1"))

	list := reg.List()
	assert.Len(t, list, 2)

	multis := reg.ListMultiteam()
	require.Len(t, multis, 1)
	assert.Equal(t, multi, multis[0].ID)
	assert.True(t, multis[0].Multiteam)
}

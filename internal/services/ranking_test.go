package services

import (
	"context"
	"testing"
	"time"

	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passedSubmission(userID, challengeID, score int, at time.Time) types.Submission {
	return types.Submission{
		UserID:      userID,
		ChallengeID: challengeID,
		Status:      types.StatusPassed,
		Score:       score,
		SubmittedAt: at,
	}
}

func TestRankingOrderAndTieBreaks(t *testing.T) {
	engine := NewRankingEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	engine.Seed([]types.RosterEntry{
		{UserID: 1, Username: "alice", JoinedAt: base},
		{UserID: 2, Username: "bob", JoinedAt: base.Add(48 * time.Hour)},
		{UserID: 3, Username: "carol", JoinedAt: base.Add(24 * time.Hour)},
	})

	// alice: 2450, bob and carol tie at 2380 with equal solved counts.
	engine.Apply(passedSubmission(1, 101, 2450, base.Add(time.Hour)))
	engine.Apply(passedSubmission(2, 102, 2380, base.Add(72*time.Hour)))
	engine.Apply(passedSubmission(3, 103, 2380, base.Add(72*time.Hour)))

	top, err := engine.Top(3, "")
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, 1, top[0].Rank)
	// The earlier joiner wins the score tie.
	assert.Equal(t, "carol", top[1].Username)
	assert.Equal(t, 2, top[1].Rank)
	assert.Equal(t, "bob", top[2].Username)
	assert.Equal(t, 3, top[2].Rank)
}

func TestRankingSolvedCountBreaksScoreTie(t *testing.T) {
	engine := NewRankingEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	engine.Seed([]types.RosterEntry{
		{UserID: 1, Username: "one-solver", JoinedAt: base},
		{UserID: 2, Username: "two-solver", JoinedAt: base},
	})

	engine.Apply(passedSubmission(1, 101, 200, base))
	engine.Apply(passedSubmission(2, 102, 100, base))
	engine.Apply(passedSubmission(2, 103, 100, base))

	top, err := engine.Top(2, "")
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "two-solver", top[0].Username)
	assert.Equal(t, "one-solver", top[1].Username)
}

func TestRankingResolveIsIdempotent(t *testing.T) {
	engine := NewRankingEngine()
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	engine.Apply(passedSubmission(7, 101, 100, at))
	engine.Apply(passedSubmission(7, 101, 100, at.Add(time.Hour)))
	engine.Apply(types.Submission{UserID: 7, ChallengeID: 102, Status: types.StatusFailed, SubmittedAt: at})

	position, err := engine.Position(7)
	require.NoError(t, err)
	assert.Equal(t, 100, position.User.Score)
	assert.Equal(t, 1, position.User.SolvedChallenges)
}

func TestRankingCreatesRecordOnFirstSight(t *testing.T) {
	engine := NewRankingEngine()
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	engine.Apply(types.Submission{UserID: 7, ChallengeID: 101, Status: types.StatusFailed, SubmittedAt: at})

	position, err := engine.Position(7)
	require.NoError(t, err)
	assert.Equal(t, "user7", position.User.Username)
	assert.Zero(t, position.User.Score)
	assert.True(t, position.User.JoinedAt.Equal(at))
}

func TestRankingTopBounds(t *testing.T) {
	engine := NewRankingEngine()
	engine.Apply(passedSubmission(1, 101, 100, time.Now()))

	_, err := engine.Top(0, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = engine.Top(101, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Requesting more than exist returns what exists.
	top, err := engine.Top(50, "")
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestRankingCountryFilterKeepsGlobalRanks(t *testing.T) {
	engine := NewRankingEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	engine.Seed([]types.RosterEntry{
		{UserID: 1, Username: "alice", Country: "DE", JoinedAt: base},
		{UserID: 2, Username: "bob", Country: "BR", JoinedAt: base},
		{UserID: 3, Username: "carol", Country: "de", JoinedAt: base},
	})
	engine.Apply(passedSubmission(1, 101, 300, base))
	engine.Apply(passedSubmission(2, 101, 200, base))
	engine.Apply(passedSubmission(3, 101, 100, base))

	top, err := engine.Top(10, "DE")
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, "carol", top[1].Username)
	// carol is third globally even though she is second in DE.
	assert.Equal(t, 3, top[1].Rank)
}

func TestRankingListPagination(t *testing.T) {
	engine := NewRankingEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		engine.Apply(passedSubmission(i, 101, i*10, base))
	}

	items, total, err := engine.List(3, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, items, 3)
	assert.Equal(t, 70, items[0].Score)

	items, total, err = engine.List(3, 6, "")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Score)
}

func TestRankingPositionWindow(t *testing.T) {
	engine := NewRankingEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 20; i++ {
		engine.Apply(passedSubmission(i, 101, i*10, base))
	}

	// User 20 has the highest score, so the window clips at the top.
	position, err := engine.Position(20)
	require.NoError(t, err)
	assert.Equal(t, 1, position.Rank)
	assert.Equal(t, 20, position.TotalUsers)
	assert.Len(t, position.Surrounding, 6)
	assert.Equal(t, 20, position.Surrounding[0].UserID)

	// A mid-pack user gets the full window.
	position, err = engine.Position(10)
	require.NoError(t, err)
	assert.Equal(t, 11, position.Rank)
	assert.Len(t, position.Surrounding, 11)

	_, err = engine.Position(999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRankingWindow(t *testing.T) {
	engine := NewRankingEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 10; i++ {
		engine.Apply(passedSubmission(i, 101, i*10, base))
	}

	window, err := engine.Window(5, 2)
	require.NoError(t, err)
	// Ranks 4 through 8 around the user at rank 6.
	require.Len(t, window, 5)
	assert.Equal(t, 4, window[0].Rank)
	assert.Equal(t, 8, window[4].Rank)

	_, err = engine.Window(5, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRankingStreak(t *testing.T) {
	engine := NewRankingEngine()
	day := func(d int) time.Time {
		return time.Date(2026, 1, d, 10, 0, 0, 0, time.UTC)
	}

	engine.Apply(passedSubmission(1, 101, 100, day(1)))
	engine.Apply(passedSubmission(1, 102, 100, day(1).Add(2*time.Hour)))
	engine.Apply(passedSubmission(1, 103, 100, day(2)))
	engine.Apply(passedSubmission(1, 104, 100, day(3)))

	position, err := engine.Position(1)
	require.NoError(t, err)
	assert.Equal(t, 3, position.User.Streak)

	// A gap resets the streak.
	engine.Apply(passedSubmission(1, 105, 100, day(10)))
	position, err = engine.Position(1)
	require.NoError(t, err)
	assert.Equal(t, 1, position.User.Streak)
}

func TestRankingRebuildReplaysStore(t *testing.T) {
	ctx := context.Background()
	subs := store.NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := subs.Append(ctx, passedSubmission(1, 101, 100, base))
	require.NoError(t, err)
	_, err = subs.Append(ctx, passedSubmission(1, 102, 150, base))
	require.NoError(t, err)
	_, err = subs.Append(ctx, passedSubmission(2, 101, 100, base))
	require.NoError(t, err)

	engine := NewRankingEngine()
	require.NoError(t, engine.Rebuild(ctx, subs))

	top, err := engine.Top(2, "")
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 1, top[0].UserID)
	assert.Equal(t, 250, top[0].Score)
	assert.Equal(t, 2, top[0].SolvedChallenges)
}

func TestRankingStats(t *testing.T) {
	ctx := context.Background()
	subs := store.NewMemoryStore()
	engine := NewRankingEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	engine.Seed([]types.RosterEntry{
		{UserID: 1, Username: "alice", JoinedAt: base},
		{UserID: 2, Username: "bob", JoinedAt: base},
		{UserID: 3, Username: "idle", JoinedAt: base},
	})

	for _, sub := range []types.Submission{
		passedSubmission(1, 101, 400, base),
		passedSubmission(1, 102, 300, base),
		passedSubmission(2, 101, 600, base),
	} {
		stored, err := subs.Append(ctx, sub)
		require.NoError(t, err)
		engine.Apply(stored)
	}

	stats, err := engine.Stats(ctx, subs)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 3, stats.TotalSubmissions)
	// (700 + 600 + 0) / 3
	assert.Equal(t, 433, stats.AverageScore)
	assert.Equal(t, 1, stats.ScoreDistribution["0-500"])
	assert.Equal(t, 2, stats.ScoreDistribution["501-1000"])
	assert.Zero(t, stats.ScoreDistribution["2001+"])
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
)

// maxLeaderboardTop caps Top requests.
const maxLeaderboardTop = 100

// positionWindowRadius is the number of ranks shown above and below a
// user in a position lookup.
const positionWindowRadius = 5

// Position is a user's place in the global leaderboard, with the
// surrounding window.
type Position struct {
	User        types.RankedUser   `json:"user"`
	Rank        int                `json:"rank"`
	Surrounding []types.RankedUser `json:"surrounding_users"`
	TotalUsers  int                `json:"total_users"`
}

// LeaderboardStats are global rollups over ranking and submission data.
type LeaderboardStats struct {
	TotalUsers        int            `json:"total_users"`
	ActiveUsers       int            `json:"active_users"`
	TotalSubmissions  int            `json:"total_submissions"`
	AverageScore      int            `json:"average_score"`
	ScoreDistribution map[string]int `json:"score_distribution"`
}

type userState struct {
	record      types.RankedUser
	solved      map[int]bool
	submissions int
	lastSolve   time.Time
}

// RankingEngine maintains the total order over users for the global
// leaderboard.
//
// Ordering key, primary to final: score descending, solved-challenge
// count descending, join timestamp ascending, user ID ascending. The
// 1-based rank is computed lazily at query time from the sorted view
// rather than stored, so appends never take a global re-rank pass.
//
// A single mutex guards all records, which also serializes ranking
// mutation per user: two concurrent submits for the same user cannot
// race to produce inconsistent updates.
type RankingEngine struct {
	mu    sync.RWMutex
	users map[int]*userState
}

// NewRankingEngine constructs an empty ranking engine.
func NewRankingEngine() *RankingEngine {
	return &RankingEngine{users: make(map[int]*userState)}
}

// Seed pre-creates zero-score records from the externally curated
// roster so usernames and countries appear on the leaderboard.
func (r *RankingEngine) Seed(roster []types.RosterEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range roster {
		if _, ok := r.users[entry.UserID]; ok {
			continue
		}
		r.users[entry.UserID] = &userState{
			record: types.RankedUser{
				UserID:   entry.UserID,
				Username: entry.Username,
				Country:  entry.Country,
				JoinedAt: entry.JoinedAt,
			},
			solved: make(map[int]bool),
		}
	}
}

// Rebuild replays the submission log into the engine. Called at startup
// when the store outlives the process.
func (r *RankingEngine) Rebuild(ctx context.Context, submissions store.SubmissionStore) error {
	subs, err := submissions.All(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		r.Apply(sub)
	}
	return nil
}

// Apply folds one judged submission into the ranking state.
//
// Every submission marks the user active and creates their record on
// first sight; only a Passed submission for a not-yet-solved challenge
// changes score and solved count. Later re-solves of the same challenge
// are no-ops, so re-solving is idempotent.
func (r *RankingEngine) Apply(sub types.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.users[sub.UserID]
	if state == nil {
		state = &userState{
			record: types.RankedUser{
				UserID:   sub.UserID,
				Username: fmt.Sprintf("user%d", sub.UserID),
				JoinedAt: sub.SubmittedAt,
			},
			solved: make(map[int]bool),
		}
		r.users[sub.UserID] = state
	}
	state.submissions++

	if sub.Status != types.StatusPassed || state.solved[sub.ChallengeID] {
		return
	}

	state.solved[sub.ChallengeID] = true
	state.record.SolvedChallenges = len(state.solved)
	state.record.Score += sub.Score
	state.record.Streak = nextStreak(state.record.Streak, state.lastSolve, sub.SubmittedAt)
	state.lastSolve = sub.SubmittedAt
}

// Top returns the first n users of the leaderboard, optionally filtered
// by country. n outside [1, 100] is an invalid argument.
func (r *RankingEngine) Top(n int, country string) ([]types.RankedUser, error) {
	if n < 1 || n > maxLeaderboardTop {
		return nil, fmt.Errorf("%w: top count must be between 1 and %d", ErrInvalidArgument, maxLeaderboardTop)
	}
	ranked := r.ranked(country)
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n], nil
}

// List returns a page of the leaderboard plus the total user count,
// optionally filtered by country.
func (r *RankingEngine) List(limit, offset int, country string) ([]types.RankedUser, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxLeaderboardTop {
		limit = maxLeaderboardTop
	}
	if offset < 0 {
		offset = 0
	}

	ranked := r.ranked(country)
	total := len(ranked)
	if offset >= total {
		return []types.RankedUser{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ranked[offset:end], total, nil
}

// Position returns the user's 1-based rank, their record, and the
// surrounding window of the leaderboard.
func (r *RankingEngine) Position(userID int) (Position, error) {
	ranked := r.ranked("")
	for i, user := range ranked {
		if user.UserID != userID {
			continue
		}
		start := i - positionWindowRadius
		if start < 0 {
			start = 0
		}
		end := i + positionWindowRadius + 1
		if end > len(ranked) {
			end = len(ranked)
		}
		return Position{
			User:        user,
			Rank:        i + 1,
			Surrounding: ranked[start:end],
			TotalUsers:  len(ranked),
		}, nil
	}
	return Position{}, store.ErrNotFound
}

// Window returns the slice of the leaderboard spanning radius ranks
// above and below the user, clipped to the valid rank range.
func (r *RankingEngine) Window(userID, radius int) ([]types.RankedUser, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: negative radius", ErrInvalidArgument)
	}
	ranked := r.ranked("")
	for i := range ranked {
		if ranked[i].UserID != userID {
			continue
		}
		start := i - radius
		if start < 0 {
			start = 0
		}
		end := i + radius + 1
		if end > len(ranked) {
			end = len(ranked)
		}
		return ranked[start:end], nil
	}
	return nil, store.ErrNotFound
}

// Stats derives global leaderboard statistics from the current ranking
// state plus the authoritative submission count.
func (r *RankingEngine) Stats(ctx context.Context, submissions store.SubmissionStore) (LeaderboardStats, error) {
	totalSubmissions, err := submissions.Count(ctx)
	if err != nil {
		return LeaderboardStats{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := LeaderboardStats{
		TotalUsers:       len(r.users),
		TotalSubmissions: totalSubmissions,
		ScoreDistribution: map[string]int{
			"0-500":     0,
			"501-1000":  0,
			"1001-1500": 0,
			"1501-2000": 0,
			"2001+":     0,
		},
	}

	scoreSum := 0
	for _, state := range r.users {
		if state.submissions > 0 {
			stats.ActiveUsers++
		}
		scoreSum += state.record.Score
		stats.ScoreDistribution[scoreBucket(state.record.Score)]++
	}
	if len(r.users) > 0 {
		stats.AverageScore = scoreSum / len(r.users)
	}
	return stats, nil
}

// ranked returns a sorted, rank-annotated snapshot of the leaderboard.
// Ranks are assigned over the full order before any country filtering so
// a filtered view still shows global positions.
func (r *RankingEngine) ranked(country string) []types.RankedUser {
	r.mu.RLock()
	users := make([]types.RankedUser, 0, len(r.users))
	for _, state := range r.users {
		users = append(users, state.record)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.SolvedChallenges != b.SolvedChallenges {
			return a.SolvedChallenges > b.SolvedChallenges
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.UserID < b.UserID
	})
	for i := range users {
		users[i].Rank = i + 1
	}

	country = strings.TrimSpace(country)
	if country == "" || strings.EqualFold(country, "all") {
		return users
	}
	filtered := users[:0]
	for _, user := range users {
		if strings.EqualFold(user.Country, country) {
			filtered = append(filtered, user)
		}
	}
	return filtered
}

// nextStreak extends the consecutive-day solve streak: same day keeps
// it, the following day increments it, any gap resets it to 1.
func nextStreak(current int, lastSolve, now time.Time) int {
	if current == 0 || lastSolve.IsZero() {
		return 1
	}
	last := lastSolve.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	switch today.Sub(last) {
	case 0:
		return current
	case 24 * time.Hour:
		return current + 1
	default:
		return 1
	}
}

func scoreBucket(score int) string {
	switch {
	case score <= 500:
		return "0-500"
	case score <= 1000:
		return "501-1000"
	case score <= 1500:
		return "1001-1500"
	case score <= 2000:
		return "1501-2000"
	default:
		return "2001+"
	}
}

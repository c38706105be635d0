package services

import (
	"context"
	"math"

	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
)

const defaultRecentLimit = 10

// ChallengeStats are rollups over every submission to one challenge.
type ChallengeStats struct {
	ChallengeID           int            `json:"challenge_id"`
	TotalSubmissions      int            `json:"total_submissions"`
	SuccessfulSubmissions int            `json:"successful_submissions"`
	SuccessRate           float64        `json:"success_rate"`
	AverageExecutionTime  int64          `json:"average_execution_time"`
	LanguageDistribution  map[string]int `json:"language_distribution"`
	StatusDistribution    map[string]int `json:"status_distribution"`
}

// UserStats are rollups over every submission by one user.
type UserStats struct {
	UserID           int                `json:"user_id"`
	TotalSubmissions int                `json:"total_submissions"`
	SolvedChallenges int                `json:"solved_challenges"`
	SuccessRate      float64            `json:"success_rate"`
	Recent           []types.Submission `json:"recent_submissions"`
}

// StatsService recomputes aggregate statistics from the authoritative
// submission store. It keeps no state of its own, so results always
// reflect the store's current contents.
type StatsService struct {
	catalog *Catalog
	store   store.SubmissionStore
}

// NewStatsService constructs a stats service over the given store.
func NewStatsService(catalog *Catalog, submissions store.SubmissionStore) *StatsService {
	return &StatsService{catalog: catalog, store: submissions}
}

// ChallengeStats computes the per-challenge rollup. Unknown challenges
// are a not-found error; a known challenge with no submissions yields
// zeroed aggregates.
func (s *StatsService) ChallengeStats(ctx context.Context, challengeID int) (ChallengeStats, error) {
	if _, err := s.catalog.Get(ctx, challengeID); err != nil {
		return ChallengeStats{}, err
	}

	subs, err := s.store.ByChallenge(ctx, challengeID)
	if err != nil {
		return ChallengeStats{}, err
	}

	stats := ChallengeStats{
		ChallengeID:          challengeID,
		TotalSubmissions:     len(subs),
		LanguageDistribution: make(map[string]int),
		StatusDistribution:   make(map[string]int),
	}
	if len(subs) == 0 {
		return stats, nil
	}

	var timeSum int64
	for _, sub := range subs {
		if sub.Status == types.StatusPassed {
			stats.SuccessfulSubmissions++
		}
		timeSum += sub.ExecutionTime
		stats.LanguageDistribution[sub.Language]++
		stats.StatusDistribution[sub.Status.String()]++
	}

	stats.SuccessRate = successRate(stats.SuccessfulSubmissions, stats.TotalSubmissions)
	stats.AverageExecutionTime = int64(math.Round(float64(timeSum) / float64(len(subs))))
	return stats, nil
}

// UserStats computes the per-user rollup, including the user's recent
// submissions by descending timestamp.
func (s *StatsService) UserStats(ctx context.Context, userID int) (UserStats, error) {
	subs, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}

	stats := UserStats{UserID: userID, TotalSubmissions: len(subs)}
	solved := make(map[int]bool)
	passed := 0
	for _, sub := range subs {
		if sub.Status == types.StatusPassed {
			passed++
			solved[sub.ChallengeID] = true
		}
	}
	stats.SolvedChallenges = len(solved)
	stats.SuccessRate = successRate(passed, len(subs))

	stats.Recent, err = s.RecentByUser(ctx, userID, defaultRecentLimit)
	if err != nil {
		return UserStats{}, err
	}
	return stats, nil
}

// RecentByUser returns the user's most recent submissions, newest first
// with an ID tie-break.
func (s *StatsService) RecentByUser(ctx context.Context, userID, limit int) ([]types.Submission, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	recent, _, err := s.store.Query(ctx, store.Query{
		Filter:     store.SubmissionFilter{UserID: userID},
		SortBy:     store.SortBySubmittedAt,
		Descending: true,
		Limit:      limit,
	})
	return recent, err
}

// successRate is the percentage of successful submissions, rounded to
// two decimals. Empty scopes rate zero instead of failing.
func successRate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(successful) / float64(total) * 100
	return math.Round(rate*100) / 100
}

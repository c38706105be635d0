package store

import (
	"context"
	"strings"

	"github.com/codeclash-oj/apiserver/types"
)

// SortKey selects the submission attribute used to order query results.
type SortKey string

// Supported sort keys.
const (
	SortBySubmittedAt   SortKey = "submitted_at"
	SortByScore         SortKey = "score"
	SortByExecutionTime SortKey = "execution_time"
)

// ParseSortKey normalizes a sort key from the API boundary.
// Empty input defaults to SortBySubmittedAt.
func ParseSortKey(raw string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "submitted_at", "submittedat":
		return SortBySubmittedAt, true
	case "score":
		return SortByScore, true
	case "execution_time", "executiontime":
		return SortByExecutionTime, true
	}
	return "", false
}

// SubmissionFilter restricts a submission query. Zero values mean
// "no filter" for the corresponding field.
type SubmissionFilter struct {
	ChallengeID int
	UserID      int
	Status      *types.Status
	Language    string
}

// Matches reports whether the submission satisfies every set predicate.
func (f SubmissionFilter) Matches(sub types.Submission) bool {
	if f.ChallengeID != 0 && sub.ChallengeID != f.ChallengeID {
		return false
	}
	if f.UserID != 0 && sub.UserID != f.UserID {
		return false
	}
	if f.Status != nil && sub.Status != *f.Status {
		return false
	}
	if f.Language != "" && !strings.EqualFold(sub.Language, f.Language) {
		return false
	}
	return true
}

// Query describes a filtered, sorted, paginated submission listing.
// Ties on the sort key are broken by submission ID so that repeated
// queries paginate deterministically.
type Query struct {
	Filter     SubmissionFilter
	SortBy     SortKey
	Descending bool
	Limit      int
	Offset     int
}

// SubmissionStore is the append-only record of judged submissions.
//
// Append is atomic and assigns each submission a monotonically increasing
// ID; the resulting insertion order is observed consistently by all
// readers. Submissions are never updated or deleted.
type SubmissionStore interface {
	Append(ctx context.Context, sub types.Submission) (types.Submission, error)
	Get(ctx context.Context, id int64) (types.Submission, error)
	Query(ctx context.Context, q Query) ([]types.Submission, int, error)

	// ByChallenge and ByUser read the secondary indexes in insertion
	// order; the statistics aggregator recomputes from them.
	ByChallenge(ctx context.Context, challengeID int) ([]types.Submission, error)
	ByUser(ctx context.Context, userID int) ([]types.Submission, error)

	// All returns every submission in insertion order. The ranking
	// engine replays it on startup.
	All(ctx context.Context) ([]types.Submission, error)

	Count(ctx context.Context) (int, error)
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codeclash-oj/apiserver/types"
)

// MemoryStore is an in-memory SubmissionStore.
//
// It keeps the full log ordered by ID plus per-challenge and per-user
// indexes. A single mutex serializes appends; readers take the read lock
// and copy out results, so query results never alias internal state.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      int64
	log         []types.Submission
	byID        map[int64]int
	byChallenge map[int][]int
	byUser      map[int][]int
}

// NewMemoryStore constructs an empty in-memory submission store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:      1,
		byID:        make(map[int64]int),
		byChallenge: make(map[int][]int),
		byUser:      make(map[int][]int),
	}
}

// Append assigns the next sequence ID and records the submission.
func (m *MemoryStore) Append(ctx context.Context, sub types.Submission) (types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub.ID = m.nextID
	m.nextID++
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}

	idx := len(m.log)
	m.log = append(m.log, sub)
	m.byID[sub.ID] = idx
	m.byChallenge[sub.ChallengeID] = append(m.byChallenge[sub.ChallengeID], idx)
	m.byUser[sub.UserID] = append(m.byUser[sub.UserID], idx)
	return sub, nil
}

// Get returns the submission with the given ID.
func (m *MemoryStore) Get(ctx context.Context, id int64) (types.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.byID[id]
	if !ok {
		return types.Submission{}, ErrNotFound
	}
	return m.log[idx], nil
}

// Query returns the filtered page and the total number of matches.
func (m *MemoryStore) Query(ctx context.Context, q Query) ([]types.Submission, int, error) {
	m.mu.RLock()
	matched := make([]types.Submission, 0, len(m.log))
	for _, sub := range m.log {
		if q.Filter.Matches(sub) {
			matched = append(matched, sub)
		}
	}
	m.mu.RUnlock()

	sortSubmissions(matched, q.SortBy, q.Descending)

	total := len(matched)
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Offset >= total {
		return []types.Submission{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total, nil
}

// ByChallenge returns all submissions for a challenge in insertion order.
func (m *MemoryStore) ByChallenge(ctx context.Context, challengeID int) ([]types.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.byChallenge[challengeID]), nil
}

// ByUser returns all submissions for a user in insertion order.
func (m *MemoryStore) ByUser(ctx context.Context, userID int) ([]types.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.byUser[userID]), nil
}

// All returns every submission in insertion order.
func (m *MemoryStore) All(ctx context.Context) ([]types.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Submission, len(m.log))
	copy(out, m.log)
	return out, nil
}

// Count returns the total number of stored submissions.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.log), nil
}

func (m *MemoryStore) collect(indexes []int) []types.Submission {
	out := make([]types.Submission, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, m.log[idx])
	}
	return out
}

func sortSubmissions(subs []types.Submission, key SortKey, descending bool) {
	less := func(a, b types.Submission) bool {
		switch key {
		case SortByScore:
			if a.Score != b.Score {
				return a.Score < b.Score
			}
		case SortByExecutionTime:
			if a.ExecutionTime != b.ExecutionTime {
				return a.ExecutionTime < b.ExecutionTime
			}
		default:
			if !a.SubmittedAt.Equal(b.SubmittedAt) {
				return a.SubmittedAt.Before(b.SubmittedAt)
			}
		}
		// Equal sort keys fall back to the ID for deterministic pagination.
		return a.ID < b.ID
	}

	sort.Slice(subs, func(i, j int) bool {
		if descending {
			return less(subs[j], subs[i])
		}
		return less(subs[i], subs[j])
	})
}

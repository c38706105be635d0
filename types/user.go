package types

import "time"

// RankedUser represents a user's leaderboard record.
// It is created on the user's first submission (or pre-seeded from the
// roster) and mutated only by the ranking engine when a not-yet-solved
// challenge is passed.
type RankedUser struct {
	// UserID is the unique identifier of the user.
	UserID int `json:"id"`

	// Username is the display name shown on the leaderboard.
	Username string `json:"username"`

	// Country is the user's self-reported country, if known.
	Country string `json:"country,omitempty"`

	// Score is the cumulative score across all solved challenges.
	Score int `json:"score"`

	// Rank is the 1-based position in the global leaderboard order.
	// It is computed at query time and is zero on records returned
	// outside a ranked listing.
	Rank int `json:"rank"`

	// SolvedChallenges is the number of distinct challenges the user has
	// passed. Re-solving a challenge never increments it.
	SolvedChallenges int `json:"solved_challenges"`

	// Streak is the number of consecutive days with at least one passed
	// submission, ending with the most recent solve.
	Streak int `json:"streak"`

	// JoinedAt is the timestamp the user joined. Earlier joiners rank
	// higher on a score/solved tie.
	JoinedAt time.Time `json:"joined_at"`
}

// RosterEntry is a pre-seeded user profile loaded from the externally
// curated roster. It supplies display metadata for leaderboard records.
type RosterEntry struct {
	UserID   int       `json:"id"`
	Username string    `json:"username"`
	Country  string    `json:"country"`
	JoinedAt time.Time `json:"joined_at"`
}

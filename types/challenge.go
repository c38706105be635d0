package types

import (
	"strings"
	"time"
)

// Challenge represents a coding challenge in the catalog.
// Challenges are externally curated and immutable once published; the
// apiserver only reads them.
type Challenge struct {
	// ID is the unique identifier of the challenge.
	ID int `json:"id"`

	// Title is the human-readable name of the challenge.
	Title string `json:"title"`

	// Description contains the full challenge statement, including
	// input/output specifications and examples.
	Description string `json:"description"`

	// Difficulty indicates the relative difficulty level of the challenge
	// and determines the score weight awarded for solving it.
	Difficulty Difficulty `json:"difficulty"`

	// Tags are free-form labels associated with the challenge, used for
	// categorization, filtering, and search.
	Tags []string `json:"tags"`

	// TimeLimit is the maximum allowed execution time per test case,
	// expressed in milliseconds.
	TimeLimit int64 `json:"time_limit"`

	// MemoryLimit is the maximum allowed memory usage per test case,
	// expressed in bytes.
	MemoryLimit int64 `json:"memory_limit"`

	// TestCases is the ordered list of test cases used to judge
	// submissions. Sample cases are evaluated before hidden ones.
	TestCases []TestCase `json:"test_cases"`

	// CreatedAt is the timestamp at which the challenge was published.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the most recent catalog update.
	UpdatedAt time.Time `json:"updated_at"`
}

// TestCase represents a single input/expected-output pair used to judge
// a submission.
type TestCase struct {
	// Index is the 1-based position of this test case within the challenge.
	Index int `json:"index"`

	// Input is the input data provided to the user's program.
	Input string `json:"input"`

	// Expected is the output produced by a correct solution.
	Expected string `json:"expected"`

	// IsHidden indicates whether this test case is hidden from users.
	// Hidden test case inputs and outputs are never included in API
	// responses; only pass/fail and timing are reported for them.
	IsHidden bool `json:"is_hidden"`
}

// Difficulty is the difficulty level of a challenge.
type Difficulty string

// Supported difficulty levels.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the supported difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Weight returns the full score awarded for passing all test cases of a
// challenge with this difficulty.
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyEasy:
		return 100
	case DifficultyMedium:
		return 150
	case DifficultyHard:
		return 250
	default:
		return 0
	}
}

// ParseDifficulty normalizes a difficulty string from the API boundary.
// Empty input and "All" both mean "no difficulty filter" and return an
// empty Difficulty.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", true
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

// SampleCases returns the sample (non-hidden) test cases of the challenge.
func (c Challenge) SampleCases() []TestCase {
	samples := make([]TestCase, 0, len(c.TestCases))
	for _, tc := range c.TestCases {
		if !tc.IsHidden {
			samples = append(samples, tc)
		}
	}
	return samples
}

package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Submission represents a user's submission to a challenge.
// It contains source code, execution metadata, and the final judging
// outcome. A submission is immutable once it reaches a terminal status;
// the store never deletes submissions.
type Submission struct {
	// ID is the unique identifier of the submission, assigned by the
	// submission store as a monotonic sequence number.
	ID int64 `json:"id" db:"id"`

	// ChallengeID identifies the challenge this submission is for.
	ChallengeID int `json:"challenge_id" db:"challenge_id"`

	// UserID identifies the user who made the submission.
	UserID int `json:"user_id" db:"user_id"`

	// Code is the source code submitted by the user.
	Code string `json:"code" db:"code"`

	// Language is the identifier of the programming language used.
	Language string `json:"language" db:"language"`

	// Status is the final outcome of judging the submission.
	Status Status `json:"status" db:"status"`

	// Score is the total score awarded for this submission.
	// It is derived from the test pass ratio and is never negative.
	Score int `json:"score" db:"score"`

	// ExecutionTime is the maximum per-test-case execution time observed
	// across executed test cases, expressed in milliseconds.
	ExecutionTime int64 `json:"execution_time" db:"execution_time"`

	// Memory is the peak memory usage observed across executed test
	// cases, expressed in bytes.
	Memory int64 `json:"memory" db:"memory"`

	// TestsPassed is the number of test cases that passed before judging
	// stopped.
	TestsPassed int `json:"tests_passed" db:"tests_passed"`

	// TestsTotal is the total number of test cases the challenge defines.
	TestsTotal int `json:"tests_total" db:"tests_total"`

	// TestCaseResults holds per-test-case results for the cases that were
	// actually executed. Cases skipped by the short-circuit policy are
	// absent.
	TestCaseResults []TestCaseResult `json:"test_results" db:"test_results"`

	// SubmittedAt is the timestamp when the submission was judged and
	// persisted.
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

// TestCaseResult represents the result of executing a single test case
// as part of judging a submission.
type TestCaseResult struct {
	// Index is the 1-based position of the test case within the challenge.
	Index int `json:"test_case" db:"test_case"`

	// Passed reports whether the program's output matched the expected
	// output within the resource limits.
	Passed bool `json:"passed" db:"passed"`

	// ExecutionTime is the execution time for this test case,
	// expressed in milliseconds.
	ExecutionTime int64 `json:"execution_time" db:"execution_time"`

	// Memory is the peak memory usage for this test case,
	// expressed in bytes.
	Memory int64 `json:"memory" db:"memory"`

	// Input is the test case input. Populated for sample test cases only.
	Input string `json:"input,omitempty" db:"input,omitempty"`

	// Expected is the expected output. Populated for sample test cases only.
	Expected string `json:"expected_output,omitempty" db:"expected_output,omitempty"`

	// Actual is the output produced by the user's program.
	// Populated for sample test cases only.
	Actual string `json:"actual_output,omitempty" db:"actual_output,omitempty"`

	// Message contains runtime error details, if any.
	Message string `json:"message,omitempty" db:"message,omitempty"`
}

// Status represents the lifecycle state of a submission.
//
// Queued and Running are transient and never persisted; every stored
// submission carries one of the four terminal statuses.
type Status int

// Submission lifecycle states.
const (
	StatusQueued Status = iota
	StatusRunning
	StatusPassed
	StatusFailed
	StatusRuntimeError
	StatusTimeLimitExceeded
)

// Terminal reports whether the status is one of the four terminal
// verdicts.
func (s Status) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusRuntimeError, StatusTimeLimitExceeded:
		return true
	}
	return false
}

// String returns the representation of the status used in API responses
// and logs.
func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusRunning:
		return "Running"
	case StatusPassed:
		return "Passed"
	case StatusFailed:
		return "Failed"
	case StatusRuntimeError:
		return "Runtime Error"
	case StatusTimeLimitExceeded:
		return "Time Limit Exceeded"
	default:
		return "Unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := ParseStatus(raw)
	if !ok {
		return errUnknownStatus(raw)
	}
	*s = parsed
	return nil
}

// ParseStatus normalizes a status string from the API boundary.
// Any value outside the closed state set is rejected.
func ParseStatus(raw string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	switch normalized {
	case "queued":
		return StatusQueued, true
	case "running":
		return StatusRunning, true
	case "passed":
		return StatusPassed, true
	case "failed":
		return StatusFailed, true
	case "runtime error", "runtimeerror":
		return StatusRuntimeError, true
	case "time limit exceeded", "timelimitexceeded", "tle":
		return StatusTimeLimitExceeded, true
	}
	return 0, false
}

type errUnknownStatus string

func (e errUnknownStatus) Error() string {
	return "unknown submission status: " + string(e)
}

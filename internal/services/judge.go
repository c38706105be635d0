package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codeclash-oj/apiserver/internal/executor"
	"github.com/codeclash-oj/apiserver/internal/metrics"
	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
	"github.com/rs/zerolog"
)

// defaultExecutorOverhead is the fixed scheduling/IO budget added on top
// of a challenge's time limit before the judge gives up on a test case.
const defaultExecutorOverhead = 2 * time.Second

// SubmitRequest is the judge entry contract.
type SubmitRequest struct {
	ChallengeID int
	UserID      int
	Language    string
	Code        string
}

// JudgedEventPublisher broadcasts a judged submission to interested
// consumers. Publishing is best effort and never fails a submit call.
type JudgedEventPublisher interface {
	PublishJudged(ctx context.Context, sub types.Submission) error
}

// JudgeService turns a code/language/challenge triple into a judged,
// persisted submission.
//
// Judging one submission is serial: each test case's outcome gates
// whether the next one runs. Distinct submissions run concurrently with
// no ordering constraints between them.
type JudgeService struct {
	catalog   *Catalog
	store     store.SubmissionStore
	ranking   *RankingEngine
	exec      executor.Executor
	languages []types.Language
	overhead  time.Duration
	events    JudgedEventPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// JudgeOption customizes a JudgeService.
type JudgeOption func(*JudgeService)

// WithEventPublisher wires judged-event publishing.
func WithEventPublisher(events JudgedEventPublisher) JudgeOption {
	return func(j *JudgeService) { j.events = events }
}

// WithMetrics wires judge metrics.
func WithMetrics(m *metrics.Metrics) JudgeOption {
	return func(j *JudgeService) { j.metrics = m }
}

// WithLogger sets the judge logger.
func WithLogger(logger zerolog.Logger) JudgeOption {
	return func(j *JudgeService) { j.logger = logger }
}

// WithExecutorOverhead overrides the fixed per-case overhead budget.
func WithExecutorOverhead(d time.Duration) JudgeOption {
	return func(j *JudgeService) { j.overhead = d }
}

// NewJudgeService constructs a judge over the given collaborators.
func NewJudgeService(
	catalog *Catalog,
	submissions store.SubmissionStore,
	ranking *RankingEngine,
	exec executor.Executor,
	opts ...JudgeOption,
) *JudgeService {
	j := &JudgeService{
		catalog:   catalog,
		store:     submissions,
		ranking:   ranking,
		exec:      exec,
		languages: types.DefaultLanguages(),
		overhead:  defaultExecutorOverhead,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Languages returns the supported language set.
func (j *JudgeService) Languages() []types.Language {
	return j.languages
}

// Submit judges the request synchronously and returns the terminal
// submission.
//
// Validation errors and unknown challenges are returned without side
// effects. Executor or store faults abort before persistence and are
// reported as ErrJudgeUnavailable; no partial record is ever stored.
func (j *JudgeService) Submit(ctx context.Context, req SubmitRequest) (types.Submission, error) {
	challenge, err := j.catalog.Get(ctx, req.ChallengeID)
	if err != nil {
		return types.Submission{}, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return types.Submission{}, fmt.Errorf("%w: code is required", ErrInvalidArgument)
	}
	lang, ok := types.FindLanguage(j.languages, req.Language)
	if !ok {
		return types.Submission{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, req.Language)
	}

	started := time.Now()
	sub, err := j.run(ctx, challenge, lang, req)
	if err != nil {
		j.metrics.ObserveJudgeFailure()
		return types.Submission{}, err
	}

	stored, err := j.store.Append(ctx, sub)
	if err != nil {
		j.metrics.ObserveJudgeFailure()
		return types.Submission{}, fmt.Errorf("%w: persist failed: %v", ErrJudgeUnavailable, err)
	}

	j.ranking.Apply(stored)
	j.metrics.ObserveJudged(stored.Status.String(), time.Since(started))

	if j.events != nil {
		if err := j.events.PublishJudged(ctx, stored); err != nil {
			j.logger.Warn().Err(err).Int64("submission_id", stored.ID).Msg("judged event publish failed")
		}
	}

	j.logger.Info().
		Int64("submission_id", stored.ID).
		Int("challenge_id", stored.ChallengeID).
		Int("user_id", stored.UserID).
		Str("status", stored.Status.String()).
		Int("score", stored.Score).
		Msg("submission judged")

	return stored, nil
}

// run executes the challenge's test cases in order, short-circuiting on
// the first non-pass, and reduces the per-case outcomes into a terminal
// submission.
func (j *JudgeService) run(ctx context.Context, challenge types.Challenge, lang types.Language, req SubmitRequest) (types.Submission, error) {
	cases := orderedCases(challenge)
	caseLimit := caseTimeLimit(challenge.TimeLimit, lang.TimeMultiplier)

	sub := types.Submission{
		ChallengeID: challenge.ID,
		UserID:      req.UserID,
		Code:        req.Code,
		Language:    lang.Name,
		Status:      types.StatusRunning,
		TestsTotal:  len(cases),
	}

	for _, tc := range cases {
		result, status, err := j.runCase(ctx, tc, lang, req.Code, caseLimit, challenge.MemoryLimit)
		if err != nil {
			return types.Submission{}, err
		}

		// Per-case time is bounded by the challenge's limit so a timeout
		// cannot inflate the aggregate beyond it.
		if result.ExecutionTime > caseLimit {
			result.ExecutionTime = caseLimit
		}
		if result.ExecutionTime > sub.ExecutionTime {
			sub.ExecutionTime = result.ExecutionTime
		}
		if result.Memory > sub.Memory {
			sub.Memory = result.Memory
		}
		sub.TestCaseResults = append(sub.TestCaseResults, result)
		j.metrics.ObserveTestCase(result.Passed)

		if status != types.StatusPassed {
			sub.Status = status
			break
		}
		sub.TestsPassed++
	}

	if sub.TestsPassed == len(cases) {
		sub.Status = types.StatusPassed
		sub.Score = challenge.Difficulty.Weight()
	} else {
		sub.Score = partialScore(sub.TestsPassed, len(cases), challenge.Difficulty.Weight())
	}
	sub.SubmittedAt = time.Now()
	return sub, nil
}

// runCase invokes the executor for one test case and classifies the
// outcome. The returned status is Passed, Failed, RuntimeError, or
// TimeLimitExceeded; an error means the executor is unavailable.
func (j *JudgeService) runCase(
	ctx context.Context,
	tc types.TestCase,
	lang types.Language,
	code string,
	timeLimit int64,
	memoryLimit int64,
) (types.TestCaseResult, types.Status, error) {
	deadline := time.Duration(timeLimit)*time.Millisecond + j.overhead
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	runResult, err := j.exec.Run(runCtx, executor.RunRequest{
		Code:        code,
		Language:    lang.Name,
		Input:       tc.Input,
		TimeLimit:   timeLimit,
		MemoryLimit: memoryLimit,
	})

	result := types.TestCaseResult{Index: tc.Index}
	if !tc.IsHidden {
		result.Input = tc.Input
		result.Expected = tc.Expected
	}

	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			result.ExecutionTime = timeLimit
			return result, types.StatusTimeLimitExceeded, nil
		}
		if ctx.Err() != nil {
			return types.TestCaseResult{}, 0, ctx.Err()
		}
		return types.TestCaseResult{}, 0, fmt.Errorf("%w: %v", ErrJudgeUnavailable, err)

	case runResult.Faulted:
		result.ExecutionTime = runResult.TimeMillis
		result.Memory = runResult.MemoryBytes
		result.Message = runResult.Message
		return result, types.StatusRuntimeError, nil

	case runResult.TimeMillis > timeLimit:
		result.ExecutionTime = timeLimit
		result.Memory = runResult.MemoryBytes
		return result, types.StatusTimeLimitExceeded, nil
	}

	result.ExecutionTime = runResult.TimeMillis
	result.Memory = runResult.MemoryBytes
	if !tc.IsHidden {
		result.Actual = runResult.Output
	}

	if outputsMatch(runResult.Output, tc.Expected) {
		result.Passed = true
		return result, types.StatusPassed, nil
	}
	return result, types.StatusFailed, nil
}

// orderedCases returns the challenge's test cases with sample cases
// first, preserving relative order within each group.
func orderedCases(challenge types.Challenge) []types.TestCase {
	cases := make([]types.TestCase, len(challenge.TestCases))
	copy(cases, challenge.TestCases)
	sort.SliceStable(cases, func(i, j int) bool {
		return !cases[i].IsHidden && cases[j].IsHidden
	})
	return cases
}

// partialScore is the fraction of test cases passed before the stopping
// point, times the difficulty weight, floored to an integer.
func partialScore(passed, total, weight int) int {
	if total == 0 || passed <= 0 {
		return 0
	}
	return passed * weight / total
}

func caseTimeLimit(base int64, multiplier float64) int64 {
	if multiplier <= 0 {
		return base
	}
	return int64(float64(base) * multiplier)
}

// outputsMatch compares outputs the usual judge way: trailing whitespace
// on each line and trailing newlines are insignificant.
func outputsMatch(actual, expected string) bool {
	return normalizeOutput(actual) == normalizeOutput(expected)
}

func normalizeOutput(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

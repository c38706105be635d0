package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codeclash-oj/apiserver/internal/executor"
	"github.com/codeclash-oj/apiserver/internal/services"
	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoExecutor pretends every program prints the expected output for the
// challenge fixture below: the sum of the two input numbers.
type echoExecutor struct{}

func (echoExecutor) Run(ctx context.Context, req executor.RunRequest) (executor.RunResult, error) {
	var a, b int
	if _, err := fmt.Sscanf(req.Input, "%d %d", &a, &b); err != nil {
		return executor.RunResult{Faulted: true, Message: "bad input"}, nil
	}
	return executor.RunResult{Output: fmt.Sprintf("%d", a+b), TimeMillis: 25, MemoryBytes: 1 << 20}, nil
}

func fixtureChallenges() []types.Challenge {
	return []types.Challenge{
		{
			ID:          1,
			Title:       "Sum Two Numbers",
			Description: "Print the sum of two integers.",
			Difficulty:  types.DifficultyEasy,
			Tags:        []string{"math", "io"},
			TimeLimit:   1000,
			MemoryLimit: 64 << 20,
			TestCases: []types.TestCase{
				{Index: 1, Input: "1 2", Expected: "3"},
				{Index: 2, Input: "10 20", Expected: "30"},
				{Index: 3, Input: "-5 5", Expected: "0", IsHidden: true},
			},
		},
		{
			ID:          2,
			Title:       "Word Ladder",
			Description: "Shortest transformation sequence.",
			Difficulty:  types.DifficultyHard,
			Tags:        []string{"graphs"},
			TimeLimit:   2000,
			MemoryLimit: 128 << 20,
			TestCases: []types.TestCase{
				{Index: 1, Input: "7 1", Expected: "8"},
			},
		},
	}
}

func newTestRouter(t *testing.T) (*chi.Mux, *store.MemoryStore, *services.RankingEngine) {
	t.Helper()

	catalog := services.NewCatalog(fixtureChallenges())
	submissions := store.NewMemoryStore()
	ranking := services.NewRankingEngine()
	judge := services.NewJudgeService(catalog, submissions, ranking, echoExecutor{})
	stats := services.NewStatsService(catalog, submissions)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/challenges", func(r chi.Router) {
		ChallengeRouter(r, catalog, stats)
	})
	router.Route("/submissions", func(r chi.Router) {
		SubmissionRouter(r, judge, submissions, stats)
	})
	router.Route("/leaderboard", func(r chi.Router) {
		LeaderboardRouter(r, ranking, submissions)
	})
	return router, submissions, ranking
}

func doRequest(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitAndFetchSubmission(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
		ChallengeID: 1, UserID: 42, Language: "Python", Code: "print(sum(map(int, input().split())))",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	sub := decode[types.Submission](t, rec)
	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, types.StatusPassed, sub.Status)
	assert.Equal(t, 100, sub.Score)
	assert.Equal(t, 3, sub.TestsPassed)

	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/submissions/%d", sub.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[types.Submission](t, rec)
	assert.Equal(t, sub.ID, fetched.ID)
	assert.Equal(t, sub.Status, fetched.Status)
}

func TestSubmitErrorMapping(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
		ChallengeID: 99, UserID: 42, Language: "Python", Code: "x",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
		ChallengeID: 1, UserID: 42, Language: "Python", Code: "  ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
		ChallengeID: 1, UserID: 42, Language: "COBOL", Code: "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader("{not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)

	rec = doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
		ChallengeID: 1, Language: "Python", Code: "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSubmissionsPagination(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for i := 0; i < 12; i++ {
		rec := doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
			ChallengeID: 1, UserID: 42, Language: "Python", Code: "x = 1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/submissions?limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SubmissionListResponse](t, rec)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, Pagination{Total: 12, Limit: 5, Offset: 10, HasMore: false}, resp.Pagination)

	rec = doRequest(t, router, http.MethodGet, "/submissions?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[SubmissionListResponse](t, rec)
	assert.Len(t, resp.Items, 5)
	assert.True(t, resp.Pagination.HasMore)
}

func TestListSubmissionsFilterValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/submissions?status=Running", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/submissions?sort_by=priority", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/submissions?status=Passed&language=Python&sort_by=score&sort_order=asc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSubmissionNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/submissions/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/submissions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserStatsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, challengeID := range []int{1, 2} {
		rec := doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
			ChallengeID: challengeID, UserID: 42, Language: "Python", Code: "x = 1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/submissions/user/42/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[services.UserStats](t, rec)
	assert.Equal(t, 42, stats.UserID)
	assert.Equal(t, 2, stats.TotalSubmissions)
	assert.Equal(t, 2, stats.SolvedChallenges)
	assert.Equal(t, 100.0, stats.SuccessRate)
	assert.Len(t, stats.Recent, 2)

	rec = doRequest(t, router, http.MethodGet, "/submissions/user/abc/stats", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChallengeRedactsHiddenCases(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/challenges/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	challenge := decode[PublicChallenge](t, rec)
	assert.Equal(t, "Sum Two Numbers", challenge.Title)
	assert.Equal(t, 3, challenge.TotalCases)
	require.Len(t, challenge.SampleCases, 2)
	for _, tc := range challenge.SampleCases {
		assert.False(t, tc.IsHidden)
	}

	rec = doRequest(t, router, http.MethodGet, "/challenges/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListChallenges(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/challenges?difficulty=easy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ChallengeListResponse](t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].ID)
	assert.Equal(t, 1, resp.Pagination.Total)

	rec = doRequest(t, router, http.MethodGet, "/challenges?difficulty=impossible", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChallengeStatsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
		ChallengeID: 1, UserID: 42, Language: "Python", Code: "x = 1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/challenges/1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[services.ChallengeStats](t, rec)
	assert.Equal(t, 1, stats.TotalSubmissions)
	assert.Equal(t, 1, stats.SuccessfulSubmissions)

	rec = doRequest(t, router, http.MethodGet, "/challenges/99/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPopularTagsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/challenges/tags/popular", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode[[]services.TagCount](t, rec)
	assert.Len(t, tags, 3)
}

func TestLeaderboardEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, userID := range []int{7, 8} {
		rec := doRequest(t, router, http.MethodPost, "/submissions", SubmitRequest{
			ChallengeID: 1, UserID: userID, Language: "Python", Code: "x = 1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[LeaderboardListResponse](t, rec)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.Pagination.Total)

	rec = doRequest(t, router, http.MethodGet, "/leaderboard/top/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[[]types.RankedUser](t, rec)
	assert.Len(t, top, 1)

	rec = doRequest(t, router, http.MethodGet, "/leaderboard/top/500", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/leaderboard/user/7/position", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	position := decode[services.Position](t, rec)
	assert.Equal(t, 7, position.User.UserID)
	assert.Equal(t, 2, position.TotalUsers)

	rec = doRequest(t, router, http.MethodGet, "/leaderboard/user/999/position", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/leaderboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[services.LeaderboardStats](t, rec)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalSubmissions)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Total: 50, Limit: 10, Offset: 45, HasMore: false}, NewPagination(50, 10, 45, 5))
	assert.Equal(t, Pagination{Total: 50, Limit: 10, Offset: 0, HasMore: true}, NewPagination(50, 10, 0, 10))
	assert.Equal(t, Pagination{Total: 0, Limit: 10, Offset: 0, HasMore: false}, NewPagination(0, 10, 0, 0))
}

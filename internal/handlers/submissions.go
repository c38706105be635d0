package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/codeclash-oj/apiserver/internal/services"
	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const maxCodeBytes = 256 << 10

// SubmissionHandler provides HTTP handlers for submitting and querying
// submissions.
type SubmissionHandler struct {
	judge       *services.JudgeService
	submissions store.SubmissionStore
	stats       *services.StatsService
}

// NewSubmissionHandler constructs a handler over the judge and store.
func NewSubmissionHandler(judge *services.JudgeService, submissions store.SubmissionStore, stats *services.StatsService) *SubmissionHandler {
	return &SubmissionHandler{judge: judge, submissions: submissions, stats: stats}
}

// SubmissionRouter registers submission routes on the given router.
func SubmissionRouter(r chi.Router, judge *services.JudgeService, submissions store.SubmissionStore, stats *services.StatsService) {
	handler := NewSubmissionHandler(judge, submissions, stats)

	r.Post("/", handler.Submit)
	r.Get("/", handler.ListSubmissions)
	r.Get("/{submissionID}", handler.GetSubmission)
	r.Get("/user/{userID}/recent", handler.RecentByUser)
	r.Get("/user/{userID}/stats", handler.UserStats)
}

// SubmitRequest is the submit payload.
type SubmitRequest struct {
	ChallengeID int    `json:"challenge_id"`
	UserID      int    `json:"user_id"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

// SubmissionListResponse is the paginated submission listing payload.
type SubmissionListResponse struct {
	Items      []types.Submission `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCodeBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChallengeID < 1 || req.UserID < 1 {
		writeError(w, http.StatusBadRequest, "challenge_id and user_id are required")
		return
	}

	sub, err := h.judge.Submit(r.Context(), services.SubmitRequest{
		ChallengeID: req.ChallengeID,
		UserID:      req.UserID,
		Language:    req.Language,
		Code:        req.Code,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "challenge not found")
		case errors.Is(err, services.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUnsupportedLanguage):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, services.ErrJudgeUnavailable):
			writeError(w, http.StatusServiceUnavailable, "judge unavailable, retry later")
		default:
			writeError(w, http.StatusInternalServerError, "failed to judge submission")
		}
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, defaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query, err := parseSubmissionQuery(r, limit, offset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.submissions.Query(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}

	writeJSON(w, http.StatusOK, SubmissionListResponse{
		Items:      items,
		Pagination: NewPagination(total, limit, offset, len(items)),
	})
}

func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "submissionID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	sub, err := h.submissions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch submission")
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) RecentByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIntParam(chi.URLParam(r, "userID"), "user id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, _, err := parseLimitOffset(r, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recent, err := h.stats.RecentByUser(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch recent submissions")
		return
	}

	writeJSON(w, http.StatusOK, recent)
}

func (h *SubmissionHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIntParam(chi.URLParam(r, "userID"), "user id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.stats.UserStats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute user stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func parseSubmissionQuery(r *http.Request, limit, offset int) (store.Query, error) {
	q := store.Query{Limit: limit, Offset: offset}
	values := r.URL.Query()

	if raw := strings.TrimSpace(values.Get("challenge_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return store.Query{}, errors.New("invalid challenge_id")
		}
		q.Filter.ChallengeID = id
	}
	if raw := strings.TrimSpace(values.Get("user_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return store.Query{}, errors.New("invalid user_id")
		}
		q.Filter.UserID = id
	}
	if raw := strings.TrimSpace(values.Get("status")); raw != "" && !strings.EqualFold(raw, "all") {
		status, ok := types.ParseStatus(raw)
		if !ok || !status.Terminal() {
			return store.Query{}, errors.New("invalid status")
		}
		q.Filter.Status = &status
	}
	if raw := strings.TrimSpace(values.Get("language")); raw != "" && !strings.EqualFold(raw, "all") {
		q.Filter.Language = raw
	}

	sortBy, ok := store.ParseSortKey(values.Get("sort_by"))
	if !ok {
		return store.Query{}, errors.New("invalid sort_by")
	}
	q.SortBy = sortBy

	switch strings.ToLower(strings.TrimSpace(values.Get("sort_order"))) {
	case "", "desc":
		q.Descending = true
	case "asc":
		q.Descending = false
	default:
		return store.Query{}, errors.New("invalid sort_order")
	}

	return q, nil
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/codeclash-oj/apiserver/internal/services"
	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const defaultLeaderboardLimit = 50

// LeaderboardHandler provides HTTP handlers for the global leaderboard.
type LeaderboardHandler struct {
	ranking     *services.RankingEngine
	submissions store.SubmissionStore
}

// NewLeaderboardHandler constructs a handler over the ranking engine.
func NewLeaderboardHandler(ranking *services.RankingEngine, submissions store.SubmissionStore) *LeaderboardHandler {
	return &LeaderboardHandler{ranking: ranking, submissions: submissions}
}

// LeaderboardRouter registers leaderboard routes on the given router.
func LeaderboardRouter(r chi.Router, ranking *services.RankingEngine, submissions store.SubmissionStore) {
	handler := NewLeaderboardHandler(ranking, submissions)

	r.Get("/", handler.List)
	r.Get("/top/{count}", handler.Top)
	r.Get("/user/{userID}/position", handler.Position)
	r.Get("/stats", handler.Stats)
}

// LeaderboardListResponse is the paginated leaderboard payload.
type LeaderboardListResponse struct {
	Items      []types.RankedUser `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, defaultLeaderboardLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	country := strings.TrimSpace(r.URL.Query().Get("country"))

	items, total, err := h.ranking.List(limit, offset, country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, LeaderboardListResponse{
		Items:      items,
		Pagination: NewPagination(total, limit, offset, len(items)),
	})
}

func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	count, err := parseIntParam(chi.URLParam(r, "count"), "count")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	country := strings.TrimSpace(r.URL.Query().Get("country"))

	users, err := h.ranking.Top(count, country)
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch top users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *LeaderboardHandler) Position(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIntParam(chi.URLParam(r, "userID"), "user id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	position, err := h.ranking.Position(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found in leaderboard")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user position")
		return
	}

	writeJSON(w, http.StatusOK, position)
}

func (h *LeaderboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ranking.Stats(r.Context(), h.submissions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute leaderboard stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

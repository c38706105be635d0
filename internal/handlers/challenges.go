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

const defaultChallengeLimit = 10
const popularTagCount = 10

// ChallengeHandler provides HTTP handlers for the challenge catalog.
type ChallengeHandler struct {
	catalog *services.Catalog
	stats   *services.StatsService
}

// NewChallengeHandler constructs a handler over the catalog and stats
// services.
func NewChallengeHandler(catalog *services.Catalog, stats *services.StatsService) *ChallengeHandler {
	return &ChallengeHandler{catalog: catalog, stats: stats}
}

// ChallengeRouter registers challenge routes on the given router.
func ChallengeRouter(r chi.Router, catalog *services.Catalog, stats *services.StatsService) {
	handler := NewChallengeHandler(catalog, stats)

	r.Get("/", handler.ListChallenges)
	r.Get("/tags/popular", handler.PopularTags)
	r.Route("/{challengeID}", func(r chi.Router) {
		r.Get("/", handler.GetChallenge)
		r.Get("/stats", handler.GetChallengeStats)
	})
}

// ChallengeListResponse is the paginated challenge listing payload.
type ChallengeListResponse struct {
	Items      []PublicChallenge `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// PublicChallenge is a challenge as exposed over the API. Hidden test
// cases are reduced to a count; only sample cases echo their data.
type PublicChallenge struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  types.Difficulty  `json:"difficulty"`
	Tags        []string          `json:"tags"`
	TimeLimit   int64             `json:"time_limit"`
	MemoryLimit int64             `json:"memory_limit"`
	SampleCases []types.TestCase  `json:"sample_cases"`
	TotalCases  int               `json:"total_cases"`
}

func publicChallenge(c types.Challenge) PublicChallenge {
	return PublicChallenge{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Difficulty:  c.Difficulty,
		Tags:        c.Tags,
		TimeLimit:   c.TimeLimit,
		MemoryLimit: c.MemoryLimit,
		SampleCases: c.SampleCases(),
		TotalCases:  len(c.TestCases),
	}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, defaultChallengeLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	difficulty, ok := types.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid difficulty")
		return
	}

	filter := services.ChallengeFilter{
		Difficulty: difficulty,
		Tag:        strings.TrimSpace(r.URL.Query().Get("tag")),
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Limit:      limit,
		Offset:     offset,
	}

	items, total, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list challenges")
		return
	}

	public := make([]PublicChallenge, 0, len(items))
	for _, c := range items {
		public = append(public, publicChallenge(c))
	}

	writeJSON(w, http.StatusOK, ChallengeListResponse{
		Items:      public,
		Pagination: NewPagination(total, limit, offset, len(public)),
	})
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(chi.URLParam(r, "challengeID"), "challenge id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	challenge, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch challenge")
		return
	}

	writeJSON(w, http.StatusOK, publicChallenge(challenge))
}

func (h *ChallengeHandler) GetChallengeStats(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(chi.URLParam(r, "challengeID"), "challenge id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.stats.ChallengeStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute challenge stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ChallengeHandler) PopularTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.PopularTags(popularTagCount))
}

package services

import (
	"context"
	"sort"
	"strings"

	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
)

const (
	defaultCatalogLimit = 10
	maxCatalogLimit     = 100
)

// ChallengeFilter restricts a catalog listing. All predicates are
// AND-combined; zero values mean "no filter".
type ChallengeFilter struct {
	// Difficulty is matched exactly. Empty means any difficulty.
	Difficulty types.Difficulty

	// Tag is matched case-insensitively as a substring of any tag.
	Tag string

	// Search is matched case-insensitively as a substring of the title
	// or the description.
	Search string

	Limit  int
	Offset int
}

// TagCount is a catalog tag with its usage count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Catalog is the read-only challenge catalog.
//
// Content is externally curated and loaded once at startup, so lookups
// need no locking.
type Catalog struct {
	challenges []types.Challenge
	byID       map[int]types.Challenge
}

// NewCatalog constructs a catalog from the loaded challenge set.
// Challenges are kept ordered by ID.
func NewCatalog(challenges []types.Challenge) *Catalog {
	sorted := make([]types.Challenge, len(challenges))
	copy(sorted, challenges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]types.Challenge, len(sorted))
	for _, c := range sorted {
		byID[c.ID] = c
	}
	return &Catalog{challenges: sorted, byID: byID}
}

// Get returns the challenge with the given ID.
func (c *Catalog) Get(ctx context.Context, id int) (types.Challenge, error) {
	challenge, ok := c.byID[id]
	if !ok {
		return types.Challenge{}, store.ErrNotFound
	}
	return challenge, nil
}

// List returns the page of challenges matching every set predicate,
// plus the total match count regardless of the pagination window.
func (c *Catalog) List(ctx context.Context, filter ChallengeFilter) ([]types.Challenge, int, error) {
	matched := make([]types.Challenge, 0, len(c.challenges))
	for _, challenge := range c.challenges {
		if matchesChallenge(challenge, filter) {
			matched = append(matched, challenge)
		}
	}

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	if limit > maxCatalogLimit {
		limit = maxCatalogLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	if offset >= total {
		return []types.Challenge{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// Size returns the number of challenges in the catalog.
func (c *Catalog) Size() int {
	return len(c.challenges)
}

// PopularTags returns the n most used tags across the catalog, by
// descending count with an alphabetical tie-break.
func (c *Catalog) PopularTags(n int) []TagCount {
	counts := make(map[string]int)
	for _, challenge := range c.challenges {
		for _, tag := range challenge.Tags {
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})

	if n <= 0 || n > len(tags) {
		n = len(tags)
	}
	return tags[:n]
}

func matchesChallenge(challenge types.Challenge, filter ChallengeFilter) bool {
	if filter.Difficulty != "" && challenge.Difficulty != filter.Difficulty {
		return false
	}

	if tag := strings.TrimSpace(filter.Tag); tag != "" && !strings.EqualFold(tag, "all") {
		tagLower := strings.ToLower(tag)
		found := false
		for _, t := range challenge.Tags {
			if strings.Contains(strings.ToLower(t), tagLower) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		searchLower := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(challenge.Title), searchLower) &&
			!strings.Contains(strings.ToLower(challenge.Description), searchLower) {
			return false
		}
	}

	return true
}

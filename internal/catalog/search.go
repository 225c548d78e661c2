package catalog

import (
	"context"
	"sort"
	"strings"

	"storefront-service/internal/domain"
)

const (
	searchResultLimit     = 60
	autocompletePrefixLen = 6
	autocompleteMinQuery  = 2
)

// NormalizeText lowercases, replaces every non-alphanumeric rune with a
// space, collapses runs of whitespace, and trims. Queries and index fields
// go through the identical function so substring checks line up.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits a free-text query into normalized tokens.
func Tokenize(q string) []string {
	n := NormalizeText(q)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// Searcher scores the in-memory search index and serves prefix
// autocomplete.
type Searcher struct {
	resolver *Resolver
	limit    int
}

func NewSearcher(r *Resolver, limit int) *Searcher {
	if limit <= 0 {
		limit = searchResultLimit
	}
	return &Searcher{resolver: r, limit: limit}
}

// SearchResult pairs an index entry with its query score. Autocomplete
// results carry a zero score; their ordering comes from the bucket.
type SearchResult struct {
	Entry domain.SearchEntry `json:"entry"`
	Score int                `json:"score,omitempty"`
}

type scored struct {
	entry int
	score int
}

// Search ranks index entries by substring containment: per token, +3 for a
// title hit, +2 for brand or category, +1 for the searchable blob. Zero
// scores are excluded; ties keep original index order; results cap at the
// configured limit. A query with no tokens returns nothing without touching
// the index. Malformed entries score against empty strings rather than
// failing.
func (s *Searcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	items, err := s.resolver.SearchIndex(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]scored, 0, len(items))
	for i, it := range items {
		titleN := NormalizeText(it.Title)
		brandN := NormalizeText(it.Brand)
		categoryN := NormalizeText(it.Category)
		searchableN := NormalizeText(it.Searchable)

		score := 0
		for _, t := range tokens {
			if strings.Contains(titleN, t) {
				score += 3
			}
			if strings.Contains(brandN, t) || strings.Contains(categoryN, t) {
				score += 2
			}
			if strings.Contains(searchableN, t) {
				score += 1
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{entry: i, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > s.limit {
		ranked = ranked[:s.limit]
	}

	results := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, SearchResult{Entry: items[r.entry], Score: r.score})
	}
	return results, nil
}

// Autocomplete looks up suggestions for a query prefix: the first word's
// first six normalized characters key a pre-sharded bucket table. Queries
// under two characters intentionally return nothing, without fetching. This
// is a dictionary lookup, never a rescan.
func (s *Searcher) Autocomplete(ctx context.Context, query string) ([]SearchResult, error) {
	term := NormalizeText(query)
	if len(term) < autocompleteMinQuery {
		return nil, nil
	}

	table, err := s.resolver.Autocomplete(ctx)
	if err != nil {
		return nil, err
	}

	firstWord := strings.Fields(term)[0]
	key := firstWord
	if len(key) > autocompletePrefixLen {
		key = key[:autocompletePrefixLen]
	}

	bucket := table[key]
	results := make([]SearchResult, 0, len(bucket))
	for _, e := range bucket {
		results = append(results, SearchResult{Entry: e})
	}
	return results, nil
}

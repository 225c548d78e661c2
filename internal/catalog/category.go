package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

var (
	ErrCategoryNotFound = errors.New("catalog: category not found")
)

// SortKey selects the ordering of a category's product set.
type SortKey string

const (
	SortFeatured  SortKey = "featured" // original index order
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
	SortRating    SortKey = "rating"
)

// ParseSortKey maps a query value onto a known sort, defaulting to featured.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortPriceLow, SortPriceHigh, SortRating:
		return SortKey(s)
	}
	return SortFeatured
}

// ProductSet is a category's resolved product list plus which convention
// produced it ("sharded:<key>" when a pre-built per-category file was found,
// "index-filter" when the full index was filtered by membership).
type ProductSet struct {
	Entries []domain.IndexEntry
	Source  string
}

// Page is one page of a sorted product set.
type Page struct {
	Entries    []domain.IndexEntry
	Number     int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Categories resolves route paths to categories and loads their product
// sets.
type Categories struct {
	store    store.ObjectStore
	resolver *Resolver
	pageSize int
}

func NewCategories(st store.ObjectStore, r *Resolver, pageSize int) *Categories {
	if pageSize <= 0 {
		pageSize = 24
	}
	return &Categories{store: st, resolver: r, pageSize: pageSize}
}

var multiSlash = regexp.MustCompile(`/{2,}`)
var multiHyphen = regexp.MustCompile(`-{2,}`)
var schemeHost = regexp.MustCompile(`(?i)^https?://[^/]+`)

// NormalizeRoutePath reduces any spelling of a category route to the one
// canonical form used for matching: scheme/host dropped, everything before a
// /c/ marker dropped, percent-escapes decoded, lowercased, spaces to
// hyphens, repeated slashes and hyphens collapsed, and no trailing slash.
// The result always starts with "/c/". Legacy routes disagreed on every one
// of these details, so both the route table and incoming paths go through
// this same function.
func NormalizeRoutePath(p string) string {
	s := strings.TrimSpace(p)
	if s == "" {
		return ""
	}
	s = schemeHost.ReplaceAllString(s, "")
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	if i := strings.Index(s, "/c/"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "c/")
	s = strings.ToLower(strings.Trim(s, "/"))
	s = strings.ReplaceAll(s, " ", "-")
	s = multiSlash.ReplaceAllString(s, "/")
	s = multiHyphen.ReplaceAllString(s, "-")
	if s == "" {
		return ""
	}
	return "/c/" + s
}

// Resolve matches a route path against the category route table: exact match
// first, else the entry whose URL is the longest segment-aligned prefix of
// the path (deeper sub-routes inherit an ancestor category when no exact
// leaf exists). No match is a distinct not-found state, not a failure.
func (c *Categories) Resolve(ctx context.Context, routePath string) (*domain.CategoryURL, error) {
	p := NormalizeRoutePath(routePath)
	if p == "" {
		return nil, ErrCategoryNotFound
	}

	cats, err := c.resolver.CategoryURLs(ctx)
	if err != nil {
		return nil, err
	}

	var best *domain.CategoryURL
	for i := range cats {
		u := NormalizeRoutePath(cats[i].URL)
		if u == "" {
			continue
		}
		if u == p {
			return &cats[i], nil
		}
		if strings.HasPrefix(p, u+"/") {
			if best == nil || len(u) > len(NormalizeRoutePath(best.URL)) {
				best = &cats[i]
			}
		}
	}
	if best == nil {
		return nil, ErrCategoryNotFound
	}
	return best, nil
}

// Products loads the product set for a resolved category. Pre-sharded
// per-category files are tried first through each legacy naming convention
// in fixed order; when none exists the full product index is filtered by
// category membership.
func (c *Categories) Products(ctx context.Context, cat *domain.CategoryURL) (*ProductSet, error) {
	if cat == nil {
		return nil, ErrCategoryNotFound
	}

	for _, key := range categoryFileCandidates(cat.URL) {
		raw, err := c.store.Get(ctx, key)
		if err != nil {
			continue
		}
		v, err := parseJSONPayload(raw)
		if err != nil {
			continue
		}
		entries := normalizeEntryList(pickProductsValue(v))
		return &ProductSet{Entries: entries, Source: "sharded:" + key}, nil
	}

	index, err := c.resolver.ProductIndex(ctx)
	if err != nil {
		return nil, err
	}
	var entries []domain.IndexEntry
	for _, e := range index {
		if entryHasCategory(e, cat.CategoryKey) {
			entries = append(entries, e)
		}
	}
	return &ProductSet{Entries: entries, Source: "index-filter"}, nil
}

// SortEntries orders a product set in place. Featured keeps original index
// order; the others sort stably so ties preserve it.
func SortEntries(entries []domain.IndexEntry, key SortKey) {
	switch key {
	case SortPriceLow:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Price < entries[j].Price })
	case SortPriceHigh:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Price > entries[j].Price })
	case SortRating:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rating > entries[j].Rating })
	}
}

// Paginate slices one 1-indexed page out of a product set, clamping the
// requested page into [1, ceil(total/pageSize)].
func Paginate(entries []domain.IndexEntry, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = 24
	}
	total := len(entries)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Entries:    entries[start:end],
		Number:     page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// PageSize returns the configured fixed page size.
func (c *Categories) PageSize() int { return c.pageSize }

// categoryFileCandidates enumerates the per-category file conventions left
// behind by successive pipelines: slug-keyed index files, nested
// per-category files, flat files, each with hyphen and double-underscore
// spellings, gz-first.
func categoryFileCandidates(categoryURL string) []string {
	p := strings.TrimPrefix(NormalizeRoutePath(categoryURL), "/c/")
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	hyphen := strings.Join(parts, "-")
	legacy := strings.ReplaceAll(hyphen, "-", "__")

	var keys []string
	for _, name := range []string{hyphen, legacy} {
		keys = append(keys,
			fmt.Sprintf("indexes/%s.products.json.gz", name),
			fmt.Sprintf("indexes/%s.products.json", name),
			fmt.Sprintf("categories/%s/products.json", name),
			fmt.Sprintf("category/%s.json", name),
		)
	}
	return keys
}

// pickProductsValue unwraps the container shapes a category file may use.
func pickProductsValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		for _, k := range []string{"products", "items", "data"} {
			if inner, ok := m[k]; ok {
				return inner
			}
		}
	}
	return v
}

func normalizeEntryList(v any) []domain.IndexEntry {
	list := coerceList(v)
	entries := make([]domain.IndexEntry, 0, len(list))
	for _, item := range list {
		if e, ok := domain.NormalizeIndexEntry(item); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func entryHasCategory(e domain.IndexEntry, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	for _, k := range e.CategoryKeys {
		if k == key {
			return true
		}
	}
	return false
}

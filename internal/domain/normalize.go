package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// imageAliases is the fixed priority order for the primary image. The first
// non-empty candidate wins; the order never changes or lookups would stop
// being deterministic across index rebuilds.
var imageAliases = []string{"image", "image_url", "main_image", "images", "gallery"}

// keyAliases covers every pipeline that ever wrote an index: the current
// handle field, older slug spellings, and raw ids.
var keyAliases = []string{"handle", "slug", "url_slug", "product_handle", "asin", "id"}

var titleAliases = []string{"title", "name", "product_title"}

// ParseNumber coerces a numeric field that may arrive as a number or a
// decorated string ("$49.99", "1,299.00") into a float64. Anything
// unparsable ("N/A", empty) yields fallback. It never errors; listing and
// sort code rely on that.
func ParseNumber(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return fallback
	case string:
		var b strings.Builder
		for _, r := range n {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		s := b.String()
		if s == "" {
			return fallback
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback
		}
		return f
	}
	return fallback
}

func stringOr(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// imageURLFrom digs a usable URL out of whatever shape an image field holds:
// a plain string, an object with one of the common URL keys, or a list whose
// first element is either of those.
func imageURLFrom(v any) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case map[string]any:
		for _, k := range []string{"url", "src", "href", "hiRes", "large"} {
			if s := stringOr(img[k]); s != "" {
				return s
			}
		}
	case []any:
		if len(img) > 0 {
			return imageURLFrom(img[0])
		}
	}
	return ""
}

func firstNonEmpty(m map[string]any, aliases []string) string {
	for _, a := range aliases {
		if s := stringOr(m[a]); s != "" {
			return s
		}
	}
	return ""
}

// PickKey returns the product's unique key under whichever alias the source
// document uses, or "" when none is present.
func PickKey(m map[string]any) string {
	return firstNonEmpty(m, keyAliases)
}

func PickTitle(m map[string]any) string {
	return firstNonEmpty(m, titleAliases)
}

// PickImage resolves the primary image through the alias priority order.
func PickImage(m map[string]any) string {
	for _, a := range imageAliases {
		if u := imageURLFrom(m[a]); u != "" {
			return u
		}
	}
	return ""
}

// PickCategoryKeys returns the category memberships, accepting either the
// plural list or one of the singular spellings.
func PickCategoryKeys(m map[string]any) []string {
	if list, ok := m["category_keys"].([]any); ok {
		keys := make([]string, 0, len(list))
		for _, v := range list {
			if s := stringOr(v); s != "" {
				keys = append(keys, s)
			}
		}
		if len(keys) > 0 {
			return keys
		}
	}
	for _, a := range []string{"category_key", "categoryKey"} {
		if s := stringOr(m[a]); s != "" {
			return []string{s}
		}
	}
	return nil
}

// NormalizeProduct maps a raw stored document into the canonical Product,
// annotated with the slug it was looked up under. The raw bytes are retained
// on the record.
func NormalizeProduct(slug string, raw []byte) (*Product, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	p := &Product{
		Slug:             slug,
		Title:            PickTitle(m),
		Brand:            stringOr(m["brand"]),
		Price:            ParseNumber(m["price"], 0),
		WasPrice:         ParseNumber(pickAny(m, "was_price", "compare_at_price"), 0),
		Rating:           ParseNumber(m["rating"], 0),
		RatingCount:      int(ParseNumber(pickAny(m, "rating_count", "ratings_total"), 0)),
		Image:            PickImage(m),
		CategoryKeys:     PickCategoryKeys(m),
		Description:      stringOr(pickAny(m, "description", "long_description")),
		ShortDescription: stringOr(m["short_description"]),
		Raw:              raw,
	}
	if p.Title == "" {
		p.Title = slug
	}

	if list, ok := m["images"].([]any); ok {
		for _, v := range list {
			if u := imageURLFrom(v); u != "" {
				p.Images = append(p.Images, u)
			}
		}
	}
	if list, ok := m["videos"].([]any); ok {
		for _, v := range list {
			if s := stringOr(v); s != "" {
				p.Videos = append(p.Videos, s)
			}
		}
	}
	p.Reviews = normalizeReviews(m["reviews"])
	p.Variations = normalizeVariations(m["variations"])

	return p, nil
}

// NormalizeIndexEntry accepts one element of a product index. Bare strings are
// treated as slug-only entries (the oldest index format). Entries without any
// resolvable key are dropped.
func NormalizeIndexEntry(v any) (IndexEntry, bool) {
	if s := stringOr(v); s != "" {
		return IndexEntry{Slug: s, Title: s}, true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return IndexEntry{}, false
	}
	key := PickKey(m)
	if key == "" {
		return IndexEntry{}, false
	}

	e := IndexEntry{
		Slug:         key,
		Title:        PickTitle(m),
		Brand:        stringOr(m["brand"]),
		Category:     stringOr(m["category"]),
		CategoryKeys: PickCategoryKeys(m),
		Image:        PickImage(m),
		Price:        ParseNumber(m["price"], 0),
		WasPrice:     ParseNumber(pickAny(m, "was_price", "compare_at_price"), 0),
		Rating:       ParseNumber(m["rating"], 0),
		Path:         stringOr(m["path"]),
	}
	if e.Title == "" {
		e.Title = key
	}
	return e, true
}

// NormalizeSearchEntry accepts one element of the search index. Missing
// fields stay empty; the scorer treats them as empty strings rather than
// rejecting the entry.
func NormalizeSearchEntry(v any) (SearchEntry, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return SearchEntry{}, false
	}
	key := PickKey(m)
	if key == "" {
		return SearchEntry{}, false
	}
	return SearchEntry{
		Slug:       key,
		Title:      PickTitle(m),
		Brand:      stringOr(m["brand"]),
		Category:   stringOr(m["category"]),
		Image:      PickImage(m),
		Searchable: stringOr(m["searchable"]),
	}, true
}

func pickAny(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func normalizeReviews(v any) *ReviewSummary {
	switch r := v.(type) {
	case map[string]any:
		sum := &ReviewSummary{
			Average: ParseNumber(pickAny(r, "average", "rating"), 0),
			Count:   int(ParseNumber(r["count"], 0)),
		}
		if list, ok := pickAny(r, "items", "reviews").([]any); ok {
			sum.Items = reviewList(list)
		}
		if sum.Average == 0 && sum.Count == 0 && len(sum.Items) == 0 {
			return nil
		}
		return sum
	case []any:
		items := reviewList(r)
		if len(items) == 0 {
			return nil
		}
		return &ReviewSummary{Count: len(items), Items: items}
	}
	return nil
}

func reviewList(list []any) []Review {
	var items []Review
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, Review{
			Author: stringOr(pickAny(m, "author", "reviewer")),
			Rating: ParseNumber(m["rating"], 0),
			Title:  stringOr(m["title"]),
			Body:   stringOr(pickAny(m, "body", "text", "content")),
			Date:   stringOr(m["date"]),
		})
	}
	return items
}

func normalizeVariations(v any) *Variations {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := &Variations{}
	if list, ok := m["colors"].([]any); ok {
		for _, c := range list {
			if s := stringOr(c); s != "" {
				out.Colors = append(out.Colors, s)
			}
		}
	}
	if list, ok := m["sizes"].([]any); ok {
		for _, s := range list {
			if str := stringOr(s); str != "" {
				out.Sizes = append(out.Sizes, str)
			}
		}
	}
	if len(out.Colors) == 0 && len(out.Sizes) == 0 {
		return nil
	}
	return out
}

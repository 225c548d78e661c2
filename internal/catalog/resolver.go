package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// Predefined errors for catalog resolution
var (
	ErrIndexUnavailable = errors.New("catalog: index unavailable")
)

// Logical index names. Each resolves to an ordered list of candidate storage
// keys; candidate order differs per index because the upload pipelines did
// (some published gz-first, some plain-first).
const (
	IndexProducts     = "products"
	IndexCategoryURLs = "category_urls"
	IndexSearch       = "search"
	IndexAutocomplete = "autocomplete"
	indexPathManifest = "path_manifest"
)

var indexCandidates = map[string][]string{
	IndexProducts: {
		"indexes/_index.json",
		"indexes/_index.json.gz",
		"products/_index.json",
	},
	IndexCategoryURLs: {
		"indexes/_category_urls.json.gz",
		"indexes/_category_urls.json",
		"products/_category_urls.json",
	},
	IndexSearch: {
		"indexes/search_index.enriched.json",
		"indexes/search_index.enriched.json.gz",
		"products/search_index.enriched.json",
	},
	IndexAutocomplete: {
		"indexes/search_autocomplete.json",
		"indexes/search_autocomplete.json.gz",
	},
	indexPathManifest: {
		"indexes/_index.json",
		"indexes/_index.json.gz",
	},
}

// Resolver loads, parses, and memoizes logical indexes. It is the only
// shared mutable state in the catalog: each entry is written at most once
// per process lifetime, concurrent callers of the same index share one
// in-flight fetch, and there is no TTL or invalidation; a restart is the
// only refresh.
//
// Resolver is injected everywhere it is needed rather than living in
// package-level state, so tests get a fresh cache per case.
type Resolver struct {
	store store.ObjectStore

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]any
}

func NewResolver(st store.ObjectStore) *Resolver {
	return &Resolver{
		store: st,
		cache: make(map[string]any),
	}
}

// load fetches and parses a logical index through the candidate chain,
// memoizing the result of parse. The underlying fetch runs detached from any
// single caller's context: other callers may still be waiting on it, so one
// consumer's departure must not cancel the shared load. The departing
// caller's own wait is still cancellable.
func (r *Resolver) load(ctx context.Context, name string, keys []string, parse func(any) (any, error)) (any, error) {
	r.mu.RLock()
	if v, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	ch := r.group.DoChan(name, func() (any, error) {
		r.mu.RLock()
		if v, ok := r.cache[name]; ok {
			r.mu.RUnlock()
			return v, nil
		}
		r.mu.RUnlock()

		v, err := r.fetchFirst(context.Background(), name, keys, parse)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[name] = v
		r.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}

// fetchFirst tries candidate keys strictly in order, never in parallel, so
// "first success wins" stays deterministic. It short-circuits on the first
// payload that decodes and parses.
func (r *Resolver) fetchFirst(ctx context.Context, name string, keys []string, parse func(any) (any, error)) (any, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no candidate keys for %q", ErrIndexUnavailable, name)
	}

	var lastErr error
	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			lastErr = err
			continue
		}
		v, err := parseJSONPayload(raw)
		if err != nil {
			log.Printf("WARN: index %q candidate %s rejected: %v", name, key, err)
			lastErr = err
			continue
		}
		parsed, err := parse(v)
		if err != nil {
			lastErr = err
			continue
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, name, lastErr)
}

// ProductIndex returns the normalized full product listing.
func (r *Resolver) ProductIndex(ctx context.Context) ([]domain.IndexEntry, error) {
	v, err := r.load(ctx, IndexProducts, indexCandidates[IndexProducts], func(v any) (any, error) {
		list := coerceList(v)
		entries := make([]domain.IndexEntry, 0, len(list))
		for _, item := range list {
			if e, ok := domain.NormalizeIndexEntry(item); ok {
				entries = append(entries, e)
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.IndexEntry), nil
}

// CategoryURLs returns the category route table. Entries without a category
// key or a /c/ route are dropped; everything else in the file is noise from
// older rebuild scripts.
func (r *Resolver) CategoryURLs(ctx context.Context) ([]domain.CategoryURL, error) {
	v, err := r.load(ctx, IndexCategoryURLs, indexCandidates[IndexCategoryURLs], func(v any) (any, error) {
		list := coerceList(v)
		entries := make([]domain.CategoryURL, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			e := domain.CategoryURL{
				CategoryKey: strings.TrimSpace(firstString(m, "category_key", "categoryKey")),
				URL:         strings.TrimSpace(firstString(m, "url")),
				Title:       firstString(m, "title"),
				Count:       int(domain.ParseNumber(m["count"], 0)),
			}
			if e.CategoryKey == "" || !strings.HasPrefix(e.URL, "/c/") {
				continue
			}
			entries = append(entries, e)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.CategoryURL), nil
}

// SearchIndex returns the scored-search entries.
func (r *Resolver) SearchIndex(ctx context.Context) ([]domain.SearchEntry, error) {
	v, err := r.load(ctx, IndexSearch, indexCandidates[IndexSearch], func(v any) (any, error) {
		list := coerceList(v)
		entries := make([]domain.SearchEntry, 0, len(list))
		for _, item := range list {
			if e, ok := domain.NormalizeSearchEntry(item); ok {
				entries = append(entries, e)
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.SearchEntry), nil
}

// Autocomplete returns the pre-sharded suggestion table keyed by short
// prefix.
func (r *Resolver) Autocomplete(ctx context.Context) (map[string][]domain.SearchEntry, error) {
	v, err := r.load(ctx, IndexAutocomplete, indexCandidates[IndexAutocomplete], func(v any) (any, error) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("autocomplete index is not an object")
		}
		table := make(map[string][]domain.SearchEntry, len(m))
		for key, bucket := range m {
			list, ok := bucket.([]any)
			if !ok {
				continue
			}
			entries := make([]domain.SearchEntry, 0, len(list))
			for _, item := range list {
				if e, ok := domain.NormalizeSearchEntry(item); ok {
					entries = append(entries, e)
				}
			}
			table[key] = entries
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string][]domain.SearchEntry), nil
}

// pathManifest describes where product documents live: direct slug→key
// entries, and/or a shard map pointing at per-prefix slug→key files.
type pathManifest struct {
	direct map[string]string
	shards map[string]string
}

// PathManifest parses the product index a second way, as the slug→storage
// key map the lookup chain consults first. Historical formats: an array of
// entries carrying "path", an object of slug→path strings, or an object with
// a shard map under one of several names.
func (r *Resolver) PathManifest(ctx context.Context) (*pathManifest, error) {
	v, err := r.load(ctx, indexPathManifest, indexCandidates[indexPathManifest], func(v any) (any, error) {
		man := &pathManifest{
			direct: make(map[string]string),
			shards: make(map[string]string),
		}
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				if e, ok := domain.NormalizeIndexEntry(item); ok && e.Path != "" {
					man.direct[e.Slug] = e.Path
				}
			}
		case map[string]any:
			for slug, val := range t {
				if s, ok := val.(string); ok && s != "" {
					man.direct[slug] = s
				}
			}
			for _, alias := range []string{"shards", "pdp_shards", "map", "paths"} {
				m, ok := t[alias].(map[string]any)
				if !ok {
					continue
				}
				for shard, val := range m {
					if s, ok := val.(string); ok && s != "" {
						man.shards[shard] = s
					}
				}
				break
			}
		}
		return man, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pathManifest), nil
}

// loadObject fetches and parses a single keyed object (e.g. one path shard)
// through the same memoizing single-flight path as the named indexes.
func (r *Resolver) loadObject(ctx context.Context, key string) (map[string]any, error) {
	v, err := r.load(ctx, "object:"+key, []string{key}, func(v any) (any, error) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("object %s is not a JSON object", key)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

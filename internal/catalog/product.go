package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

var (
	ErrProductCorrupt = errors.New("catalog: product document failed to parse")
)

// NotFoundError reports a slug that resolved to no stored document, carrying
// the candidate keys that were tried for diagnostics.
type NotFoundError struct {
	Slug  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: product %q not found (tried: %s)", e.Slug, strings.Join(e.Tried, ", "))
}

// Products resolves slugs to stored product documents.
type Products struct {
	store    store.ObjectStore
	resolver *Resolver
}

func NewProducts(st store.ObjectStore, r *Resolver) *Products {
	return &Products{store: st, resolver: r}
}

// Load fetches the document for a slug. Candidate keys are tried strictly in
// priority order and the first hit wins; remaining candidates are never
// touched. Compressed keys outrank their plain twins, so when both exist the
// .gz document is the one served.
//
// A slug with no hit fails with *NotFoundError; a hit whose body does not
// parse fails with ErrProductCorrupt. The lookup itself is read-only; the
// only shared state it touches is the resolver's memoized path manifest.
func (p *Products) Load(ctx context.Context, slug string) (*domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, &NotFoundError{Slug: slug}
	}

	candidates := p.candidateKeys(ctx, slug)

	tried := make([]string, 0, len(candidates))
	for _, key := range candidates {
		tried = append(tried, key)

		raw, err := p.store.Get(ctx, key)
		if err != nil {
			// Absent and unreachable look the same from here; both mean
			// "try the next candidate".
			continue
		}

		text, err := decodePayload(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrProductCorrupt, key, err)
		}
		product, err := domain.NormalizeProduct(slug, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrProductCorrupt, key, err)
		}
		return product, nil
	}

	return nil, &NotFoundError{Slug: slug, Tried: tried}
}

// candidateKeys builds the prioritized key list for a slug: the direct
// naming convention compressed-first, then whatever the path manifest knows,
// with and without a .gz suffix. Duplicates are collapsed, order preserved.
func (p *Products) candidateKeys(ctx context.Context, slug string) []string {
	var keys []string
	seen := make(map[string]bool)
	push := func(k string) {
		k = strings.TrimLeft(strings.TrimSpace(k), "/")
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}

	push("product/" + slug + ".json.gz")
	push("product/" + slug + ".json")

	// The manifest is optional: an index that fails to load just means the
	// direct conventions stand alone.
	if mapped := p.resolveMappedPath(ctx, slug); mapped != "" {
		pushPathVariants(push, mapped)
	}

	return keys
}

func pushPathVariants(push func(string), key string) {
	switch {
	case strings.HasSuffix(key, ".json.gz"):
		push(key)
		push(strings.TrimSuffix(key, ".gz"))
	case strings.HasSuffix(key, ".json"):
		push(key + ".gz")
		push(key)
	default:
		push(key + ".json.gz")
		push(key + ".json")
		push(key)
	}
}

// resolveMappedPath consults the path manifest: a direct slug entry first,
// else the 2-character shard file for the slug's prefix.
func (p *Products) resolveMappedPath(ctx context.Context, slug string) string {
	man, err := p.resolver.PathManifest(ctx)
	if err != nil {
		return ""
	}
	if path, ok := man.direct[slug]; ok {
		return path
	}

	shardFile, ok := man.shards[ShardKey(slug)]
	if !ok {
		return ""
	}
	shard, err := p.resolver.loadObject(ctx, strings.TrimLeft(shardFile, "/"))
	if err != nil {
		return ""
	}
	if path, ok := shard[slug].(string); ok {
		return path
	}
	return ""
}

// ShardKey buckets a slug into its 2-character shard: the first two
// characters lowercased, anything non-alphanumeric (or missing) replaced
// with an underscore. The index builder uses the identical rule; the two
// must never drift or lookups silently miss.
func ShardKey(slug string) string {
	clean := func(i int) byte {
		if i >= len(slug) {
			return '_'
		}
		c := slug[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			return c
		case c >= 'A' && c <= 'Z':
			return c + ('a' - 'A')
		default:
			return '_'
		}
	}
	return string([]byte{clean(0), clean(1)})
}

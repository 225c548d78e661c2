package indexer

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
)

// Builder regenerates the static index artifacts the storefront serves:
// the master product index, per-shard path manifests, the enriched search
// index, autocomplete buckets and the category URL index. Input is a
// directory of per-product JSON files named <slug>.json or <slug>.json.gz.
type Builder struct {
	InputDir  string
	OutputDir string
}

type buildStats struct {
	Products   int
	Skipped    int
	Categories int
	Shards     int
}

// Build reads every product file, normalizes it and writes the full index
// set under OutputDir/indexes.
func (b *Builder) Build() error {
	files, err := os.ReadDir(b.InputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}

	var stats buildStats
	var products []*domain.Product
	paths := map[string]string{}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		slug := slugFromFilename(name)
		if slug == "" {
			continue
		}
		raw, err := readMaybeGzip(filepath.Join(b.InputDir, name))
		if err != nil {
			log.Printf("WARN: skipping %s: %v", name, err)
			stats.Skipped++
			continue
		}
		product, err := domain.NormalizeProduct(slug, raw)
		if err != nil {
			log.Printf("WARN: skipping %s: %v", name, err)
			stats.Skipped++
			continue
		}
		// First file wins when both compressed and plain variants exist.
		if _, seen := paths[slug]; seen {
			continue
		}
		products = append(products, product)
		paths[slug] = "product/" + name
	}
	stats.Products = len(products)

	sort.Slice(products, func(i, j int) bool { return products[i].Slug < products[j].Slug })

	if err := b.writeMasterIndex(products, paths); err != nil {
		return err
	}
	shards, err := b.writePathShards(paths)
	if err != nil {
		return err
	}
	stats.Shards = shards
	if err := b.writeSearchIndexes(products); err != nil {
		return err
	}
	categories, err := b.writeCategoryURLs(products)
	if err != nil {
		return err
	}
	stats.Categories = categories

	log.Printf("INFO: indexed %d products (%d skipped), %d categories, %d path shards",
		stats.Products, stats.Skipped, stats.Categories, stats.Shards)
	return nil
}

func (b *Builder) writeMasterIndex(products []*domain.Product, paths map[string]string) error {
	entries := make([]map[string]any, 0, len(products))
	for _, p := range products {
		entries = append(entries, map[string]any{
			"handle":        p.Slug,
			"title":         p.Title,
			"brand":         p.Brand,
			"price":         p.Price,
			"was_price":     p.WasPrice,
			"rating":        p.Rating,
			"rating_count":  p.RatingCount,
			"image":         p.Image,
			"category_keys": p.CategoryKeys,
			"path":          paths[p.Slug],
		})
	}
	return b.writeJSON("indexes/_index.json", entries)
}

// writePathShards splits the slug-to-storage-key manifest into the 2-char
// shard files the product resolver consults for oddly named objects.
func (b *Builder) writePathShards(paths map[string]string) (int, error) {
	shards := map[string]map[string]string{}
	for slug, path := range paths {
		key := catalog.ShardKey(slug)
		if shards[key] == nil {
			shards[key] = map[string]string{}
		}
		shards[key][slug] = path
	}
	for key, shard := range shards {
		if err := b.writeJSON("indexes/pdp_paths/"+key+".json", shard); err != nil {
			return 0, err
		}
	}
	return len(shards), nil
}

func (b *Builder) writeSearchIndexes(products []*domain.Product) error {
	entries := make([]domain.SearchEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, domain.SearchEntry{
			Slug:       p.Slug,
			Title:      p.Title,
			Brand:      p.Brand,
			Category:   firstCategory(p),
			Image:      p.Image,
			Searchable: searchableBlob(p),
		})
	}
	if err := b.writeJSON("indexes/search_index.enriched.json", entries); err != nil {
		return err
	}

	buckets := map[string][]domain.SearchEntry{}
	for _, e := range entries {
		normalized := catalog.NormalizeText(e.Title)
		word, _, _ := strings.Cut(normalized, " ")
		if word == "" {
			continue
		}
		if len(word) > 6 {
			word = word[:6]
		}
		buckets[word] = append(buckets[word], e)
	}
	return b.writeJSON("indexes/search_autocomplete.json", buckets)
}

func (b *Builder) writeCategoryURLs(products []*domain.Product) (int, error) {
	counts := map[string]int{}
	for _, p := range products {
		for _, key := range p.CategoryKeys {
			if key != "" {
				counts[key]++
			}
		}
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	urls := make([]domain.CategoryURL, 0, len(keys))
	for _, key := range keys {
		urls = append(urls, domain.CategoryURL{
			CategoryKey: key,
			URL:         "/c/" + strings.ReplaceAll(key, "-", "/"),
			Title:       categoryTitle(key),
			Count:       counts[key],
		})
	}
	return len(urls), b.writeJSON("indexes/_category_urls.json", urls)
}

func (b *Builder) writeJSON(rel string, v any) error {
	out := filepath.Join(b.OutputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", rel, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rel, err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func slugFromFilename(name string) string {
	switch {
	case strings.HasSuffix(name, ".json.gz"):
		return strings.TrimSuffix(name, ".json.gz")
	case strings.HasSuffix(name, ".json"):
		return strings.TrimSuffix(name, ".json")
	}
	return ""
}

var gzipMagic = []byte{0x1f, 0x8b}

func readMaybeGzip(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func firstCategory(p *domain.Product) string {
	if len(p.CategoryKeys) > 0 {
		return p.CategoryKeys[0]
	}
	return ""
}

// searchableBlob concatenates every field token search should match on.
func searchableBlob(p *domain.Product) string {
	parts := []string{p.Title, p.Brand}
	parts = append(parts, p.CategoryKeys...)
	parts = append(parts, p.ShortDescription)
	return catalog.NormalizeText(strings.Join(parts, " "))
}

func categoryTitle(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/store"
)

func newProducts(mem *store.MemStore) *Products {
	return NewProducts(mem, NewResolver(mem))
}

func TestProducts_Load_CompressedOutranksPlain(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/red-shoe.json.gz", gzipBytes(t, []byte(`{"title":"Red Shoe (gz)"}`)))
	mem.Put("product/red-shoe.json", []byte(`{"title":"Red Shoe (plain)"}`))

	p, err := newProducts(mem).Load(context.Background(), "red-shoe")
	require.NoError(t, err)
	assert.Equal(t, "Red Shoe (gz)", p.Title)
	// The plain twin is never touched once the compressed key hits.
	assert.Equal(t, 0, mem.GetCount("product/red-shoe.json"))
}

func TestProducts_Load_PlainWhenNoCompressed(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/red-shoe.json", []byte(`{"title":"Red Shoe"}`))

	p, err := newProducts(mem).Load(context.Background(), "red-shoe")
	require.NoError(t, err)
	assert.Equal(t, "Red Shoe", p.Title)
}

func TestProducts_Load_NotFoundCarriesTriedKeys(t *testing.T) {
	mem := store.NewMemStore()

	_, err := newProducts(mem).Load(context.Background(), "ghost")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Slug)
	assert.Contains(t, notFound.Tried, "product/ghost.json.gz")
	assert.Contains(t, notFound.Tried, "product/ghost.json")
}

func TestProducts_Load_EmptySlug(t *testing.T) {
	_, err := newProducts(store.NewMemStore()).Load(context.Background(), "   ")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestProducts_Load_CorruptDocumentIsNotRetried(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/broken.json.gz", gzipBytes(t, []byte(`{"title":`)))
	mem.Put("product/broken.json", []byte(`{"title":"would have worked"}`))

	_, err := newProducts(mem).Load(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrProductCorrupt)
	// A parse failure is a hard stop, not a fall-through.
	assert.Equal(t, 0, mem.GetCount("product/broken.json"))
}

func TestProducts_Load_HTMLFallbackIsCorrupt(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/spa.json.gz", []byte("<!DOCTYPE html>"))

	_, err := newProducts(mem).Load(context.Background(), "spa")
	assert.ErrorIs(t, err, ErrProductCorrupt)
}

func TestProducts_Load_ManifestDirectPath(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/_index.json", []byte(`[{"handle":"odd-one","path":"legacy/odd_one.json"}]`))
	mem.Put("legacy/odd_one.json", []byte(`{"title":"Odd One"}`))

	p, err := newProducts(mem).Load(context.Background(), "odd-one")
	require.NoError(t, err)
	assert.Equal(t, "Odd One", p.Title)
}

func TestProducts_Load_ManifestShardPath(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/_index.json", []byte(`{"pdp_shards":{"od":"indexes/pdp_paths/od.json"}}`))
	mem.Put("indexes/pdp_paths/od.json", []byte(`{"odd-one":"legacy/odd_one.json"}`))
	mem.Put("legacy/odd_one.json", []byte(`{"title":"Odd One"}`))

	p, err := newProducts(mem).Load(context.Background(), "odd-one")
	require.NoError(t, err)
	assert.Equal(t, "Odd One", p.Title)
}

func TestProducts_Load_SurvivesManifestFailure(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/red-shoe.json", []byte(`{"title":"Red Shoe"}`))
	// No index object exists at all; the direct conventions must stand
	// alone.
	p, err := newProducts(mem).Load(context.Background(), "red-shoe")
	require.NoError(t, err)
	assert.Equal(t, "Red Shoe", p.Title)
}

func TestShardKey(t *testing.T) {
	assert.Equal(t, "re", ShardKey("red-shoe"))
	assert.Equal(t, "re", ShardKey("RED-SHOE"))
	assert.Equal(t, "4_", ShardKey("4\"-planter"))
	assert.Equal(t, "a_", ShardKey("a"))
	assert.Equal(t, "__", ShardKey(""))
	assert.Equal(t, "__", ShardKey("émigré"))
}

func TestNotFoundError_Message(t *testing.T) {
	err := &NotFoundError{Slug: "x", Tried: []string{"a", "b"}}
	assert.Contains(t, err.Error(), `"x"`)
	assert.Contains(t, err.Error(), "a, b")
	assert.False(t, errors.Is(err, ErrProductCorrupt))
}

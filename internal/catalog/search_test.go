package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/store"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "red shoe", NormalizeText("  Red   SHOE! "))
	assert.Equal(t, "4k tv", NormalizeText("4K-TV"))
	assert.Equal(t, "", NormalizeText("!!!"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"red", "shoe"}, Tokenize("Red, Shoe."))
	assert.Nil(t, Tokenize("  "))
}

func newSearcher(mem *store.MemStore, limit int) *Searcher {
	return NewSearcher(NewResolver(mem), limit)
}

func TestSearcher_Search_ScoringTiers(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/search_index.enriched.json", []byte(`[
		{"handle":"title-hit","title":"Red Shoe","brand":"X","category":"y","searchable":"red shoe"},
		{"handle":"brand-hit","title":"Plain Sneaker","brand":"Red Label","searchable":"red label"},
		{"handle":"blob-hit","title":"Sneaker","brand":"X","searchable":"a red accent stripe"},
		{"handle":"miss","title":"Blue Boot","brand":"X","searchable":"blue boot"}
	]`))

	results, err := newSearcher(mem, 60).Search(context.Background(), "red")
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Title (+3, +1 blob) over brand (+2, +1 blob) over blob alone (+1).
	assert.Equal(t, "title-hit", results[0].Entry.Slug)
	assert.Equal(t, 4, results[0].Score)
	assert.Equal(t, "brand-hit", results[1].Entry.Slug)
	assert.Equal(t, 3, results[1].Score)
	assert.Equal(t, "blob-hit", results[2].Entry.Slug)
	assert.Equal(t, 1, results[2].Score)
}

func TestSearcher_Search_MultiTokenAccumulates(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/search_index.enriched.json", []byte(`[
		{"handle":"both","title":"Red Shoe","searchable":"red shoe"},
		{"handle":"one","title":"Red Boot","searchable":"red boot"}
	]`))

	results, err := newSearcher(mem, 60).Search(context.Background(), "red shoe")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "both", results[0].Entry.Slug)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearcher_Search_EmptyQuerySkipsFetch(t *testing.T) {
	mem := store.NewMemStore()

	results, err := newSearcher(mem, 60).Search(context.Background(), "  !! ")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, 0, mem.GetCount("indexes/search_index.enriched.json"))
}

func TestSearcher_Search_CapsAtLimit(t *testing.T) {
	mem := store.NewMemStore()
	index := "["
	for i := 0; i < 80; i++ {
		if i > 0 {
			index += ","
		}
		index += fmt.Sprintf(`{"handle":"p%d","title":"Widget %d"}`, i, i)
	}
	index += "]"
	mem.Put("indexes/search_index.enriched.json", []byte(index))

	results, err := newSearcher(mem, 60).Search(context.Background(), "widget")
	require.NoError(t, err)
	assert.Len(t, results, 60)
	// Equal scores keep index order.
	assert.Equal(t, "p0", results[0].Entry.Slug)
}

func TestSearcher_Search_IndexUnavailable(t *testing.T) {
	_, err := newSearcher(store.NewMemStore(), 60).Search(context.Background(), "red")
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestSearcher_Autocomplete_PrefixBucket(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/search_autocomplete.json", []byte(`{
		"runnin": [{"handle":"running-shoe","title":"Running Shoe"}],
		"ru": [{"handle":"rug","title":"Rug"}]
	}`))

	s := newSearcher(mem, 60)

	// Six-plus characters key the 6-char bucket.
	results, err := s.Autocomplete(context.Background(), "Running shoes")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "running-shoe", results[0].Entry.Slug)

	// Shorter queries key their own exact bucket.
	results, err = s.Autocomplete(context.Background(), "ru")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rug", results[0].Entry.Slug)
}

func TestSearcher_Autocomplete_MinQueryLength(t *testing.T) {
	mem := store.NewMemStore()

	results, err := newSearcher(mem, 60).Autocomplete(context.Background(), "r")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, 0, mem.GetCount("indexes/search_autocomplete.json"))
}

func TestSearcher_Autocomplete_UnknownBucketIsEmpty(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/search_autocomplete.json", []byte(`{}`))

	results, err := newSearcher(mem, 60).Autocomplete(context.Background(), "zz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

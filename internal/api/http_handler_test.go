package api

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/assistant"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/store"
)

// setupTestChiServer wires the full handler stack over an in-memory bucket.
func setupTestChiServer(t *testing.T, mem *store.MemStore) *httptest.Server {
	t.Helper()
	resolver := catalog.NewResolver(mem)
	handler := NewHTTPHandler(
		catalog.NewProducts(mem, resolver),
		catalog.NewCategories(mem, resolver, 24),
		catalog.NewSearcher(resolver, 60),
		mem,
		cart.NewService(cart.NewCookieStore("test-secret", 3600)),
		cart.NewCheckoutClient("http://127.0.0.1:1/checkout", nil),
		assistant.NewClient("http://127.0.0.1:1/v1", "", "gpt-4.1-mini", nil),
	)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestGetProduct_Success(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/red-shoe.json", []byte(`{"title":"Red Shoe","price":"$49.99"}`))
	server := setupTestChiServer(t, mem)

	res, err := http.Get(server.URL + "/api/pdp/red-shoe")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "public, max-age=300", res.Header.Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "red-shoe", body["slug"])
	product := body["product"].(map[string]any)
	assert.Equal(t, "Red Shoe", product["title"])
	assert.Equal(t, 49.99, product["price"])
	// The untouched source document rides along.
	data := body["data"].(map[string]any)
	assert.Equal(t, "$49.99", data["price"])
}

func TestGetProduct_GzipDocument(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/red-shoe.json.gz", gzipBytes(t, []byte(`{"title":"Red Shoe"}`)))
	server := setupTestChiServer(t, mem)

	code, body := getJSON(t, server.URL+"/api/pdp/red-shoe")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
}

func TestGetProduct_NotFoundEnvelope(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	code, body := getJSON(t, server.URL+"/api/pdp/ghost")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "ghost", body["slug"])
	tried := body["tried"].([]any)
	assert.Contains(t, tried, "product/ghost.json.gz")
	assert.Contains(t, tried, "product/ghost.json")
}

func TestGetProduct_CorruptDocument(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("product/broken.json", []byte(`{"title":`))
	server := setupTestChiServer(t, mem)

	code, body := getJSON(t, server.URL+"/api/pdp/broken")
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["ok"])
}

func TestGetCategory_Success(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/_category_urls.json.gz", []byte(`[
		{"category_key":"women-leggings","url":"/c/women/leggings","title":"Leggings"}
	]`))
	mem.Put("indexes/_index.json", []byte(`[
		{"handle":"a","category_keys":["women-leggings"],"price":30},
		{"handle":"b","category_keys":["women-leggings"],"price":10}
	]`))
	server := setupTestChiServer(t, mem)

	code, body := getJSON(t, server.URL+"/api/category/women/leggings?sort=price_low")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "women-leggings", body["category"])
	assert.Equal(t, "index-filter", body["source"])
	assert.Equal(t, "price_low", body["sort"])

	products := body["products"].([]any)
	require.Len(t, products, 2)
	assert.Equal(t, "b", products[0].(map[string]any)["slug"])

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, 1.0, pagination["page"])
	assert.Equal(t, 24.0, pagination["limit"])
	assert.Equal(t, 2.0, pagination["total_items"])
	assert.Equal(t, 1.0, pagination["total_pages"])
}

func TestGetCategory_QueryPathSpelling(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/_category_urls.json.gz", []byte(`[
		{"category_key":"women","url":"/c/women","title":"Women"}
	]`))
	mem.Put("indexes/_index.json", []byte(`[]`))
	server := setupTestChiServer(t, mem)

	code, body := getJSON(t, server.URL+"/api/category?path=/c/Women/")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "women", body["category"])
}

func TestGetCategory_NotFound(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/_category_urls.json.gz", []byte(`[]`))
	server := setupTestChiServer(t, mem)

	code, body := getJSON(t, server.URL+"/api/category/nope")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "/c/nope", body["category"])
}

func TestGetCategory_IndexUnavailableIsNotFound(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	code, _ := getJSON(t, server.URL+"/api/category/women")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSearch_Success(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/search_index.enriched.json", []byte(`[
		{"handle":"red-shoe","title":"Red Shoe"},
		{"handle":"blue-boot","title":"Blue Boot"}
	]`))
	server := setupTestChiServer(t, mem)

	code, body := getJSON(t, server.URL+"/api/search?q=red")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "red-shoe", items[0].(map[string]any)["slug"])
}

func TestSearch_IndexFailureRidesA200(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	code, body := getJSON(t, server.URL+"/api/search?q=red")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["ok"])
	assert.Empty(t, body["items"])
}

func TestAutocomplete(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/search_autocomplete.json", []byte(`{
		"red": [{"handle":"red-shoe","title":"Red Shoe"}]
	}`))
	server := setupTestChiServer(t, mem)

	code, body := getJSON(t, server.URL+"/api/autocomplete?q=red")
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 1)

	// Below the minimum length nothing is returned, still a 200.
	code, body = getJSON(t, server.URL+"/api/autocomplete?q=r")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["items"])
}

func TestAskAssistant_MissingKey(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	res, err := http.Post(server.URL+"/api/assistant", "application/json",
		bytes.NewBufferString(`{"messages":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "Missing OPENAI_API_KEY", body.Error)
}

func TestAskAssistant_RejectsEmptyConversation(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	res, err := http.Post(server.URL+"/api/assistant", "application/json",
		bytes.NewBufferString(`{"messages":[]}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCheckout_EmptyCart(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	res, err := http.Post(server.URL+"/api/checkout", "application/json",
		bytes.NewBufferString(`{"successUrl":"https://shop.example.com/thanks"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCheckout_UpstreamFailure(t *testing.T) {
	// The handler carries explicit cart lines; the unreachable checkout
	// endpoint surfaces as a 502 envelope.
	server := setupTestChiServer(t, store.NewMemStore())

	res, err := http.Post(server.URL+"/api/checkout", "application/json",
		bytes.NewBufferString(`{"cart":[{"slug":"red-shoe","name":"Red Shoe","price":49.99,"quantity":1}],"successUrl":"https://shop.example.com/thanks"}`))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadGateway, res.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, false, body["ok"])
}

func TestServeIndex_Passthrough(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("indexes/_index.json", []byte(`[{"handle":"a"}]`))
	server := setupTestChiServer(t, mem)

	res, err := http.Get(server.URL + "/indexes/_index.json")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=300", res.Header.Get("Cache-Control"))
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, `[{"handle":"a"}]`, string(body))
}

func TestServeIndex_NotFoundIsPlainText(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	res, err := http.Get(server.URL + "/indexes/missing.json")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/plain")
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "Not found", string(body))
}

func TestServeSitemap(t *testing.T) {
	mem := store.NewMemStore()
	mem.Put("sitemap.xml", []byte(`<?xml version="1.0"?><urlset/>`))
	server := setupTestChiServer(t, mem)

	res, err := http.Get(server.URL + "/sitemap.xml")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/xml; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", res.Header.Get("Cache-Control"))
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())
	jar := newCookieJar(t)
	client := &http.Client{Jar: jar}

	// Add.
	res, err := client.Post(server.URL+"/api/cart/items", "application/json",
		bytes.NewBufferString(`{"slug":"red-shoe","name":"Red Shoe","price":49.99,"quantity":2}`))
	require.NoError(t, err)
	var c map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&c))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	items := c["items"].([]any)
	require.Len(t, items, 1)
	itemID := items[0].(map[string]any)["id"].(string)
	assert.Equal(t, 2.0, c["count"])
	assert.Equal(t, "$99.98", c["subtotal_display"])

	// Update quantity.
	req, _ := http.NewRequest(http.MethodPatch, server.URL+"/api/cart/items/"+itemID,
		bytes.NewBufferString(`{"quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = client.Do(req)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&c))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1.0, c["count"])

	// Remove.
	req, _ = http.NewRequest(http.MethodDelete, server.URL+"/api/cart/items/"+itemID, nil)
	res, err = client.Do(req)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&c))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, c["items"])

	// Unknown ID after removal.
	req, _ = http.NewRequest(http.MethodDelete, server.URL+"/api/cart/items/"+itemID, nil)
	res, err = client.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCartItemValidation(t *testing.T) {
	server := setupTestChiServer(t, store.NewMemStore())

	res, err := http.Post(server.URL+"/api/cart/items", "application/json",
		bytes.NewBufferString(`{"name":"No Slug","price":1}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

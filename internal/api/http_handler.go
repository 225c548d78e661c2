package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/assistant"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	products   *catalog.Products
	categories *catalog.Categories
	searcher   *catalog.Searcher
	objects    store.ObjectStore
	carts      *cart.Service
	checkout   *cart.CheckoutClient
	assistant  *assistant.Client
	validate   *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(
	products *catalog.Products,
	categories *catalog.Categories,
	searcher *catalog.Searcher,
	objects store.ObjectStore,
	carts *cart.Service,
	checkout *cart.CheckoutClient,
	assistantClient *assistant.Client,
) *HTTPHandler {
	return &HTTPHandler{
		products:   products,
		categories: categories,
		searcher:   searcher,
		objects:    objects,
		carts:      carts,
		checkout:   checkout,
		assistant:  assistantClient,
		validate:   validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// --- Product Page Handlers ---

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":    false,
			"error": "Missing slug",
		})
		return
	}

	product, err := h.products.Load(r.Context(), slug)
	if err != nil {
		var notFound *catalog.NotFoundError
		if errors.As(err, &notFound) {
			respondWithJSON(w, http.StatusNotFound, map[string]interface{}{
				"ok":    false,
				"error": "Product not found",
				"slug":  slug,
				"tried": notFound.Tried,
			})
			return
		}
		log.Printf("ERROR: GetProduct load for slug %q failed: %v", slug, err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"ok":    false,
			"error": "Failed to load product",
			"slug":  slug,
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"slug":    slug,
		"data":    json.RawMessage(product.Raw),
		"product": product,
	})
}

// --- Category Handlers ---

func (h *HTTPHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" {
		path = r.URL.Query().Get("path")
	}
	normalized := catalog.NormalizeRoutePath(path)
	if normalized == "" {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":    false,
			"error": "Missing category path",
		})
		return
	}

	category, err := h.categories.Resolve(r.Context(), normalized)
	if err != nil {
		// An unreachable category index resolves nothing, same as an
		// empty one.
		if errors.Is(err, catalog.ErrCategoryNotFound) || errors.Is(err, catalog.ErrIndexUnavailable) {
			respondWithJSON(w, http.StatusNotFound, map[string]interface{}{
				"ok":       false,
				"error":    "Category not found",
				"category": normalized,
			})
			return
		}
		log.Printf("ERROR: GetCategory resolve for path %q failed: %v", normalized, err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"ok":    false,
			"error": "Failed to resolve category",
		})
		return
	}

	set, err := h.categories.Products(r.Context(), category)
	if err != nil {
		// A resolved category whose product set cannot be fetched
		// degrades to an empty grid rather than an error page.
		log.Printf("WARN: GetCategory products for %q failed: %v", category.CategoryKey, err)
		set = &catalog.ProductSet{Source: "unavailable"}
	}

	sortKey := catalog.ParseSortKey(r.URL.Query().Get("sort"))
	catalog.SortEntries(set.Entries, sortKey)

	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page := catalog.Paginate(set.Entries, pageNum, h.categories.PageSize())

	w.Header().Set("Cache-Control", "public, max-age=300")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"category": category.CategoryKey,
		"meta":     category,
		"products": page.Entries,
		"source":   set.Source,
		"sort":     string(sortKey),
		"pagination": map[string]interface{}{
			"page":        page.Number,
			"limit":       page.PageSize,
			"total_items": page.TotalItems,
			"total_pages": page.TotalPages,
		},
	})
}

// --- Search Handlers ---

func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		// The storefront renders an empty result list when the search
		// index cannot be fetched, so the failure rides a 200.
		log.Printf("WARN: Search for %q failed: %v", query, err)
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":    false,
			"error": "Search unavailable",
			"query": query,
			"items": []interface{}{},
		})
		return
	}

	items := make([]interface{}, 0, len(results))
	for _, res := range results {
		items = append(items, res.Entry)
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"query": query,
		"items": items,
	})
}

func (h *HTTPHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	entries, err := h.searcher.Autocomplete(r.Context(), query)
	if err != nil {
		log.Printf("WARN: Autocomplete for %q failed: %v", query, err)
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":    false,
			"error": "Autocomplete unavailable",
			"query": query,
			"items": []interface{}{},
		})
		return
	}

	items := make([]interface{}, 0, len(entries))
	for _, res := range entries {
		items = append(items, res.Entry)
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"query": query,
		"items": items,
	})
}

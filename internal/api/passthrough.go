package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/store"
)

// --- Static Index and Sitemap Passthrough ---

// ServeIndex streams a raw index object (e.g. /indexes/_index.json) from
// the backing store. Bodies are passed through byte for byte, so a .gz
// key serves the compressed bytes the store holds.
func (h *HTTPHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")
	if rest == "" || strings.Contains(rest, "..") {
		serveNotFound(w)
		return
	}

	body, err := h.objects.Get(r.Context(), "indexes/"+rest)
	if err != nil {
		if !errors.Is(err, store.ErrObjectNotFound) {
			log.Printf("WARN: ServeIndex fetch for %q failed: %v", rest, err)
		}
		serveNotFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if strings.HasSuffix(rest, ".gz") {
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(body)
}

// ServeSitemap streams /sitemap.xml and /sitemap-*.xml from the store.
func (h *HTTPHandler) ServeSitemap(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	if !strings.HasPrefix(key, "sitemap") || strings.Contains(key, "..") {
		serveNotFound(w)
		return
	}

	body, err := h.objects.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, store.ErrObjectNotFound) {
			log.Printf("WARN: ServeSitemap fetch for %q failed: %v", key, err)
		}
		serveNotFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(body)
}

func serveNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not found"))
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/pdp/{slug}", h.GetProduct)
		r.Get("/category", h.GetCategory)
		r.Get("/category/*", h.GetCategory)
		r.Get("/search", h.Search)
		r.Get("/autocomplete", h.Autocomplete)
		r.Post("/assistant", h.AskAssistant)
		r.Post("/checkout", h.Checkout)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Patch("/items/{itemID}", h.UpdateCartItem)
			r.Delete("/items/{itemID}", h.RemoveCartItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.GetWishlist)
			r.Post("/items", h.AddWishlistItem)
			r.Delete("/items/{slug}", h.RemoveWishlistItem)
		})
	})

	r.Get("/indexes/*", h.ServeIndex)
	r.Get("/sitemap.xml", h.ServeSitemap)
	r.Get("/sitemap-{rest}", h.ServeSitemap)
}

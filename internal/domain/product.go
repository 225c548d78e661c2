package domain

import (
	"encoding/json"
)

// Product is the canonical product record. Stored documents arrive with many
// legacy field spellings (image vs image_url vs images[], category_key vs
// category_keys); everything is funneled through Normalize* at the boundary so
// downstream code only ever sees this shape. A Product is immutable once
// fetched; edits happen upstream of the object store.
type Product struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Brand       string  `json:"brand,omitempty"`
	Price       float64 `json:"price"`
	WasPrice    float64 `json:"was_price,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	RatingCount int     `json:"rating_count,omitempty"`

	Image  string   `json:"image,omitempty"`
	Images []string `json:"images,omitempty"`

	CategoryKeys []string `json:"category_keys,omitempty"`

	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`

	Reviews    *ReviewSummary `json:"reviews,omitempty"`
	Variations *Variations    `json:"variations,omitempty"`
	Videos     []string       `json:"videos,omitempty"`

	// Raw is the stored document exactly as fetched, for callers that need
	// fields the canonical shape does not model.
	Raw json.RawMessage `json:"-"`
}

// ReviewSummary aggregates the structured reviews attached to a product
// document.
type ReviewSummary struct {
	Average float64  `json:"average,omitempty"`
	Count   int      `json:"count,omitempty"`
	Items   []Review `json:"items,omitempty"`
}

type Review struct {
	Author string  `json:"author,omitempty"`
	Rating float64 `json:"rating,omitempty"`
	Title  string  `json:"title,omitempty"`
	Body   string  `json:"body,omitempty"`
	Date   string  `json:"date,omitempty"`
}

type Variations struct {
	Colors []string `json:"colors,omitempty"`
	Sizes  []string `json:"sizes,omitempty"`
}

// IndexEntry is the lightweight projection of a Product used by listing
// pages. Many entries reference products that have never been fetched.
type IndexEntry struct {
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Brand        string   `json:"brand,omitempty"`
	Category     string   `json:"category,omitempty"`
	CategoryKeys []string `json:"category_keys,omitempty"`
	Image        string   `json:"image,omitempty"`
	Price        float64  `json:"price,omitempty"`
	WasPrice     float64  `json:"was_price,omitempty"`
	Rating       float64  `json:"rating,omitempty"`

	// Path is the storage key recorded by the index builder, when present.
	// Product lookup prefers it over the direct key conventions.
	Path string `json:"path,omitempty"`
}

// CategoryURL maps a canonical category key (a breadcrumb path like
// "Women > Clothing > Active > Leggings") to its stable route path
// ("/c/women/leggings"). The set of these entries is the single source of
// truth for which category routes exist.
type CategoryURL struct {
	CategoryKey string `json:"category_key"`
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Count       int    `json:"count,omitempty"`
}

// SearchEntry is what the search and autocomplete indexes hold. Searchable is
// a pre-normalized text blob built upstream; it is scored, never displayed.
type SearchEntry struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Brand      string `json:"brand,omitempty"`
	Category   string `json:"category,omitempty"`
	Image      string `json:"image,omitempty"`
	Searchable string `json:"searchable,omitempty"`
}

// CartLineItem and WishlistItem live in the visitor session, not in server
// state. Price is captured at add time.
type CartLineItem struct {
	ID       string  `json:"id"`
	Slug     string  `json:"slug"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Quantity int     `json:"quantity"`
}

type WishlistItem struct {
	Slug  string  `json:"slug"`
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
	Image string  `json:"image,omitempty"`
}

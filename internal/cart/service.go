package cart

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

// Predefined errors for cart operations
var (
	ErrItemNotFound = errors.New("cart: item not found")
)

const (
	sessionCookieName  = "storefront-session"
	cartSessionKey     = "cart_items"
	wishlistSessionKey = "wishlist_items"
)

// Cart is the visitor's cart with derived totals. Line math runs on
// decimals; Subtotal is the float projection for JSON consumers and
// SubtotalDisplay the formatted figure shown next to the checkout button.
type Cart struct {
	Items           []domain.CartLineItem `json:"items"`
	Count           int                   `json:"count"`
	Subtotal        float64               `json:"subtotal"`
	SubtotalDisplay string                `json:"subtotal_display"`
}

type Wishlist struct {
	Items []domain.WishlistItem `json:"items"`
}

// Service keeps cart and wishlist state in the visitor's cookie session,
// the server-side analogue of browser-local storage, with the same
// read-modify-write discipline per request.
type Service struct {
	sessions sessions.Store
	money    accounting.Accounting
}

func NewService(store sessions.Store) *Service {
	return &Service{
		sessions: store,
		money:    accounting.Accounting{Symbol: "$", Precision: 2},
	}
}

// NewCookieStore builds the session backend for visitor state.
func NewCookieStore(secret string, maxAge int) sessions.Store {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Cart returns the visitor's current cart. A missing or undecodable session
// yields an empty cart, never an error; a corrupt cookie must not take the
// page down.
func (s *Service) Cart(r *http.Request) *Cart {
	cart := &Cart{Items: s.loadItems(r)}
	s.recalc(cart)
	return cart
}

// AddItem merges an item into the cart: an existing line for the same slug
// gains quantity, otherwise a new line is created.
func (s *Service) AddItem(w http.ResponseWriter, r *http.Request, item domain.CartLineItem) (*Cart, error) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	items := s.loadItems(r)
	merged := false
	for i := range items {
		if items[i].Slug == item.Slug {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		item.ID = uuid.New().String()
		items = append(items, item)
	}

	if err := s.saveItems(w, r, cartSessionKey, items); err != nil {
		return nil, err
	}
	cart := &Cart{Items: items}
	s.recalc(cart)
	return cart, nil
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (s *Service) UpdateItem(w http.ResponseWriter, r *http.Request, id string, quantity int) (*Cart, error) {
	items := s.loadItems(r)
	found := false
	next := items[:0]
	for _, it := range items {
		if it.ID == id {
			found = true
			if quantity <= 0 {
				continue
			}
			it.Quantity = quantity
		}
		next = append(next, it)
	}
	if !found {
		return nil, ErrItemNotFound
	}

	if err := s.saveItems(w, r, cartSessionKey, next); err != nil {
		return nil, err
	}
	cart := &Cart{Items: next}
	s.recalc(cart)
	return cart, nil
}

// RemoveItem deletes a line by ID.
func (s *Service) RemoveItem(w http.ResponseWriter, r *http.Request, id string) (*Cart, error) {
	return s.UpdateItem(w, r, id, 0)
}

// Clear empties the cart.
func (s *Service) Clear(w http.ResponseWriter, r *http.Request) (*Cart, error) {
	if err := s.saveItems(w, r, cartSessionKey, []domain.CartLineItem{}); err != nil {
		return nil, err
	}
	cart := &Cart{}
	s.recalc(cart)
	return cart, nil
}

// Wishlist returns the visitor's wishlist.
func (s *Service) Wishlist(r *http.Request) *Wishlist {
	items := s.loadWishlist(r)
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return &Wishlist{Items: items}
}

// AddToWishlist adds an item keyed by slug; re-adding is a no-op.
func (s *Service) AddToWishlist(w http.ResponseWriter, r *http.Request, item domain.WishlistItem) (*Wishlist, error) {
	items := s.loadWishlist(r)
	for _, it := range items {
		if it.Slug == item.Slug {
			return &Wishlist{Items: items}, nil
		}
	}
	items = append(items, item)
	if err := saveJSON(s.sessions, w, r, wishlistSessionKey, items); err != nil {
		return nil, err
	}
	return &Wishlist{Items: items}, nil
}

// RemoveFromWishlist deletes an item by slug.
func (s *Service) RemoveFromWishlist(w http.ResponseWriter, r *http.Request, slug string) (*Wishlist, error) {
	items := s.loadWishlist(r)
	next := items[:0]
	found := false
	for _, it := range items {
		if it.Slug == slug {
			found = true
			continue
		}
		next = append(next, it)
	}
	if !found {
		return nil, ErrItemNotFound
	}
	if err := saveJSON(s.sessions, w, r, wishlistSessionKey, next); err != nil {
		return nil, err
	}
	return &Wishlist{Items: next}, nil
}

func (s *Service) recalc(c *Cart) {
	subtotal := decimal.Zero
	count := 0
	for _, it := range c.Items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
		count += it.Quantity
	}
	if c.Items == nil {
		c.Items = []domain.CartLineItem{}
	}
	c.Count = count
	c.Subtotal, _ = subtotal.Float64()
	c.SubtotalDisplay = s.money.FormatMoney(subtotal)
}

func (s *Service) loadItems(r *http.Request) []domain.CartLineItem {
	var items []domain.CartLineItem
	loadJSON(s.sessions, r, cartSessionKey, &items)
	return items
}

func (s *Service) loadWishlist(r *http.Request) []domain.WishlistItem {
	var items []domain.WishlistItem
	loadJSON(s.sessions, r, wishlistSessionKey, &items)
	return items
}

func (s *Service) saveItems(w http.ResponseWriter, r *http.Request, key string, items []domain.CartLineItem) error {
	return saveJSON(s.sessions, w, r, key, items)
}

// Session values hold JSON strings rather than gob-encoded structs so the
// cookie payload stays inspectable and type registration is a non-issue.
func loadJSON(store sessions.Store, r *http.Request, key string, out any) {
	session, err := store.Get(r, sessionCookieName)
	if err != nil {
		// A stale or tampered cookie decodes as a fresh session.
		log.Printf("WARN: session decode failed, starting fresh: %v", err)
		return
	}
	raw, ok := session.Values[key].(string)
	if !ok || raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("WARN: discarding undecodable session value %q: %v", key, err)
	}
}

func saveJSON(store sessions.Store, w http.ResponseWriter, r *http.Request, key string, val any) error {
	session, _ := store.Get(r, sessionCookieName)
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	session.Values[key] = string(raw)
	return session.Save(r, w)
}

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/cart"
	"storefront-service/internal/domain"
)

// --- Cart Handlers ---

// CartItemInput defines the expected input for adding a cart item.
type CartItemInput struct {
	Slug     string  `json:"slug" validate:"required,max=255"`
	Name     string  `json:"name" validate:"required,max=512"`
	Price    float64 `json:"price" validate:"gte=0"`
	Image    string  `json:"image" validate:"omitempty,max=2048"`
	Quantity int     `json:"quantity" validate:"omitempty,gte=0,lte=99"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.carts.Cart(r))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var input CartItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	updated, err := h.carts.AddItem(w, r, domain.CartLineItem{
		Slug:     input.Slug,
		Name:     input.Name,
		Price:    input.Price,
		Image:    input.Image,
		Quantity: input.Quantity,
	})
	if err != nil {
		log.Printf("ERROR: AddCartItem failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// CartUpdateInput defines the expected input for changing a line quantity.
type CartUpdateInput struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing item ID")
		return
	}

	var input CartUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	updated, err := h.carts.UpdateItem(w, r, itemID, input.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondWithError(w, http.StatusNotFound, cart.ErrItemNotFound.Error())
			return
		}
		log.Printf("ERROR: UpdateCartItem for %q failed: %v", itemID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing item ID")
		return
	}

	updated, err := h.carts.RemoveItem(w, r, itemID)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondWithError(w, http.StatusNotFound, cart.ErrItemNotFound.Error())
			return
		}
		log.Printf("ERROR: RemoveCartItem for %q failed: %v", itemID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	updated, err := h.carts.Clear(w, r)
	if err != nil {
		log.Printf("ERROR: ClearCart failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// --- Wishlist Handlers ---

// WishlistItemInput defines the expected input for saving a wishlist item.
type WishlistItemInput struct {
	Slug  string  `json:"slug" validate:"required,max=255"`
	Name  string  `json:"name" validate:"required,max=512"`
	Price float64 `json:"price" validate:"gte=0"`
	Image string  `json:"image" validate:"omitempty,max=2048"`
}

func (h *HTTPHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.carts.Wishlist(r))
}

func (h *HTTPHandler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	var input WishlistItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	updated, err := h.carts.AddToWishlist(w, r, domain.WishlistItem{
		Slug:  input.Slug,
		Name:  input.Name,
		Price: input.Price,
		Image: input.Image,
	})
	if err != nil {
		log.Printf("ERROR: AddWishlistItem failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update wishlist")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "Missing slug")
		return
	}

	updated, err := h.carts.RemoveFromWishlist(w, r, slug)
	if err != nil {
		log.Printf("ERROR: RemoveWishlistItem for %q failed: %v", slug, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update wishlist")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"storefront-service/internal/assistant"
	"storefront-service/internal/domain"
)

// CheckoutInput defines the expected input for starting a checkout.
// When no cart lines are supplied the session cart is used.
type CheckoutInput struct {
	Cart       []domain.CartLineItem `json:"cart" validate:"omitempty,dive"`
	SuccessURL string                `json:"successUrl" validate:"required,url,max=2048"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	items := input.Cart
	if len(items) == 0 {
		items = h.carts.Cart(r).Items
	}
	if len(items) == 0 {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":    false,
			"error": "Cart is empty",
		})
		return
	}

	checkoutURL, err := h.checkout.Handoff(r.Context(), items, input.SuccessURL)
	if err != nil {
		log.Printf("ERROR: Checkout handoff failed: %v", err)
		respondWithJSON(w, http.StatusBadGateway, map[string]interface{}{
			"ok":    false,
			"error": "Checkout failed. Please try again.",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"checkoutUrl": checkoutURL,
	})
}

// AssistantInput defines the expected input for the assistant proxy.
type AssistantInput struct {
	Messages []assistant.Message `json:"messages" validate:"required,min=1,dive"`
}

func (h *HTTPHandler) AskAssistant(w http.ResponseWriter, r *http.Request) {
	var input AssistantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	answer, err := h.assistant.Ask(r.Context(), input.Messages)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			respondWithError(w, http.StatusInternalServerError, "Missing OPENAI_API_KEY")
			return
		}
		log.Printf("ERROR: AskAssistant upstream call failed: %v", err)
		respondWithError(w, http.StatusBadGateway, "Assistant unavailable")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respondWithJSON(w, http.StatusOK, answer)
}

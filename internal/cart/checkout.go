package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

var (
	// ErrCheckoutUpstream means the external checkout service returned a
	// non-success status or an unusable body. The visitor stays on the cart
	// page when this surfaces.
	ErrCheckoutUpstream = errors.New("cart: checkout service error")
)

// CheckoutLine is one cart line in the handoff payload. Prices cross the
// wire in integer cents.
type CheckoutLine struct {
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

type checkoutRequest struct {
	Cart       []CheckoutLine `json:"cart"`
	SuccessURL string         `json:"successUrl"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// CheckoutClient hands a cart off to the external checkout service and
// returns the URL the visitor should be redirected to. Payment itself is
// entirely the external service's problem.
type CheckoutClient struct {
	endpoint string
	client   *http.Client
}

func NewCheckoutClient(endpoint string, client *http.Client) *CheckoutClient {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &CheckoutClient{endpoint: endpoint, client: client}
}

// Handoff posts the cart and success URL; a non-2xx status, undecodable
// body, or missing checkoutUrl all collapse into ErrCheckoutUpstream.
func (c *CheckoutClient) Handoff(ctx context.Context, items []domain.CartLineItem, successURL string) (string, error) {
	payload := checkoutRequest{
		Cart:       make([]CheckoutLine, 0, len(items)),
		SuccessURL: successURL,
	}
	for _, it := range items {
		cents := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		payload.Cart = append(payload.Cart, CheckoutLine{
			Title:      it.Name,
			PriceCents: cents,
			Quantity:   it.Quantity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("cart: encoding checkout payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("cart: building checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCheckoutUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrCheckoutUpstream, res.StatusCode)
	}

	var parsed checkoutResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrCheckoutUpstream, err)
	}
	if parsed.CheckoutURL == "" {
		return "", fmt.Errorf("%w: response missing checkoutUrl", ErrCheckoutUpstream)
	}
	return parsed.CheckoutURL, nil
}

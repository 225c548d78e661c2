package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrUpstream means the chat-completion API returned a non-success
	// status or a body without an answer in it.
	ErrUpstream = errors.New("assistant: upstream error")
	// ErrNotConfigured means no API key was provided; the endpoint stays
	// mounted but answers with an error envelope.
	ErrNotConfigured = errors.New("assistant: missing API key")
)

const systemPrompt = "You are Scout, a shopping assistant. Answer clearly, concisely, and only about the product."

// Message is one chat turn, in the upstream API's own shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer carries the extracted reply plus the raw upstream body for callers
// that want the full completion object.
type Answer struct {
	Answer string          `json:"answer"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Client proxies product Q&A to an upstream chat-completion API.
type Client struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewClient(url, apiKey, model string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{url: url, apiKey: apiKey, model: model, client: client}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask prepends the system prompt and forwards the conversation upstream.
func (c *Client) Ask(ctx context.Context, messages []Message) (*Answer, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    append([]Message{{Role: "system", Content: systemPrompt}}, messages...),
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("assistant: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	raw := json.RawMessage{}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: undecodable body: %v", ErrUpstream, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode)
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no answer in response", ErrUpstream)
	}
	return &Answer{Answer: parsed.Choices[0].Message.Content, Raw: raw}, nil
}

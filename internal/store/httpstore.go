package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPStore reads objects from a public bucket endpoint over plain GET.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates an HTTPStore rooted at base (e.g. a public bucket
// URL). A nil client gets a default with a sane timeout.
func NewHTTPStore(base string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPStore{
		base:   strings.TrimRight(base, "/"),
		client: client,
	}
}

func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	url := JoinKey(s.base, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("store: building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json, application/gzip, */*")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: GET %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("store: GET %s: unexpected status %d", url, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("store: reading body of %s: %w", url, err)
	}
	return body, nil
}

// JoinKey joins a base location and an object key without doubling or
// dropping slashes, the usual failure mode when keys are built by string
// concatenation.
func JoinKey(base, key string) string {
	b := strings.TrimRight(base, "/")
	k := strings.TrimLeft(key, "/")
	if b == "" {
		return k
	}
	return b + "/" + k
}

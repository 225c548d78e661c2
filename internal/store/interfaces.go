package store

import (
	"context"
	"errors"
)

// Predefined errors for store operations
var (
	// ErrObjectNotFound means the key does not exist. Callers must treat an
	// unreachable store the same way; there is no reliable way to tell
	// "absent" from "unreachable" at this boundary.
	ErrObjectNotFound = errors.New("store: object not found")
)

// ObjectStore is the passive key/value blob gateway the whole catalog sits
// on: GET <base>/<key> yielding raw bytes or not-found. No listing, no
// transactions, no versioning.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

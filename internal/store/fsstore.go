package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore serves objects from a local directory tree, mirroring the bucket
// layout. Used in development and tests, and for deployments that sync the
// bucket to disk.
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean("/" + strings.TrimLeft(key, "/"))
	path := filepath.Join(s.root, clean)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("store: reading %s: %w", path, err)
	}
	return data, nil
}

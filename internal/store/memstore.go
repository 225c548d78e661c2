package store

import (
	"context"
	"sync"
)

// MemStore is an in-memory ObjectStore. Tests use it as a stand-in bucket;
// it also counts Gets per key so single-flight behavior can be asserted.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		gets:    make(map[string]int),
	}
}

func (s *MemStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

func (s *MemStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
}

func (s *MemStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets[key]++
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// GetCount reports how many times a key has been fetched.
func (s *MemStore) GetCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[key]
}

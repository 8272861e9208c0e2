package runtime

import (
	"context"
	"sync"
)

// Store is a backend for the runtime layer.
type Store interface {
	// Load returns the stored value for name. ok is false when nothing is stored.
	Load(ctx context.Context, name string) (value any, ok bool, err error)

	// Save stores value under name, replacing any previous value.
	Save(ctx context.Context, name string, value any) error

	// All returns every stored value.
	All(ctx context.Context) (map[string]any, error)

	// Close releases backend resources.
	Close() error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]any)}
}

func (s *MemoryStore) Load(_ context.Context, name string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *MemoryStore) All(_ context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

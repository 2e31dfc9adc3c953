package localstore

import (
	"context"
	"sync"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// MemoryStore keeps the encoded cart in process memory. It applies the same
// quota as the durable backends, which makes it the test double of choice.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	quota int
}

// NewMemoryStore creates an empty store; quota <= 0 disables the limit
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{quota: quota}
}

// LoadCart implements cart.LocalStore
func (s *MemoryStore) LoadCart(_ context.Context) ([]cart.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(s.data)
}

// SaveCart implements cart.LocalStore
func (s *MemoryStore) SaveCart(_ context.Context, items []cart.LineItem) error {
	data, err := encode(items, s.quota)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Close implements Backend
func (s *MemoryStore) Close() error { return nil }

var _ Backend = (*MemoryStore)(nil)

package store

import (
	"context"
	"sync"

	"foodtrust/internal/domain"
)

// InMemoryStore keeps the registry lightweight for development and tests. The
// mutex covers the whole check-then-insert so uniqueness holds under
// concurrent registrations.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[domain.ProductID]domain.ProductRecord
}

// NewInMemoryStore constructs an empty in-memory product store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{products: make(map[domain.ProductID]domain.ProductRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record domain.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[record.ID]; ok {
		return ErrConflict
	}
	s.products[record.ID] = record
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.ProductID) (domain.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.products[id]; ok {
		return record, nil
	}
	return domain.ProductRecord{}, ErrNotFound
}

func (s *InMemoryStore) Exists(_ context.Context, id domain.ProductID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.products[id]
	return ok, nil
}

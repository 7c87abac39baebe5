package audit

import (
	"context"
	"sync"

	"foodtrust/internal/domain"
)

// InMemoryStore keeps audit events in memory for development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore constructs an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByProduct(_ context.Context, productID domain.ProductID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Event
	for _, event := range s.events {
		if event.ProductID == productID.String() {
			matched = append(matched, event)
		}
	}
	return matched, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	// Newest first, matching the PostgreSQL store's ordering.
	recent := make([]Event, limit)
	for i := 0; i < limit; i++ {
		recent[i] = s.events[len(s.events)-1-i]
	}
	return recent, nil
}

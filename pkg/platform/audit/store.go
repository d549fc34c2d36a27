package audit

import (
	"context"
	"sync"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPrincipal(ctx context.Context, principalID id.PrincipalID) ([]Event, error)
}

// InMemoryStore keeps events per principal. It intentionally favors clarity
// over performance.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.PrincipalID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.PrincipalID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.PrincipalID] = append(s.events[event.PrincipalID], event)
	return nil
}

func (s *InMemoryStore) ListByPrincipal(_ context.Context, principalID id.PrincipalID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[principalID]...), nil
}

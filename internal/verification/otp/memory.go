package otp

import (
	"context"
	"sync"
	"time"

	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

// MemoryStore keeps challenges in process memory with lazy expiry, the
// default when Redis is not configured.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]memoryEntry
}

type memoryEntry struct {
	challenge Challenge
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{challenges: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(_ context.Context, ch *Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.Email] = memoryEntry{challenge: *ch, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Find(_ context.Context, email string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.challenges[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.challenges, email)
		return nil, sentinel.ErrNotFound
	}
	cp := entry.challenge
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, email)
	return nil
}

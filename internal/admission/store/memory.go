package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

// InMemory keeps admission records in process memory. The claim
// check-and-set runs under the write lock, which is what makes concurrent
// claims resolve to one winner.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.AdmissionNumber]*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.AdmissionNumber]*models.Record)}
}

func (s *InMemory) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Number]; exists {
		return sentinel.ErrConflict
	}
	cp := *record
	s.records[record.Number] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, number id.AdmissionNumber) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) Claim(_ context.Context, number id.AdmissionNumber, principalID id.PrincipalID, now time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.Claimed {
		return nil, sentinel.ErrAlreadyUsed
	}
	r.ApplyClaim(principalID, now)
	cp := *r
	return &cp, nil
}

func (s *InMemory) Release(_ context.Context, number id.AdmissionNumber, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[number]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.ApplyRelease(now)
	return nil
}

func (s *InMemory) Delete(_ context.Context, number id.AdmissionNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[number]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Claimed {
		return sentinel.ErrInvalidState
	}
	delete(s.records, number)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

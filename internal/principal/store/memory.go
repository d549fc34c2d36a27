package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

// InMemory keeps principals in process memory. It intentionally favors
// clarity over performance and is the default for tests and local runs.
type InMemory struct {
	mu         sync.RWMutex
	principals map[id.PrincipalID]*models.Principal
	byEmail    map[string]id.PrincipalID
}

func NewInMemory() *InMemory {
	return &InMemory{
		principals: make(map[id.PrincipalID]*models.Principal),
		byEmail:    make(map[string]id.PrincipalID),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(p.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	cp := *p
	s.principals[p.ID] = &cp
	s.byEmail[email] = p.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.principals[principalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.principals[pid]
	return &cp, nil
}

// Execute holds the write lock across validate and mutate so concurrent
// transitions on the same principal serialize.
func (s *InMemory) Execute(_ context.Context, principalID id.PrincipalID, validate func(*models.Principal) error, mutate func(*models.Principal)) (*models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	mutate(p)
	cp := *p
	return &cp, nil
}

func (s *InMemory) ListDeactivationDue(_ context.Context, now time.Time) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []*models.Principal
	for _, p := range s.principals {
		if p.Role == id.RoleAdmin || p.Account != id.AccountActive {
			continue
		}
		if p.VerificationDeadline == nil || p.VerificationDeadline.After(now) {
			continue
		}
		cp := *p
		due = append(due, &cp)
	}
	return due, nil
}

func (s *InMemory) ListWarningDue(_ context.Context, now, until time.Time) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []*models.Principal
	for _, p := range s.principals {
		if p.Role == id.RoleAdmin || p.Account != id.AccountActive || p.DeactivationWarningSent {
			continue
		}
		if p.VerificationDeadline == nil {
			continue
		}
		d := *p.VerificationDeadline
		if d.After(now) && !d.After(until) {
			cp := *p
			due = append(due, &cp)
		}
	}
	return due, nil
}

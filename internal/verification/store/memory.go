package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

// InMemory keeps requests in process memory, the default for tests and
// local runs.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.Request)}
}

func (s *InMemory) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := cloneRequest(req)
	s.requests[req.ID] = cp
	return nil
}

func (s *InMemory) Find(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *InMemory) FindPendingByPrincipal(_ context.Context, principalID id.PrincipalID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.PrincipalID == principalID && req.Status == models.RequestPending {
			return cloneRequest(req), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Execute holds the write lock across validate and mutate so a request is
// decided exactly once under concurrent reviewers.
func (s *InMemory) Execute(_ context.Context, requestID id.RequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(req); err != nil {
			return nil, err
		}
	}
	mutate(req)
	return cloneRequest(req), nil
}

func (s *InMemory) ListPending(_ context.Context) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*models.Request
	for _, req := range s.requests {
		if req.Status == models.RequestPending {
			pending = append(pending, cloneRequest(req))
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
	})
	return pending, nil
}

func cloneRequest(req *models.Request) *models.Request {
	cp := *req
	if req.OnboardingAnswers != nil {
		cp.OnboardingAnswers = make(map[string]string, len(req.OnboardingAnswers))
		for k, v := range req.OnboardingAnswers {
			cp.OnboardingAnswers[k] = v
		}
	}
	return &cp
}

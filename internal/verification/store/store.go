// Package store persists verification requests. Execute is the only
// mutation path for existing requests so decisions stay single-shot.
package store

import (
	"context"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

type Store interface {
	// Create persists a new request.
	Create(ctx context.Context, req *models.Request) error

	// Find returns sentinel.ErrNotFound when absent.
	Find(ctx context.Context, requestID id.RequestID) (*models.Request, error)

	// FindPendingByPrincipal returns the principal's open request, or
	// sentinel.ErrNotFound when there is none. Backs the one-open-request
	// invariant checked at submit time.
	FindPendingByPrincipal(ctx context.Context, principalID id.PrincipalID) (*models.Request, error)

	// Execute atomically validates then mutates a request. Validation
	// errors abort the write.
	Execute(ctx context.Context, requestID id.RequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error)

	// ListPending returns all pending requests, oldest first, for the
	// admin review queue.
	ListPending(ctx context.Context) ([]*models.Request, error)
}

// Package store persists principals. Implementations must treat Execute as
// the only mutation path for existing principals: it holds the store's lock
// (mutex or SELECT ... FOR UPDATE) across validate and mutate so status
// transitions and the capability cache land in one write.
package store

import (
	"context"
	"time"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

type Store interface {
	// Create persists a new principal. Returns sentinel.ErrConflict when
	// the email is already registered.
	Create(ctx context.Context, p *models.Principal) error

	// FindByID returns sentinel.ErrNotFound when absent.
	FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)

	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)

	// Execute atomically validates then mutates a principal. The mutated
	// copy is persisted and returned. Validation errors abort the write.
	Execute(ctx context.Context, principalID id.PrincipalID, validate func(*models.Principal) error, mutate func(*models.Principal)) (*models.Principal, error)

	// ListDeactivationDue returns active, non-admin principals whose
	// verification deadline is at or before now. The caller applies the
	// access-policy filter; the store only matches on stored fields.
	ListDeactivationDue(ctx context.Context, now time.Time) ([]*models.Principal, error)

	// ListWarningDue returns active, non-admin, not-yet-warned principals
	// whose deadline falls in (now, until].
	ListWarningDue(ctx context.Context, now, until time.Time) ([]*models.Principal, error)
}

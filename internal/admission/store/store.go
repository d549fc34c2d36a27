// Package store persists admission records. Claim is the one operation with
// a genuine race: implementations must make it a conditional write so that
// concurrent claimants resolve to exactly one winner.
package store

import (
	"context"
	"time"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

type Store interface {
	// Create persists a new record. Returns sentinel.ErrConflict when the
	// number already exists.
	Create(ctx context.Context, record *models.Record) error

	// Find returns sentinel.ErrNotFound when absent.
	Find(ctx context.Context, number id.AdmissionNumber) (*models.Record, error)

	// Claim atomically assigns the record to the principal. Returns
	// sentinel.ErrNotFound when absent and sentinel.ErrAlreadyUsed when
	// another principal won the race (or claimed earlier).
	Claim(ctx context.Context, number id.AdmissionNumber, principalID id.PrincipalID, now time.Time) (*models.Record, error)

	// Release clears the claim unconditionally. Returns
	// sentinel.ErrNotFound when absent.
	Release(ctx context.Context, number id.AdmissionNumber, now time.Time) error

	// Delete removes an unclaimed record. Returns sentinel.ErrNotFound
	// when absent and sentinel.ErrInvalidState while claimed.
	Delete(ctx context.Context, number id.AdmissionNumber) error

	// List returns all records, for admin tooling.
	List(ctx context.Context) ([]*models.Record, error)
}

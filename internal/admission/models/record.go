package models

import (
	"strings"
	"time"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
)

// Record is a pre-issued admission entry keyed by the normalized admission
// number.
//
// Invariants:
//   - Number is non-empty and case-normalized (uppercase)
//   - Claimed == true ⇔ ClaimedBy != nil
//   - At most one claimant per record, ever; the store's conditional write
//     enforces the race
//   - A claimed record cannot be deleted
type Record struct {
	Number         id.AdmissionNumber `json:"admission_number"`
	FullName       string             `json:"full_name"`
	GraduationYear int                `json:"graduation_year"`
	Course         string             `json:"course"`
	Claimed        bool               `json:"claimed"`
	ClaimedBy      *id.PrincipalID    `json:"claimed_by,omitempty"`
	ClaimedAt      *time.Time         `json:"claimed_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// New constructs an unclaimed record.
func New(number id.AdmissionNumber, fullName string, graduationYear int, course string, now time.Time) (*Record, error) {
	fullName = strings.TrimSpace(fullName)
	if number.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admission number cannot be empty")
	}
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "full name cannot be empty")
	}
	if graduationYear < 1900 || graduationYear > 2200 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "graduation year out of range")
	}
	return &Record{
		Number:         number,
		FullName:       fullName,
		GraduationYear: graduationYear,
		Course:         strings.TrimSpace(course),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanClaim checks the claim precondition. The store must re-check under its
// lock; this exists for read-path validation messages.
func (r *Record) CanClaim() error {
	if r.Claimed {
		return dErrors.New(dErrors.CodeConflict, "admission number already claimed")
	}
	return nil
}

// ApplyClaim assigns the record to a principal. Call only under the store's
// lock after CanClaim.
func (r *Record) ApplyClaim(principalID id.PrincipalID, now time.Time) {
	r.Claimed = true
	r.ClaimedBy = &principalID
	r.ClaimedAt = &now
	r.UpdatedAt = now
}

// ApplyRelease clears the claim. Administrative releases do not require the
// original claimant's confirmation.
func (r *Record) ApplyRelease(now time.Time) {
	r.Claimed = false
	r.ClaimedBy = nil
	r.ClaimedAt = nil
	r.UpdatedAt = now
}

// CanDelete refuses deletion while claimed, protecting principals who
// already registered with the record.
func (r *Record) CanDelete() error {
	if r.Claimed {
		return dErrors.New(dErrors.CodeInvariantViolation, "record is claimed")
	}
	return nil
}

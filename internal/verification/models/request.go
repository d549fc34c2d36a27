// Package models defines the verification request aggregate and the
// read-only admission validation result.
package models

import (
	"strings"
	"time"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
)

// RequestStatus tracks a verification request through review.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ValidationStatus is the outcome taxonomy of a read-only admission check.
type ValidationStatus string

const (
	// ValidationNotFound: the number is absent from the registry.
	ValidationNotFound ValidationStatus = "not_found"
	// ValidationAlreadyUsed: someone else already claimed the number.
	ValidationAlreadyUsed ValidationStatus = "already_used"
	// ValidationNameMismatch: the claimed name falls below the similarity
	// threshold against the registry's canonical name.
	ValidationNameMismatch ValidationStatus = "name_mismatch"
	// ValidationYearCorrected: the name matches but the supplied graduation
	// year differs; the registry's year is authoritative. Still valid.
	ValidationYearCorrected ValidationStatus = "year_corrected"
	// ValidationValid: full match.
	ValidationValid ValidationStatus = "valid"
)

// ValidationResult is returned by the read-only admission check. It never
// reflects a mutation; claiming happens at submit time.
type ValidationResult struct {
	Valid   bool             `json:"valid"`
	Status  ValidationStatus `json:"status"`
	Message string           `json:"message"`
	// SuggestedName echoes the registry's canonical name on a mismatch so
	// the caller can prompt the user to correct a typo.
	SuggestedName string `json:"suggested_name,omitempty"`
	// CorrectedYear carries the registry's authoritative graduation year
	// when the supplied one differs.
	CorrectedYear int `json:"corrected_year,omitempty"`
}

// Request is a verification submission awaiting (or past) review.
//
// Invariants:
//   - Status == rejected implies RejectionReason != ""
//   - ReviewerID and ReviewedAt are set together, exactly once
//   - Immutable once decided except for downstream account-state effects
//   - At most one pending request per principal (enforced at submit)
type Request struct {
	ID          id.RequestID          `json:"id"`
	PrincipalID id.PrincipalID        `json:"principal_id"`
	Role        id.Role               `json:"role"`
	Method      id.VerificationMethod `json:"method"`
	Status      RequestStatus         `json:"status"`
	// EvidenceURL is the document reference for the id_card path, or the
	// OTP-confirmation marker for the email_otp path.
	EvidenceURL     string             `json:"evidence_url,omitempty"`
	AdmissionNumber id.AdmissionNumber `json:"admission_number,omitempty"`
	// OnboardingAnswers is a structured key-value side table of known
	// onboarding fields (course, batch, current employer, ...).
	OnboardingAnswers map[string]string `json:"onboarding_answers,omitempty"`
	RejectionReason   string            `json:"rejection_reason,omitempty"`
	ReviewerID        *id.ReviewerID    `json:"reviewer_id,omitempty"`
	ReviewedAt        *time.Time        `json:"reviewed_at,omitempty"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewPending constructs a pending request for the reviewed (id_card) path.
func NewPending(principalID id.PrincipalID, role id.Role, evidenceURL string, number id.AdmissionNumber, answers map[string]string, now time.Time) *Request {
	return &Request{
		ID:                id.NewRequestID(),
		PrincipalID:       principalID,
		Role:              role,
		Method:            id.MethodIDCard,
		Status:            RequestPending,
		EvidenceURL:       evidenceURL,
		AdmissionNumber:   number,
		OnboardingAnswers: answers,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}
}

// NewAutoApproved constructs the audit-trail request for the aspirant
// email-OTP path, which needs no administrator step.
func NewAutoApproved(principalID id.PrincipalID, role id.Role, answers map[string]string, now time.Time) *Request {
	return &Request{
		ID:                id.NewRequestID(),
		PrincipalID:       principalID,
		Role:              role,
		Method:            id.MethodEmailOTP,
		Status:            RequestApproved,
		EvidenceURL:       "otp:confirmed",
		OnboardingAnswers: answers,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}
}

// CanDecide guards review: only pending requests may be decided, once.
func (r *Request) CanDecide() error {
	if r.Status != RequestPending {
		return dErrors.New(dErrors.CodeConflict, "request already decided")
	}
	return nil
}

// ApplyApproval records the reviewer's approval. Call CanDecide first.
func (r *Request) ApplyApproval(reviewerID id.ReviewerID, now time.Time) {
	r.Status = RequestApproved
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &now
	r.UpdatedAt = now
}

// ApplyRejection records the reviewer's rejection. The reason must already
// be validated non-empty by the caller.
func (r *Request) ApplyRejection(reviewerID id.ReviewerID, reason string, now time.Time) {
	r.Status = RequestRejected
	r.RejectionReason = strings.TrimSpace(reason)
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &now
	r.UpdatedAt = now
}

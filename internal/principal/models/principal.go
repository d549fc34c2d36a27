package models

import (
	"strings"
	"time"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
)

// Capabilities are the feature gates derived from role, verification state,
// and account status. They are a materialized cache for query convenience,
// never the source of truth: every status-changing write recomputes them in
// the same store mutation (see internal/policy).
type Capabilities struct {
	CanPostJobs         bool `json:"can_post_jobs"`
	CanPostFeed         bool `json:"can_post_feed"`
	CanMessage          bool `json:"can_message"`
	CanAcceptMentorship bool `json:"can_accept_mentorship"`
}

// Principal is the aggregate root for an account.
//
// Invariants:
//   - Email is non-empty and stored lowercase
//   - Role, VerificationStatus, AccountStatus are valid enum values
//   - Role == admin implies AccountStatus == active and all capability
//     flags true, regardless of every other field (the policy layer
//     enforces this; stores never special-case admins)
//   - Principals are never hard-deleted; soft account states only
type Principal struct {
	ID                id.PrincipalID        `json:"id"`
	Email             string                `json:"email"`
	FullName          string                `json:"full_name"`
	PasswordHash      string                `json:"-"`
	Role              id.Role               `json:"role"`
	Verification      id.VerificationStatus `json:"verification_status"`
	AdmissionVerified bool                  `json:"admission_verified"`
	EmailVerified     bool                  `json:"email_verified"`
	AdmissionNumber   id.AdmissionNumber    `json:"admission_number,omitempty"`
	Account           id.AccountStatus      `json:"account_status"`
	// StatusReason records why the account left the active state.
	StatusReason            string       `json:"status_reason,omitempty"`
	VerificationDeadline    *time.Time   `json:"verification_deadline,omitempty"`
	DeactivationWarningSent bool         `json:"deactivation_warning_sent"`
	DeactivatedAt           *time.Time   `json:"deactivated_at,omitempty"`
	Capabilities            Capabilities `json:"capabilities"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`
}

// New constructs a fresh unverified principal. Non-admin accounts get a
// stage-1 deadline; admins never carry one.
func New(principalID id.PrincipalID, email, fullName, passwordHash string, role id.Role, deadline time.Duration, now time.Time) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	p := &Principal{
		ID:           principalID,
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: passwordHash,
		Role:         role,
		Verification: id.VerificationUnverified,
		Account:      id.AccountActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role != id.RoleAdmin {
		d := now.Add(deadline)
		p.VerificationDeadline = &d
	}
	return p, nil
}

// IsDeadlinePast reports whether the stage-1 deadline has passed.
func (p *Principal) IsDeadlinePast(now time.Time) bool {
	return p.VerificationDeadline != nil && !p.VerificationDeadline.After(now)
}

// CanAutoDeactivate checks whether the lifecycle sweep may deactivate this
// principal. Admins and already-inactive accounts are excluded so repeated
// sweeps stay idempotent.
func (p *Principal) CanAutoDeactivate() error {
	if p.Role == id.RoleAdmin {
		return dErrors.New(dErrors.CodeInvariantViolation, "admin accounts cannot be deactivated")
	}
	if p.Account != id.AccountActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is not active")
	}
	return nil
}

// ApplyAutoDeactivation transitions the account to auto_deactivated and
// records why. Call CanAutoDeactivate first.
func (p *Principal) ApplyAutoDeactivation(reason string, now time.Time) {
	p.Account = id.AccountAutoDeactivated
	p.StatusReason = reason
	p.DeactivatedAt = &now
	p.UpdatedAt = now
}

// ApplyReactivation restores the account to active. Clears the deactivation
// bookkeeping so a later sweep starts from a clean slate.
func (p *Principal) ApplyReactivation(now time.Time) {
	p.Account = id.AccountActive
	p.StatusReason = ""
	p.DeactivatedAt = nil
	p.UpdatedAt = now
}

// ApplyStageOne marks the admission-number stage complete: status pending,
// admission verified, claimed number recorded.
func (p *Principal) ApplyStageOne(number id.AdmissionNumber, now time.Time) {
	p.Verification = id.VerificationPending
	p.AdmissionVerified = true
	p.AdmissionNumber = number
	p.UpdatedAt = now
}

// ApplyApproval marks stage 2 complete.
func (p *Principal) ApplyApproval(now time.Time) {
	p.Verification = id.VerificationApproved
	p.UpdatedAt = now
}

// ApplyRejection marks the administrator's rejection. The principal may
// resubmit; account status and claims are left untouched.
func (p *Principal) ApplyRejection(now time.Time) {
	p.Verification = id.VerificationRejected
	p.UpdatedAt = now
}

// ApplyEmailVerified marks the aspirant email-OTP path complete.
func (p *Principal) ApplyEmailVerified(now time.Time) {
	p.Verification = id.VerificationApproved
	p.EmailVerified = true
	p.UpdatedAt = now
}

// MarkWarned records that the pre-deadline warning went out.
func (p *Principal) MarkWarned(now time.Time) {
	p.DeactivationWarningSent = true
	p.UpdatedAt = now
}

// ExtendDeadline pushes the verification deadline forward by the given
// number of days from max(current deadline, now) and resets the warning
// flag so a future, now-legitimate warning is not suppressed.
func (p *Principal) ExtendDeadline(days int, now time.Time) {
	base := now
	if p.VerificationDeadline != nil && p.VerificationDeadline.After(now) {
		base = *p.VerificationDeadline
	}
	d := base.AddDate(0, 0, days)
	p.VerificationDeadline = &d
	p.DeactivationWarningSent = false
	p.UpdatedAt = now
}

// Package policy derives feature capabilities from role, verification
// state, and account status. This is pure domain logic - no I/O, no side
// effects - so every call site computes from the same formula and the
// cached flags on the principal document can never drift from it.
//
// Admins are categorically exempt: every check passes for role == admin
// regardless of any other field, and nothing here may short-circuit that.
package policy

import (
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

// IsDeactivated reports whether the account is out of service. Admins are
// never deactivated.
func IsDeactivated(p *models.Principal) bool {
	if p.Role == id.RoleAdmin {
		return false
	}
	return p.Account == id.AccountAutoDeactivated || p.Account == id.AccountSuspended
}

// IsFullyVerified reports whether both verification stages are complete.
// Aspirants never set AdmissionVerified, so they are fully verified only
// via the admin clause; their capabilities come from the approved email
// path below.
func IsFullyVerified(p *models.Principal) bool {
	if p.Role == id.RoleAdmin {
		return true
	}
	return !IsDeactivated(p) &&
		p.Verification == id.VerificationApproved &&
		p.AdmissionVerified
}

// aspirantApproved is the single-stage aspirant path: approved through a
// confirmed email OTP, account still in service.
func aspirantApproved(p *models.Principal) bool {
	return p.Role == id.RoleAspirant &&
		!IsDeactivated(p) &&
		p.Verification == id.VerificationApproved &&
		p.EmailVerified
}

// CanPostJobs is restricted to verified alumni and admins.
func CanPostJobs(p *models.Principal) bool {
	if p.Role == id.RoleAdmin {
		return true
	}
	return p.Role == id.RoleAlumni && IsFullyVerified(p)
}

// CanPostFeed opens the social feed to any verified principal.
func CanPostFeed(p *models.Principal) bool {
	if p.Role == id.RoleAdmin {
		return true
	}
	return IsFullyVerified(p) || aspirantApproved(p)
}

// CanMessage opens messaging to any verified principal.
func CanMessage(p *models.Principal) bool {
	if p.Role == id.RoleAdmin {
		return true
	}
	return IsFullyVerified(p) || aspirantApproved(p)
}

// CanAcceptMentorship is restricted to verified alumni and admins.
func CanAcceptMentorship(p *models.Principal) bool {
	if p.Role == id.RoleAdmin {
		return true
	}
	return p.Role == id.RoleAlumni && IsFullyVerified(p)
}

// Capabilities materializes all flags for caching on the principal
// document. Callers must write the result in the same store mutation as
// whatever status change prompted the recompute.
func Capabilities(p *models.Principal) models.Capabilities {
	return models.Capabilities{
		CanPostJobs:         CanPostJobs(p),
		CanPostFeed:         CanPostFeed(p),
		CanMessage:          CanMessage(p),
		CanAcceptMentorship: CanAcceptMentorship(p),
	}
}

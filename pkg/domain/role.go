package domain

import dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"

// Role classifies a principal and determines which verification path and
// capability set applies.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

const (
	RoleStudent  Role = "student"
	RoleAlumni   Role = "alumni"
	RoleAspirant Role = "aspirant"
	RoleAdmin    Role = "admin"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleStudent:  true,
	RoleAlumni:   true,
	RoleAspirant: true,
	RoleAdmin:    true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// RequiresAdmission reports whether the role verifies through the two-stage
// admission-number path rather than the email-OTP path.
func (r Role) RequiresAdmission() bool {
	return r == RoleStudent || r == RoleAlumni
}

func (r Role) String() string { return string(r) }

package domain

import dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"

// VerificationStatus tracks where a principal sits in the trust-escalation
// state machine.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationApproved   VerificationStatus = "approved"
	VerificationRejected   VerificationStatus = "rejected"
)

var validVerificationStatuses = map[VerificationStatus]bool{
	VerificationUnverified: true,
	VerificationPending:    true,
	VerificationApproved:   true,
	VerificationRejected:   true,
}

// ParseVerificationStatus constructs a VerificationStatus from external input.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	v := VerificationStatus(s)
	if !validVerificationStatuses[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid verification status")
	}
	return v, nil
}

func (v VerificationStatus) String() string { return string(v) }

// AccountStatus tracks whether a principal may act at all. Accounts are
// never hard-deleted; soft states only.
type AccountStatus string

const (
	AccountActive          AccountStatus = "active"
	AccountAutoDeactivated AccountStatus = "auto_deactivated"
	AccountSuspended       AccountStatus = "suspended"
)

var validAccountStatuses = map[AccountStatus]bool{
	AccountActive:          true,
	AccountAutoDeactivated: true,
	AccountSuspended:       true,
}

// ParseAccountStatus constructs an AccountStatus from external input.
func ParseAccountStatus(s string) (AccountStatus, error) {
	a := AccountStatus(s)
	if !validAccountStatuses[a] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid account status")
	}
	return a, nil
}

func (a AccountStatus) String() string { return string(a) }

// VerificationMethod identifies the evidence path of a request.
type VerificationMethod string

const (
	MethodIDCard   VerificationMethod = "id_card"
	MethodEmailOTP VerificationMethod = "email_otp"
)

var validMethods = map[VerificationMethod]bool{
	MethodIDCard:   true,
	MethodEmailOTP: true,
}

// ParseVerificationMethod constructs a VerificationMethod from external input.
func ParseVerificationMethod(s string) (VerificationMethod, error) {
	m := VerificationMethod(s)
	if !validMethods[m] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid verification method")
	}
	return m, nil
}

func (m VerificationMethod) String() string { return string(m) }

package domain

import (
	"strings"

	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
)

// AdmissionNumber is the natural key of a pre-issued admission record.
// Invariant: stored case-normalized (uppercase, trimmed) so lookups and
// claims never miss on casing.
type AdmissionNumber string

// ParseAdmissionNumber normalizes and validates an admission number from
// external input.
//
// Errors: CodeInvalidInput when the value is empty after trimming or
// unreasonably long.
func ParseAdmissionNumber(s string) (AdmissionNumber, error) {
	n := strings.ToUpper(strings.TrimSpace(s))
	if n == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "admission number cannot be empty")
	}
	if len(n) > 32 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "admission number must be 32 characters or less")
	}
	return AdmissionNumber(n), nil
}

func (n AdmissionNumber) String() string { return string(n) }

func (n AdmissionNumber) IsNil() bool { return n == "" }

// Package domain holds typed identifiers and domain primitives shared across
// modules. Constructing values via the Parse functions at trust boundaries
// enforces validity; direct casting bypasses validation.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types prevent accidentally passing a
// request ID where a principal ID is expected; the compiler enforces it.
type (
	// PrincipalID identifies a registered account.
	PrincipalID uuid.UUID

	// RequestID identifies a verification request.
	RequestID uuid.UUID

	// ReviewerID identifies the administrator who decided a request.
	ReviewerID uuid.UUID
)

// NewPrincipalID returns a fresh random principal ID.
func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }

// NewRequestID returns a fresh random request ID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id PrincipalID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id RequestID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ReviewerID) String() string { return uuid.UUID(id).String() }
func (id ReviewerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParsePrincipalID validates and returns a PrincipalID.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil
// UUID; no other errors are expected.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parseUUID(s, "principal id")
	if err != nil {
		return PrincipalID{}, err
	}
	return PrincipalID(u), nil
}

// ParseRequestID validates and returns a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

// ParseReviewerID validates and returns a ReviewerID.
func ParseReviewerID(s string) (ReviewerID, error) {
	u, err := parseUUID(s, "reviewer id")
	if err != nil {
		return ReviewerID{}, err
	}
	return ReviewerID(u), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", what)
	}
	return u, nil
}

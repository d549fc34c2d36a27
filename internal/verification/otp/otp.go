// Package otp implements the email one-time-code challenge used by the
// aspirant verification path: 6-digit numeric codes, hashed at rest,
// 10-minute expiry, 5-attempt cap, never reused.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

const (
	CodeLength  = 6
	TTL         = 10 * time.Minute
	MaxAttempts = 5
)

// Challenge is one issued code, keyed by email. Only the hash is stored.
type Challenge struct {
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
	Attempts  int       `json:"attempts"`
}

// Expired reports whether the challenge is past its TTL.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Store persists challenges with a TTL. Implementations key by
// lowercased email.
type Store interface {
	// Save upserts the challenge with the given TTL.
	Save(ctx context.Context, ch *Challenge, ttl time.Duration) error

	// Find returns sentinel.ErrNotFound when absent or expired out.
	Find(ctx context.Context, email string) (*Challenge, error)

	// Delete removes the challenge. Missing keys are not an error.
	Delete(ctx context.Context, email string) error
}

// CodeSender delivers the plaintext code to the principal's email.
// Fire and forget: failures are surfaced once, never retried here.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// Service issues and checks challenges.
type Service struct {
	store  Store
	sender CodeSender
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, sender CodeSender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("otp store is required")
	}
	if sender == nil {
		return nil, errors.New("otp code sender is required")
	}
	svc := &Service{store: store, sender: sender, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Send issues a fresh code for the email, replacing any outstanding
// challenge, and delivers it via the sender.
func (s *Service) Send(ctx context.Context, email string, now time.Time) error {
	email = normalizeEmail(email)
	if email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email cannot be empty")
	}

	code, err := generateCode(CodeLength)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	ch := &Challenge{
		Email:     email,
		CodeHash:  hashCode(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(TTL),
	}
	if err := s.store.Save(ctx, ch, TTL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store challenge")
	}
	if err := s.sender.SendCode(ctx, email, code); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send code")
	}

	s.logger.InfoContext(ctx, "otp issued", "email", email, "expires_at", ch.ExpiresAt)
	return nil
}

// Confirm checks the code against the outstanding challenge. A correct code
// marks the challenge verified; a wrong one burns an attempt, and the fifth
// wrong attempt destroys the challenge.
//
// Errors: CodeNotFound with no outstanding challenge, CodeExpired past the
// TTL or after attempt exhaustion, CodeInvalidInput on a wrong or malformed
// code.
func (s *Service) Confirm(ctx context.Context, email, code string, now time.Time) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if len(code) != CodeLength {
		return dErrors.New(dErrors.CodeInvalidInput, "code must be 6 digits")
	}

	ch, err := s.store.Find(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no outstanding code, request a new one")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}
	if ch.Expired(now) {
		_ = s.store.Delete(ctx, email)
		return dErrors.New(dErrors.CodeExpired, "code expired, request a new one")
	}

	if subtle.ConstantTimeCompare([]byte(ch.CodeHash), []byte(hashCode(code))) != 1 {
		ch.Attempts++
		if ch.Attempts >= MaxAttempts {
			_ = s.store.Delete(ctx, email)
			s.logger.WarnContext(ctx, "otp attempts exhausted", "email", email)
			return dErrors.New(dErrors.CodeExpired, "too many attempts, request a new code")
		}
		if err := s.store.Save(ctx, ch, ch.ExpiresAt.Sub(now)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attempt")
		}
		return dErrors.New(dErrors.CodeInvalidInput, "incorrect code")
	}

	ch.Verified = true
	if err := s.store.Save(ctx, ch, ch.ExpiresAt.Sub(now)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark challenge verified")
	}
	s.logger.InfoContext(ctx, "otp confirmed", "email", email)
	return nil
}

// Consume checks that the email holds a verified, unexpired challenge and
// destroys it so the confirmation cannot back a second submission.
func (s *Service) Consume(ctx context.Context, email string, now time.Time) error {
	email = normalizeEmail(email)
	ch, err := s.store.Find(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidInput, "email is not verified")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}
	if !ch.Verified || ch.Expired(now) {
		return dErrors.New(dErrors.CodeInvalidInput, "email is not verified")
	}
	if err := s.store.Delete(ctx, email); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume challenge")
	}
	return nil
}

func generateCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

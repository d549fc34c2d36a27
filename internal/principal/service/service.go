// Package service implements account signup, login, and the capability
// read path.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/policy"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/store"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/email"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/audit"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

const minPasswordLength = 8

// TokenIssuer signs access tokens at login.
type TokenIssuer interface {
	Issue(principalID id.PrincipalID, role id.Role, now time.Time) (string, error)
}

// AuditPublisher emits audit events for account actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SignupInput carries one public signup.
type SignupInput struct {
	Email    string
	FullName string
	Password string
	Role     string
}

// Session is a successful login.
type Session struct {
	Token     string            `json:"token"`
	Principal *models.Principal `json:"principal"`
}

type Service struct {
	principals     store.Store
	tokens         TokenIssuer
	deadline       time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// New constructs the account service. deadline is how long a fresh signup
// has to complete stage-1 verification.
func New(principals store.Store, tokens TokenIssuer, deadline time.Duration, opts ...Option) (*Service, error) {
	if principals == nil {
		return nil, errors.New("principal store is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	svc := &Service{
		principals: principals,
		tokens:     tokens,
		deadline:   deadline,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Signup creates an unverified active principal with a verification
// deadline. Admin accounts are provisioned out of band, never here.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.Principal, error) {
	role, err := id.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin accounts cannot be self-registered")
	}

	addr := email.Normalize(in.Email)
	if !email.IsPlausible(addr) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email address is not valid")
	}
	if len(in.Password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	fullName := in.FullName
	if fullName == "" {
		fullName = email.DisplayName(addr)
	}

	now := requestcontext.Now(ctx)
	principal, err := models.New(id.NewPrincipalID(), addr, fullName, string(hash), role, s.deadline, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, dErrors.MessageOf(err))
	}
	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.emit(ctx, audit.Event{
		PrincipalID: principal.ID,
		Action:      audit.EventPrincipalCreated,
		Reason:      role.String(),
	})
	s.logger.InfoContext(ctx, "principal created",
		"principal_id", principal.ID,
		"role", role,
	)
	return principal, nil
}

// Login checks credentials and issues an access token. Deactivated accounts
// may still log in: completing verification is how they reactivate.
// Suspended accounts may not.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*Session, error) {
	principal, err := s.principals.FindByEmail(ctx, email.Normalize(emailAddr))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if principal.Account == id.AccountSuspended {
		return nil, dErrors.New(dErrors.CodeForbidden, "account suspended, contact admin")
	}

	tok, err := s.tokens.Issue(principal.ID, principal.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &Session{Token: tok, Principal: principal}, nil
}

// Capabilities returns the live capability derivation for the principal.
// The policy formula is recomputed here; the cached flags on the document
// are for query surfaces only.
func (s *Service) Capabilities(ctx context.Context, principalID id.PrincipalID) (models.Capabilities, error) {
	principal, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Capabilities{}, dErrors.New(dErrors.CodeNotFound, "principal not found")
		}
		return models.Capabilities{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return policy.Capabilities(principal), nil
}

// Get returns the principal document.
func (s *Service) Get(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	principal, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "principal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return principal, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err,
		)
	}
}

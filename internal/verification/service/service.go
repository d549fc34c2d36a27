// Package service implements the verification workflow: the read-only
// admission check, the two submission paths, and the administrator review.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	admissionmodels "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/namematch"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/policy"
	principalmodels "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	principalstore "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/store"
	verificationmetrics "github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/metrics"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/store"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/audit"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// Registry is the slice of the admission service the workflow consumes.
// Get backs the read-only check; Claim is the atomic assignment at submit.
type Registry interface {
	Get(ctx context.Context, number id.AdmissionNumber) (*admissionmodels.Record, error)
	Claim(ctx context.Context, number id.AdmissionNumber, principalID id.PrincipalID) (*admissionmodels.Record, error)
}

// OTPChallenger is the email one-time-code subsystem. Consume destroys a
// confirmed challenge so one confirmation backs at most one submission.
type OTPChallenger interface {
	Send(ctx context.Context, email string, now time.Time) error
	Confirm(ctx context.Context, email, code string, now time.Time) error
	Consume(ctx context.Context, email string, now time.Time) error
}

// AuditPublisher emits audit events for workflow actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Decision is an administrator's review outcome.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision constructs a Decision from external input.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if d != DecisionApprove && d != DecisionReject {
		return "", dErrors.New(dErrors.CodeInvalidInput, "outcome must be approve or reject")
	}
	return d, nil
}

// SubmitInput carries one verification submission.
type SubmitInput struct {
	PrincipalID       id.PrincipalID
	Method            id.VerificationMethod
	EvidenceURL       string
	AdmissionNumber   id.AdmissionNumber
	OnboardingAnswers map[string]string
}

type Service struct {
	registry       Registry
	requests       store.Store
	principals     principalstore.Store
	otp            OTPChallenger
	logger         *slog.Logger
	metrics        *verificationmetrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *verificationmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(registry Registry, requests store.Store, principals principalstore.Store, otp OTPChallenger, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("admission registry is required")
	}
	if requests == nil {
		return nil, errors.New("request store is required")
	}
	if principals == nil {
		return nil, errors.New("principal store is required")
	}
	if otp == nil {
		return nil, errors.New("otp challenger is required")
	}
	svc := &Service{
		registry:   registry,
		requests:   requests,
		principals: principals,
		otp:        otp,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ValidateAdmission checks a number against the registry without mutating
// anything. Claiming happens at submit; callers confirm a valid or
// year_corrected result first.
func (s *Service) ValidateAdmission(ctx context.Context, rawNumber, claimedName string, claimedYear int) (*models.ValidationResult, error) {
	number, err := id.ParseAdmissionNumber(rawNumber)
	if err != nil {
		return nil, err
	}

	record, err := s.registry.Get(ctx, number)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return s.validationResult(ctx, &models.ValidationResult{
				Status:  models.ValidationNotFound,
				Message: "admission number not found, please check for typos or contact admin",
			}), nil
		}
		return nil, err
	}

	if record.Claimed {
		return s.validationResult(ctx, &models.ValidationResult{
			Status:  models.ValidationAlreadyUsed,
			Message: "admission number already used by another account, contact admin if this is yours",
		}), nil
	}

	if namematch.Similarity(claimedName, record.FullName) < namematch.DefaultThreshold {
		return s.validationResult(ctx, &models.ValidationResult{
			Status:        models.ValidationNameMismatch,
			Message:       "name does not match our records",
			SuggestedName: record.FullName,
		}), nil
	}

	if claimedYear != 0 && claimedYear != record.GraduationYear {
		return s.validationResult(ctx, &models.ValidationResult{
			Valid:         true,
			Status:        models.ValidationYearCorrected,
			Message:       "graduation year corrected from our records",
			CorrectedYear: record.GraduationYear,
		}), nil
	}

	return s.validationResult(ctx, &models.ValidationResult{
		Valid:   true,
		Status:  models.ValidationValid,
		Message: "admission record matched",
	}), nil
}

func (s *Service) validationResult(ctx context.Context, result *models.ValidationResult) *models.ValidationResult {
	s.metrics.IncrementValidation(string(result.Status))
	s.emit(ctx, audit.Event{
		PrincipalID: requestcontext.PrincipalID(ctx),
		Action:      audit.EventAdmissionValidated,
		Reason:      string(result.Status),
	})
	return result
}

// Submit runs one of the two submission paths.
//
// Student/alumni: claims the admission number, creates a pending request,
// and moves the principal to pending with the stage-1 flag set. The caller
// is trusted to have confirmed a valid admission check first.
//
// Aspirant: consumes a confirmed email OTP and auto-approves, recording an
// approved request for the audit trail.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Request, error) {
	now := requestcontext.Now(ctx)

	principal, err := s.principals.FindByID(ctx, in.PrincipalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "principal not found")
	}
	if principal.Role == id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "administrators do not require verification")
	}

	// One open request per principal: a second submission while one is
	// under review is a conflict, not a silent duplicate. Only a definite
	// miss lets the submission proceed; a store failure must not open the
	// door to a duplicate request.
	switch _, err := s.requests.FindPendingByPrincipal(ctx, in.PrincipalID); {
	case err == nil:
		return nil, dErrors.New(dErrors.CodeConflict, "a verification request is already under review")
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check for open requests")
	}

	var req *models.Request
	switch {
	case principal.Role.RequiresAdmission():
		req, err = s.submitReviewed(ctx, principal, in, now)
	case in.Method == id.MethodEmailOTP:
		req, err = s.submitAspirant(ctx, principal, in, now)
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "aspirants verify via email OTP")
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementSubmission(in.Method.String())
	s.logger.InfoContext(ctx, "verification submitted",
		"request_id", req.ID,
		"principal_id", in.PrincipalID,
		"method", in.Method,
		"status", req.Status,
	)
	return req, nil
}

func (s *Service) submitReviewed(ctx context.Context, principal *principalmodels.Principal, in SubmitInput, now time.Time) (*models.Request, error) {
	if in.Method != id.MethodIDCard {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "students and alumni verify via ID card")
	}
	if in.AdmissionNumber.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "admission number is required")
	}
	if in.EvidenceURL == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "evidence document is required")
	}

	// Claim first. If a later step fails the claim stays held; an
	// administrator can release it manually rather than this path
	// attempting a rollback.
	if _, err := s.registry.Claim(ctx, in.AdmissionNumber, principal.ID); err != nil {
		return nil, err
	}

	req := models.NewPending(principal.ID, principal.Role, in.EvidenceURL, in.AdmissionNumber, in.OnboardingAnswers, now)
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verification request")
	}

	_, err := s.principals.Execute(ctx, principal.ID, nil, func(p *principalmodels.Principal) {
		p.ApplyStageOne(in.AdmissionNumber, now)
		p.Capabilities = policy.Capabilities(p)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update principal")
	}

	s.emit(ctx, audit.Event{
		PrincipalID:     principal.ID,
		Action:          audit.EventVerificationSubmitted,
		AdmissionNumber: in.AdmissionNumber.String(),
	})
	return req, nil
}

func (s *Service) submitAspirant(ctx context.Context, principal *principalmodels.Principal, in SubmitInput, now time.Time) (*models.Request, error) {
	if err := s.otp.Consume(ctx, principal.Email, now); err != nil {
		return nil, err
	}

	req := models.NewAutoApproved(principal.ID, principal.Role, in.OnboardingAnswers, now)
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verification request")
	}

	_, err := s.principals.Execute(ctx, principal.ID, nil, func(p *principalmodels.Principal) {
		p.ApplyEmailVerified(now)
		p.Capabilities = policy.Capabilities(p)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update principal")
	}

	s.emit(ctx, audit.Event{
		PrincipalID: principal.ID,
		Action:      audit.EventEmailVerified,
	})
	return req, nil
}

// SendOTP issues an email code for the aspirant path. The code goes to the
// principal's registered email; callers never choose the address.
func (s *Service) SendOTP(ctx context.Context, principalID id.PrincipalID) error {
	principal, err := s.loadAspirant(ctx, principalID)
	if err != nil {
		return err
	}
	return s.otp.Send(ctx, principal.Email, requestcontext.Now(ctx))
}

// ConfirmOTP checks a code for the aspirant path. A confirmed challenge is
// consumed by the subsequent Submit.
func (s *Service) ConfirmOTP(ctx context.Context, principalID id.PrincipalID, code string) error {
	principal, err := s.loadAspirant(ctx, principalID)
	if err != nil {
		return err
	}
	if err := s.otp.Confirm(ctx, principal.Email, code, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeExpired) {
			s.emit(ctx, audit.Event{
				PrincipalID: principalID,
				Action:      audit.EventOTPAttemptsExhausted,
				Reason:      dErrors.MessageOf(err),
			})
		}
		return err
	}
	return nil
}

func (s *Service) loadAspirant(ctx context.Context, principalID id.PrincipalID) (*principalmodels.Principal, error) {
	principal, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "principal not found")
	}
	if principal.Role != id.RoleAspirant {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email OTP verification is for aspirants")
	}
	return principal, nil
}

// Decide records an administrator's review. Idempotent: a request is
// decided exactly once; re-deciding surfaces a conflict with no side
// effects. Approval reactivates auto-deactivated principals; rejection
// leaves flags false and the admission claim held so the reviewer's
// paper trail stays intact.
func (s *Service) Decide(ctx context.Context, requestID id.RequestID, outcome Decision, reason string) (*models.Request, error) {
	now := requestcontext.Now(ctx)

	if requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may decide verification requests")
	}
	reviewerID := id.ReviewerID(requestcontext.PrincipalID(ctx))

	reason = strings.TrimSpace(reason)
	if outcome == DecisionReject && reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rejection requires a reason")
	}

	req, err := s.requests.Execute(ctx, requestID,
		func(r *models.Request) error { return r.CanDecide() },
		func(r *models.Request) {
			if outcome == DecisionApprove {
				r.ApplyApproval(reviewerID, now)
			} else {
				r.ApplyRejection(reviewerID, reason, now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification request not found")
		}
		return nil, err
	}

	var reactivated bool
	_, err = s.principals.Execute(ctx, req.PrincipalID, nil, func(p *principalmodels.Principal) {
		if outcome == DecisionApprove {
			p.ApplyApproval(now)
			if p.Account == id.AccountAutoDeactivated {
				p.ApplyReactivation(now)
				reactivated = true
			}
		} else {
			p.ApplyRejection(now)
		}
		p.Capabilities = policy.Capabilities(p)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update principal")
	}

	s.metrics.RecordDecision(string(outcome), now.Sub(req.SubmittedAt).Hours())
	action := audit.EventVerificationApproved
	if outcome == DecisionReject {
		action = audit.EventVerificationRejected
	}
	s.emit(ctx, audit.Event{
		PrincipalID: req.PrincipalID,
		Action:      action,
		ActorID:     reviewerID.String(),
		Reason:      reason,
	})
	if reactivated {
		s.emit(ctx, audit.Event{
			PrincipalID: req.PrincipalID,
			Action:      audit.EventAccountReactivated,
			ActorID:     reviewerID.String(),
			Reason:      "verification approved",
		})
	}

	s.logger.InfoContext(ctx, "verification decided",
		"request_id", requestID,
		"principal_id", req.PrincipalID,
		"outcome", outcome,
	)
	return req, nil
}

// ListPending returns the admin review queue, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*models.Request, error) {
	requests, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return requests, nil
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

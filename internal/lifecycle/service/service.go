// Package service implements the account lifecycle batch: the deadline
// sweep (deactivate, then warn) and the administrative deadline extension.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lifecyclemetrics "github.com/Faheem-Musthafa/CampusLink-sub000/internal/lifecycle/metrics"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/notification"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/policy"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/store"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/audit"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

const deactivationReason = "verification deadline passed"

// AuditPublisher emits audit events for lifecycle actions and reads a
// principal's recorded trail back for the admin screens.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, principalID id.PrincipalID) ([]audit.Event, error)
}

// SweepError is one principal the sweep could not process. The batch
// continues past it.
type SweepError struct {
	PrincipalID id.PrincipalID `json:"principal_id"`
	Phase       string         `json:"phase"`
	Reason      string         `json:"reason"`
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	StartedAt   time.Time    `json:"started_at"`
	Deactivated int          `json:"deactivated"`
	Warned      int          `json:"warned"`
	Errors      []SweepError `json:"errors,omitempty"`
}

type Service struct {
	principals     store.Store
	notifier       notification.Notifier
	warningWindow  time.Duration
	logger         *slog.Logger
	metrics        *lifecyclemetrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *lifecyclemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithWarningWindow overrides how far ahead of the deadline warnings go
// out. Default 24h.
func WithWarningWindow(window time.Duration) Option {
	return func(s *Service) { s.warningWindow = window }
}

func New(principals store.Store, notifier notification.Notifier, opts ...Option) (*Service, error) {
	if principals == nil {
		return nil, errors.New("principal store is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	svc := &Service{
		principals:    principals,
		notifier:      notifier,
		warningWindow: 24 * time.Hour,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Sweep runs the two lifecycle phases against the current dataset.
// Idempotent: rerunning against the same state deactivates nothing twice
// and never re-sends a warning. Per-principal failures are collected into
// the report, never fatal to the batch. The logic assumes nothing about
// invocation cadence; cron and the manual admin trigger share this path.
func (s *Service) Sweep(ctx context.Context) (*SweepReport, error) {
	now := requestcontext.Now(ctx)
	report := &SweepReport{StartedAt: now}

	s.deactivatePhase(ctx, now, report)
	s.warnPhase(ctx, now, report)

	s.metrics.IncrementSweep()
	s.logger.InfoContext(ctx, "lifecycle sweep finished",
		"deactivated", report.Deactivated,
		"warned", report.Warned,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (s *Service) deactivatePhase(ctx context.Context, now time.Time, report *SweepReport) {
	due, err := s.principals.ListDeactivationDue(ctx, now)
	if err != nil {
		s.collect(ctx, report, id.PrincipalID{}, "deactivate", fmt.Sprintf("list due principals: %v", err))
		return
	}

	for _, p := range due {
		// The store matches on stored fields only; the verification
		// check is the policy's call.
		if policy.IsFullyVerified(p) {
			continue
		}
		_, err := s.principals.Execute(ctx, p.ID,
			func(pr *models.Principal) error { return pr.CanAutoDeactivate() },
			func(pr *models.Principal) {
				pr.ApplyAutoDeactivation(deactivationReason, now)
				pr.Capabilities = policy.Capabilities(pr)
			},
		)
		if err != nil {
			// Another writer may have transitioned the account between
			// the list and the execute; that is not a sweep failure.
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				continue
			}
			s.collect(ctx, report, p.ID, "deactivate", err.Error())
			continue
		}

		report.Deactivated++
		s.metrics.IncrementAction("deactivated")
		s.emit(ctx, audit.Event{
			PrincipalID: p.ID,
			Action:      audit.EventAccountDeactivated,
			Reason:      deactivationReason,
		})
		if err := s.notifier.Send(ctx, p.ID, notification.TemplateAccountDeactivated, nil); err != nil {
			s.logger.WarnContext(ctx, "deactivation notice failed", "principal_id", p.ID, "error", err)
		}
	}
}

func (s *Service) warnPhase(ctx context.Context, now time.Time, report *SweepReport) {
	due, err := s.principals.ListWarningDue(ctx, now, now.Add(s.warningWindow))
	if err != nil {
		s.collect(ctx, report, id.PrincipalID{}, "warn", fmt.Sprintf("list warning-due principals: %v", err))
		return
	}

	for _, p := range due {
		if policy.IsFullyVerified(p) {
			continue
		}
		// Send before marking: a failed send stays unmarked and is
		// retried on the next sweep.
		err := s.notifier.Send(ctx, p.ID, notification.TemplateDeadlineWarning, map[string]string{
			"deadline": p.VerificationDeadline.Format(time.RFC3339),
		})
		if err != nil {
			s.collect(ctx, report, p.ID, "warn", err.Error())
			continue
		}
		if _, err := s.principals.Execute(ctx, p.ID, nil, func(pr *models.Principal) {
			pr.MarkWarned(now)
		}); err != nil {
			s.collect(ctx, report, p.ID, "warn", err.Error())
			continue
		}

		report.Warned++
		s.metrics.IncrementAction("warned")
		s.emit(ctx, audit.Event{
			PrincipalID: p.ID,
			Action:      audit.EventDeadlineWarning,
		})
	}
}

// Extend pushes the principal's verification deadline forward by the given
// number of days from max(current deadline, now) and resets the warning
// flag so a future, now-legitimate warning is not suppressed.
func (s *Service) Extend(ctx context.Context, principalID id.PrincipalID, days int) (*models.Principal, error) {
	if days <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "extension must be a positive number of days")
	}
	now := requestcontext.Now(ctx)

	p, err := s.principals.Execute(ctx, principalID,
		func(pr *models.Principal) error {
			if pr.Role == id.RoleAdmin {
				return dErrors.New(dErrors.CodeInvalidInput, "admin accounts carry no deadline")
			}
			return nil
		},
		func(pr *models.Principal) {
			pr.ExtendDeadline(days, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "principal not found")
		}
		return nil, err
	}

	s.metrics.IncrementAction("extended")
	s.emit(ctx, audit.Event{
		PrincipalID: principalID,
		Action:      audit.EventDeadlineExtended,
		ActorID:     requestcontext.PrincipalID(ctx).String(),
		Reason:      fmt.Sprintf("extended by %d days", days),
	})
	return p, nil
}

// AuditTrail returns the recorded audit events for one principal. The
// principal is looked up first so an unknown id reads as not_found rather
// than an empty trail.
func (s *Service) AuditTrail(ctx context.Context, principalID id.PrincipalID) ([]audit.Event, error) {
	if _, err := s.principals.FindByID(ctx, principalID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "principal not found")
		}
		return nil, err
	}
	if s.auditPublisher == nil {
		return []audit.Event{}, nil
	}
	events, err := s.auditPublisher.List(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail")
	}
	return events, nil
}

func (s *Service) collect(ctx context.Context, report *SweepReport, principalID id.PrincipalID, phase, reason string) {
	report.Errors = append(report.Errors, SweepError{PrincipalID: principalID, Phase: phase, Reason: reason})
	s.metrics.IncrementError(phase)
	s.logger.WarnContext(ctx, "lifecycle sweep error",
		"principal_id", principalID,
		"phase", phase,
		"reason", reason,
	)
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

// Package service orchestrates the admission registry: administrative adds
// and imports, claim/release, and guarded removal.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	admissionmetrics "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/metrics"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/store"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/audit"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// AuditPublisher emits audit events for registry operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RecordInput is one record of an administrative add or bulk import, before
// normalization.
type RecordInput struct {
	Number         string `json:"admission_number"`
	FullName       string `json:"full_name"`
	GraduationYear int    `json:"graduation_year"`
	Course         string `json:"course"`
}

// ImportError reports one failed record of a bulk import.
type ImportError struct {
	Number string `json:"admission_number"`
	Reason string `json:"reason"`
}

// ImportReport summarizes a best-effort bulk import.
type ImportReport struct {
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Errors     []ImportError `json:"errors,omitempty"`
}

type Service struct {
	store          store.Store
	logger         *slog.Logger
	metrics        *admissionmetrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *admissionmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("admission store is required")
	}
	svc := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Add creates a single record.
//
// Errors: CodeInvalidInput on a malformed record, CodeConflict when the
// number already exists.
func (s *Service) Add(ctx context.Context, input RecordInput) (*models.Record, error) {
	record, err := buildRecord(input, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "admission number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admission record")
	}
	return record, nil
}

// Get is a read-only lookup.
func (s *Service) Get(ctx context.Context, number id.AdmissionNumber) (*models.Record, error) {
	record, err := s.store.Find(ctx, number)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admission record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admission record")
	}
	return record, nil
}

// List returns all records for admin tooling.
func (s *Service) List(ctx context.Context) ([]*models.Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admission records")
	}
	return records, nil
}

// Claim atomically assigns the record to the principal; the store's
// conditional write guarantees a single winner under concurrency.
//
// Errors: CodeNotFound when absent, CodeConflict when already claimed.
func (s *Service) Claim(ctx context.Context, number id.AdmissionNumber, principalID id.PrincipalID) (*models.Record, error) {
	record, err := s.store.Claim(ctx, number, principalID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			s.metrics.IncrementClaim("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "admission record not found")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			s.metrics.IncrementClaim("lost")
			s.emit(ctx, audit.Event{
				PrincipalID:     principalID,
				Action:          audit.EventAdmissionClaimConflict,
				AdmissionNumber: number.String(),
			})
			return nil, dErrors.New(dErrors.CodeConflict, "admission number already claimed, please re-verify")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim admission record")
		}
	}

	s.metrics.IncrementClaim("won")
	s.emit(ctx, audit.Event{
		PrincipalID:     principalID,
		Action:          audit.EventAdmissionClaimed,
		AdmissionNumber: number.String(),
	})
	return record, nil
}

// Release clears a claim. Used when a claimant's account is deleted or an
// administrator untangles a stale claim; no claimant confirmation needed.
func (s *Service) Release(ctx context.Context, number id.AdmissionNumber, actorID string) error {
	if err := s.store.Release(ctx, number, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "admission record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release admission record")
	}
	s.emit(ctx, audit.Event{
		Action:          audit.EventAdmissionReleased,
		ActorID:         actorID,
		AdmissionNumber: number.String(),
	})
	return nil
}

// Remove deletes an unclaimed record.
//
// Errors: CodeNotFound when absent, CodeConflict while the record is
// claimed (release first).
func (s *Service) Remove(ctx context.Context, number id.AdmissionNumber) error {
	if err := s.store.Delete(ctx, number); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "admission record not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeConflict, "record is claimed; release it before removing")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove admission record")
		}
	}
	return nil
}

// BulkAdd imports records best-effort: every record is attempted and
// individually reported; one duplicate never aborts the batch.
func (s *Service) BulkAdd(ctx context.Context, inputs []RecordInput, actorID string) (*ImportReport, error) {
	now := requestcontext.Now(ctx)
	report := &ImportReport{Total: len(inputs)}

	for _, input := range inputs {
		record, err := buildRecord(input, now)
		if err == nil {
			err = s.store.Create(ctx, record)
			if errors.Is(err, sentinel.ErrConflict) {
				err = dErrors.New(dErrors.CodeConflict, "duplicate admission number")
			}
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, ImportError{
				Number: input.Number,
				Reason: dErrors.MessageOf(err),
			})
			continue
		}
		report.Successful++
	}

	s.metrics.AddImportResults(report.Successful, report.Failed)
	s.logger.InfoContext(ctx, "admission bulk import finished",
		"total", report.Total,
		"successful", report.Successful,
		"failed", report.Failed,
	)
	s.emit(ctx, audit.Event{
		Action:  audit.EventAdmissionImported,
		ActorID: actorID,
		Reason:  "bulk import",
	})
	return report, nil
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

func buildRecord(input RecordInput, now time.Time) (*models.Record, error) {
	number, err := id.ParseAdmissionNumber(input.Number)
	if err != nil {
		return nil, err
	}
	record, err := models.New(number, input.FullName, input.GraduationYear, input.Course, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, dErrors.MessageOf(err))
	}
	return record, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists verification requests in PostgreSQL. Onboarding answers
// are a jsonb column of known keys.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const requestColumns = `id, principal_id, role, method, status, evidence_url,
	admission_number, onboarding_answers, rejection_reason, reviewer_id,
	reviewed_at, submitted_at, updated_at`

func (s *Postgres) Create(ctx context.Context, req *models.Request) error {
	answers, err := marshalAnswers(req.OnboardingAnswers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		req.ID.String(), req.PrincipalID.String(), req.Role.String(), req.Method.String(), string(req.Status),
		nullString(req.EvidenceURL), nullString(req.AdmissionNumber.String()), answers,
		nullString(req.RejectionReason), reviewerValue(req.ReviewerID),
		req.ReviewedAt, req.SubmittedAt, req.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert verification request: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM verification_requests WHERE id = $1`, requestID.String())
	return scanRequest(row)
}

func (s *Postgres) FindPendingByPrincipal(ctx context.Context, principalID id.PrincipalID) (*models.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM verification_requests
		WHERE principal_id = $1 AND status = 'pending'
		ORDER BY submitted_at LIMIT 1`, principalID.String())
	return scanRequest(row)
}

// Execute loads the row FOR UPDATE so concurrent reviewers serialize on the
// same request and exactly one decision lands.
func (s *Postgres) Execute(ctx context.Context, requestID id.RequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM verification_requests WHERE id = $1 FOR UPDATE`, requestID.String())
	req, err := scanRequest(row)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(req); err != nil {
			return nil, err
		}
	}
	mutate(req)

	_, err = tx.ExecContext(ctx, `
		UPDATE verification_requests SET
			status = $2, rejection_reason = $3, reviewer_id = $4,
			reviewed_at = $5, updated_at = $6
		WHERE id = $1`,
		req.ID.String(), string(req.Status), nullString(req.RejectionReason),
		reviewerValue(req.ReviewerID), req.ReviewedAt, req.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update verification request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return req, nil
}

func (s *Postgres) ListPending(ctx context.Context) ([]*models.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM verification_requests
		WHERE status = 'pending' ORDER BY submitted_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		req                      models.Request
		rawID, rawPrincipal      string
		role, method, status     string
		evidence, number, reason sql.NullString
		rawReviewer              sql.NullString
		reviewedAt               sql.NullTime
		answers                  []byte
	)
	err := row.Scan(
		&rawID, &rawPrincipal, &role, &method, &status, &evidence,
		&number, &answers, &reason, &rawReviewer,
		&reviewedAt, &req.SubmittedAt, &req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan verification request: %w", err)
	}

	rid, err := id.ParseRequestID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored request id %q: %w", rawID, err)
	}
	pid, err := id.ParsePrincipalID(rawPrincipal)
	if err != nil {
		return nil, fmt.Errorf("stored principal id %q: %w", rawPrincipal, err)
	}
	req.ID = rid
	req.PrincipalID = pid
	req.Role = id.Role(role)
	req.Method = id.VerificationMethod(method)
	req.Status = models.RequestStatus(status)
	req.EvidenceURL = evidence.String
	req.AdmissionNumber = id.AdmissionNumber(number.String)
	req.RejectionReason = reason.String
	if rawReviewer.Valid {
		reviewer, err := id.ParseReviewerID(rawReviewer.String)
		if err != nil {
			return nil, fmt.Errorf("stored reviewer id %q: %w", rawReviewer.String, err)
		}
		req.ReviewerID = &reviewer
	}
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &req.OnboardingAnswers); err != nil {
			return nil, fmt.Errorf("decode onboarding answers: %w", err)
		}
	}
	return &req, nil
}

func marshalAnswers(answers map[string]string) ([]byte, error) {
	if len(answers) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode onboarding answers: %w", err)
	}
	return b, nil
}

func reviewerValue(reviewerID *id.ReviewerID) sql.NullString {
	if reviewerID == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: reviewerID.String(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

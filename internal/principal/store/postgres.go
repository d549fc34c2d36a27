package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists principals in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const principalColumns = `id, email, full_name, password_hash, role, verification_status,
	admission_verified, email_verified, admission_number, account_status, status_reason,
	verification_deadline, deactivation_warning_sent, deactivated_at,
	can_post_jobs, can_post_feed, can_message, can_accept_mentorship,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Principal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID.String(), p.Email, p.FullName, p.PasswordHash, p.Role.String(), p.Verification.String(),
		p.AdmissionVerified, p.EmailVerified, nullString(p.AdmissionNumber.String()), p.Account.String(), nullString(p.StatusReason),
		p.VerificationDeadline, p.DeactivationWarningSent, p.DeactivatedAt,
		p.Capabilities.CanPostJobs, p.Capabilities.CanPostFeed, p.Capabilities.CanMessage, p.Capabilities.CanAcceptMentorship,
		p.CreatedAt, p.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert principal: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = $1`, principalID.String())
	return scanPrincipal(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email = lower($1)`, email)
	return scanPrincipal(row)
}

// Execute loads the row FOR UPDATE so validate and mutate run against a
// stable snapshot, then writes the mutated principal back in the same
// transaction.
func (s *Postgres) Execute(ctx context.Context, principalID id.PrincipalID, validate func(*models.Principal) error, mutate func(*models.Principal)) (*models.Principal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = $1 FOR UPDATE`, principalID.String())
	p, err := scanPrincipal(row)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	mutate(p)

	_, err = tx.ExecContext(ctx, `
		UPDATE principals SET
			verification_status = $2, admission_verified = $3, email_verified = $4,
			admission_number = $5, account_status = $6, status_reason = $7,
			verification_deadline = $8, deactivation_warning_sent = $9, deactivated_at = $10,
			can_post_jobs = $11, can_post_feed = $12, can_message = $13, can_accept_mentorship = $14,
			updated_at = $15
		WHERE id = $1`,
		p.ID.String(), p.Verification.String(), p.AdmissionVerified, p.EmailVerified,
		nullString(p.AdmissionNumber.String()), p.Account.String(), nullString(p.StatusReason),
		p.VerificationDeadline, p.DeactivationWarningSent, p.DeactivatedAt,
		p.Capabilities.CanPostJobs, p.Capabilities.CanPostFeed, p.Capabilities.CanMessage, p.Capabilities.CanAcceptMentorship,
		p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update principal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (s *Postgres) ListDeactivationDue(ctx context.Context, now time.Time) ([]*models.Principal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+principalColumns+` FROM principals
		WHERE account_status = 'active' AND role <> 'admin'
		  AND verification_deadline IS NOT NULL AND verification_deadline <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("list deactivation due: %w", err)
	}
	return scanPrincipals(rows)
}

func (s *Postgres) ListWarningDue(ctx context.Context, now, until time.Time) ([]*models.Principal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+principalColumns+` FROM principals
		WHERE account_status = 'active' AND role <> 'admin'
		  AND deactivation_warning_sent = false
		  AND verification_deadline > $1 AND verification_deadline <= $2`, now, until)
	if err != nil {
		return nil, fmt.Errorf("list warning due: %w", err)
	}
	return scanPrincipals(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*models.Principal, error) {
	var (
		p                               models.Principal
		rawID, role, verification, acct string
		admissionNumber, statusReason   sql.NullString
		deadline, deactivatedAt         sql.NullTime
	)
	err := row.Scan(
		&rawID, &p.Email, &p.FullName, &p.PasswordHash, &role, &verification,
		&p.AdmissionVerified, &p.EmailVerified, &admissionNumber, &acct, &statusReason,
		&deadline, &p.DeactivationWarningSent, &deactivatedAt,
		&p.Capabilities.CanPostJobs, &p.Capabilities.CanPostFeed, &p.Capabilities.CanMessage, &p.Capabilities.CanAcceptMentorship,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan principal: %w", err)
	}

	pid, err := id.ParsePrincipalID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored principal id %q: %w", rawID, err)
	}
	p.ID = pid
	p.Role = id.Role(role)
	p.Verification = id.VerificationStatus(verification)
	p.Account = id.AccountStatus(acct)
	p.AdmissionNumber = id.AdmissionNumber(admissionNumber.String)
	p.StatusReason = statusReason.String
	if deadline.Valid {
		p.VerificationDeadline = &deadline.Time
	}
	if deactivatedAt.Valid {
		p.DeactivatedAt = &deactivatedAt.Time
	}
	return &p, nil
}

func scanPrincipals(rows *sql.Rows) ([]*models.Principal, error) {
	defer rows.Close()
	var out []*models.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

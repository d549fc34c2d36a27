package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists admission records in PostgreSQL. Claim exclusivity
// rides on a conditional UPDATE: the row is only taken when claimed is
// still false at write time.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const recordColumns = `admission_number, full_name, graduation_year, course,
	claimed, claimed_by, claimed_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, record *models.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admission_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.Number.String(), record.FullName, record.GraduationYear, record.Course,
		record.Claimed, claimedByString(record.ClaimedBy), record.ClaimedAt,
		record.CreatedAt, record.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert admission record: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, number id.AdmissionNumber) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM admission_records WHERE admission_number = $1`, number.String())
	return scanRecord(row)
}

func (s *Postgres) Claim(ctx context.Context, number id.AdmissionNumber, principalID id.PrincipalID, now time.Time) (*models.Record, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE admission_records
		SET claimed = true, claimed_by = $2, claimed_at = $3, updated_at = $3
		WHERE admission_number = $1 AND claimed = false`,
		number.String(), principalID.String(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("claim admission record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is missing or someone else holds the claim;
		// a follow-up read distinguishes the two.
		if _, err := s.Find(ctx, number); errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		} else if err != nil {
			return nil, err
		}
		return nil, sentinel.ErrAlreadyUsed
	}
	return s.Find(ctx, number)
}

func (s *Postgres) Release(ctx context.Context, number id.AdmissionNumber, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE admission_records
		SET claimed = false, claimed_by = NULL, claimed_at = NULL, updated_at = $2
		WHERE admission_number = $1`,
		number.String(), now,
	)
	if err != nil {
		return fmt.Errorf("release admission record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, number id.AdmissionNumber) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM admission_records WHERE admission_number = $1 AND claimed = false`,
		number.String())
	if err != nil {
		return fmt.Errorf("delete admission record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.Find(ctx, number); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		} else if err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM admission_records ORDER BY admission_number`)
	if err != nil {
		return nil, fmt.Errorf("list admission records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r         models.Record
		number    string
		claimedBy sql.NullString
		claimedAt sql.NullTime
	)
	err := row.Scan(&number, &r.FullName, &r.GraduationYear, &r.Course,
		&r.Claimed, &claimedBy, &claimedAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan admission record: %w", err)
	}
	r.Number = id.AdmissionNumber(number)
	if claimedBy.Valid {
		pid, err := id.ParsePrincipalID(claimedBy.String)
		if err != nil {
			return nil, fmt.Errorf("stored claimant id %q: %w", claimedBy.String, err)
		}
		r.ClaimedBy = &pid
	}
	if claimedAt.Valid {
		r.ClaimedAt = &claimedAt.Time
	}
	return &r, nil
}

func claimedByString(pid *id.PrincipalID) sql.NullString {
	if pid == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: pid.String(), Valid: true}
}

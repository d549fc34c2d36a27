//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/store"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "principals"))
}

func (s *PostgresStoreSuite) newPrincipal(email string, role id.Role) *models.Principal {
	p, err := models.New(id.NewPrincipalID(), email, "Test Principal", "$2a$10$hash", role, 30*24*time.Hour, s.now)
	s.Require().NoError(err)
	return p
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	p := s.newPrincipal("maya@example.edu", id.RoleStudent)

	s.Require().NoError(s.store.Create(ctx, p))

	byID, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Email, byID.Email)
	s.Equal(id.VerificationUnverified, byID.Verification)
	s.Require().NotNil(byID.VerificationDeadline)
	s.WithinDuration(*p.VerificationDeadline, *byID.VerificationDeadline, time.Millisecond)

	byEmail, err := s.store.FindByEmail(ctx, "MAYA@EXAMPLE.EDU")
	s.Require().NoError(err)
	s.Equal(p.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newPrincipal("dup@example.edu", id.RoleStudent)))

	err := s.store.Create(ctx, s.newPrincipal("dup@example.edu", id.RoleAlumni))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewPrincipalID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecutePersistsMutation() {
	ctx := context.Background()
	p := s.newPrincipal("stage1@example.edu", id.RoleStudent)
	s.Require().NoError(s.store.Create(ctx, p))

	number, err := id.ParseAdmissionNumber("CS-2024-100")
	s.Require().NoError(err)

	updated, err := s.store.Execute(ctx, p.ID,
		func(*models.Principal) error { return nil },
		func(cur *models.Principal) { cur.ApplyStageOne(number, s.now) },
	)
	s.Require().NoError(err)
	s.True(updated.AdmissionVerified)

	reloaded, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.True(reloaded.AdmissionVerified)
	s.Equal(number, reloaded.AdmissionNumber)
}

func (s *PostgresStoreSuite) TestExecuteValidationAbortsWrite() {
	ctx := context.Background()
	p := s.newPrincipal("abort@example.edu", id.RoleStudent)
	s.Require().NoError(s.store.Create(ctx, p))

	wantErr := sentinel.ErrInvalidState
	_, err := s.store.Execute(ctx, p.ID,
		func(*models.Principal) error { return wantErr },
		func(cur *models.Principal) { cur.ApplyEmailVerified(s.now) },
	)
	s.Require().ErrorIs(err, wantErr)

	reloaded, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.False(reloaded.EmailVerified)
}

func (s *PostgresStoreSuite) TestSweepListQueries() {
	ctx := context.Background()

	overdue := s.newPrincipal("overdue@example.edu", id.RoleStudent)
	past := s.now.Add(-time.Hour)
	overdue.VerificationDeadline = &past
	s.Require().NoError(s.store.Create(ctx, overdue))

	soon := s.newPrincipal("soon@example.edu", id.RoleStudent)
	within := s.now.Add(12 * time.Hour)
	soon.VerificationDeadline = &within
	s.Require().NoError(s.store.Create(ctx, soon))

	far := s.newPrincipal("far@example.edu", id.RoleStudent)
	s.Require().NoError(s.store.Create(ctx, far))

	due, err := s.store.ListDeactivationDue(ctx, s.now)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(overdue.ID, due[0].ID)

	warn, err := s.store.ListWarningDue(ctx, s.now, s.now.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(warn, 1)
	s.Equal(soon.ID, warn[0].ID)
}

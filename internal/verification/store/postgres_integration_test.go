//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "verification_requests"))
}

func (s *PostgresStoreSuite) newPending(principalID id.PrincipalID, submittedAt time.Time) *models.Request {
	number, err := id.ParseAdmissionNumber("CS-2024-042")
	s.Require().NoError(err)
	answers := map[string]string{"course": "Computer Science", "batch": "2024"}
	return models.NewPending(principalID, id.RoleStudent, "https://evidence.example.com/id.jpg", number, answers, submittedAt)
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTripsAnswers() {
	ctx := context.Background()
	req := s.newPending(id.NewPrincipalID(), s.now)

	s.Require().NoError(s.store.Create(ctx, req))

	found, err := s.store.Find(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.PrincipalID, found.PrincipalID)
	s.Equal(models.RequestPending, found.Status)
	s.Equal(req.OnboardingAnswers, found.OnboardingAnswers)
	s.Nil(found.ReviewerID)
}

func (s *PostgresStoreSuite) TestFindPendingByPrincipal() {
	ctx := context.Background()
	principalID := id.NewPrincipalID()

	_, err := s.store.FindPendingByPrincipal(ctx, principalID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	req := s.newPending(principalID, s.now)
	s.Require().NoError(s.store.Create(ctx, req))

	found, err := s.store.FindPendingByPrincipal(ctx, principalID)
	s.Require().NoError(err)
	s.Equal(req.ID, found.ID)
}

func (s *PostgresStoreSuite) TestExecuteDecision() {
	ctx := context.Background()
	req := s.newPending(id.NewPrincipalID(), s.now)
	s.Require().NoError(s.store.Create(ctx, req))

	reviewerID := id.ReviewerID(id.NewPrincipalID())
	decided, err := s.store.Execute(ctx, req.ID,
		func(cur *models.Request) error { return cur.CanDecide() },
		func(cur *models.Request) { cur.ApplyApproval(reviewerID, s.now) },
	)
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, decided.Status)

	reloaded, err := s.store.Find(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, reloaded.Status)
	s.Require().NotNil(reloaded.ReviewerID)
	s.Equal(reviewerID, *reloaded.ReviewerID)
	s.Require().NotNil(reloaded.ReviewedAt)
}

func (s *PostgresStoreSuite) TestListPendingOldestFirst() {
	ctx := context.Background()

	second := s.newPending(id.NewPrincipalID(), s.now)
	s.Require().NoError(s.store.Create(ctx, second))

	first := s.newPending(id.NewPrincipalID(), s.now.Add(-time.Hour))
	s.Require().NoError(s.store.Create(ctx, first))

	pending, err := s.store.ListPending(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)
	s.Equal(second.ID, pending[1].ID)
}

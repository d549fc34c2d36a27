package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

type PrincipalStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestPrincipalStoreSuite(t *testing.T) {
	suite.Run(t, new(PrincipalStoreSuite))
}

func (s *PrincipalStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *PrincipalStoreSuite) newPrincipal(email string, role id.Role) *models.Principal {
	p, err := models.New(id.NewPrincipalID(), email, "Test Person", "hash", role, 30*24*time.Hour, time.Now())
	s.Require().NoError(err)
	return p
}

func (s *PrincipalStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID and email", func() {
		p := s.newPrincipal("jane@example.edu", id.RoleStudent)
		s.Require().NoError(s.store.Create(s.ctx, p))

		byID, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Email, byID.Email)

		byEmail, err := s.store.FindByEmail(s.ctx, "JANE@example.edu")
		s.Require().NoError(err)
		s.Equal(p.ID, byEmail.ID)
	})

	s.Run("rejects duplicate email", func() {
		p1 := s.newPrincipal("dup@example.edu", id.RoleStudent)
		p2 := s.newPrincipal("Dup@Example.edu", id.RoleAlumni)
		s.Require().NoError(s.store.Create(s.ctx, p1))
		s.Require().ErrorIs(s.store.Create(s.ctx, p2), sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewPrincipalID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PrincipalStoreSuite) TestExecute() {
	s.Run("mutation persists", func() {
		p := s.newPrincipal("exec@example.edu", id.RoleStudent)
		s.Require().NoError(s.store.Create(s.ctx, p))

		now := time.Now()
		updated, err := s.store.Execute(s.ctx, p.ID, nil, func(p *models.Principal) {
			p.ApplyStageOne("2020CS001", now)
		})
		s.Require().NoError(err)
		s.Equal(id.VerificationPending, updated.Verification)

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.True(found.AdmissionVerified)
	})

	s.Run("validation failure aborts the write", func() {
		p := s.newPrincipal("guard@example.edu", id.RoleStudent)
		s.Require().NoError(s.store.Create(s.ctx, p))

		_, err := s.store.Execute(s.ctx, p.ID,
			func(*models.Principal) error {
				return dErrors.New(dErrors.CodeConflict, "nope")
			},
			func(p *models.Principal) {
				p.ApplyApproval(time.Now())
			},
		)
		s.Require().Error(err)

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(id.VerificationUnverified, found.Verification)
	})

	s.Run("unknown principal returns ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, id.NewPrincipalID(), nil, func(*models.Principal) {})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PrincipalStoreSuite) TestSweepQueries() {
	now := time.Now()

	seed := func(email string, role id.Role, deadline time.Time, warned bool) *models.Principal {
		p := s.newPrincipal(email, role)
		p.VerificationDeadline = &deadline
		p.DeactivationWarningSent = warned
		s.Require().NoError(s.store.Create(s.ctx, p))
		return p
	}

	overdue := seed("overdue@example.edu", id.RoleStudent, now.Add(-time.Hour), false)
	warnable := seed("soon@example.edu", id.RoleAlumni, now.Add(12*time.Hour), false)
	seed("warned@example.edu", id.RoleStudent, now.Add(12*time.Hour), true)
	seed("later@example.edu", id.RoleStudent, now.Add(72*time.Hour), false)

	admin := s.newPrincipal("admin@example.edu", id.RoleAdmin)
	past := now.Add(-time.Hour)
	admin.VerificationDeadline = &past
	s.Require().NoError(s.store.Create(s.ctx, admin))

	s.Run("deactivation due excludes admins and future deadlines", func() {
		due, err := s.store.ListDeactivationDue(s.ctx, now)
		s.Require().NoError(err)
		s.Require().Len(due, 1)
		s.Equal(overdue.ID, due[0].ID)
	})

	s.Run("warning due excludes already warned", func() {
		due, err := s.store.ListWarningDue(s.ctx, now, now.Add(24*time.Hour))
		s.Require().NoError(err)
		s.Require().Len(due, 1)
		s.Equal(warnable.ID, due[0].ID)
	})

	s.Run("deactivated accounts drop out of both queries", func() {
		_, err := s.store.Execute(s.ctx, overdue.ID, nil, func(p *models.Principal) {
			p.ApplyAutoDeactivation("verification deadline missed", now)
		})
		s.Require().NoError(err)

		due, err := s.store.ListDeactivationDue(s.ctx, now)
		s.Require().NoError(err)
		s.Empty(due)
	})
}

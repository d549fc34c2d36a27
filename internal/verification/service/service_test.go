package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	admissionservice "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/service"
	admissionstore "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/store"
	principalmodels "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	principalstore "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/store"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/store"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/audit"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// unavailableRequestStore mimics a backing store that cannot answer the
// open-request lookup.
type unavailableRequestStore struct {
	store.Store
}

func (u *unavailableRequestStore) FindPendingByPrincipal(context.Context, id.PrincipalID) (*models.Request, error) {
	return nil, sentinel.ErrUnavailable
}

// capturingAudit records emitted events for assertions.
type capturingAudit struct {
	events []audit.Event
}

func (c *capturingAudit) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturingAudit) actions() []audit.EventAction {
	actions := make([]audit.EventAction, 0, len(c.events))
	for _, e := range c.events {
		actions = append(actions, e.Action)
	}
	return actions
}

// stubOTP treats emails in the set as holding a verified challenge and
// destroys them on consume.
type stubOTP struct {
	confirmed map[string]bool
	sent      []string
}

func (s *stubOTP) Send(_ context.Context, email string, _ time.Time) error {
	s.sent = append(s.sent, email)
	return nil
}

func (s *stubOTP) Confirm(_ context.Context, email, _ string, _ time.Time) error {
	s.confirmed[email] = true
	return nil
}

func (s *stubOTP) Consume(_ context.Context, email string, _ time.Time) error {
	if !s.confirmed[email] {
		return dErrors.New(dErrors.CodeInvalidInput, "email is not verified")
	}
	delete(s.confirmed, email)
	return nil
}

type WorkflowSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	admissions *admissionservice.Service
	principals principalstore.Store
	otp        *stubOTP
	service    *Service
	adminID    id.PrincipalID
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.adminID = id.NewPrincipalID()

	admissions, err := admissionservice.New(admissionstore.NewInMemory())
	s.Require().NoError(err)
	s.admissions = admissions
	s.principals = principalstore.NewInMemory()
	s.otp = &stubOTP{confirmed: make(map[string]bool)}

	svc, err := New(admissions, store.NewInMemory(), s.principals, s.otp)
	s.Require().NoError(err)
	s.service = svc

	_, err = s.admissions.Add(s.ctx, admissionservice.RecordInput{
		Number:         "2020CS001",
		FullName:       "John Doe",
		GraduationYear: 2024,
		Course:         "B.Tech CS",
	})
	s.Require().NoError(err)
}

func (s *WorkflowSuite) newPrincipal(email string, role id.Role) *principalmodels.Principal {
	p, err := principalmodels.New(id.NewPrincipalID(), email, "John Doe", "hash", role, 30*24*time.Hour, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.principals.Create(s.ctx, p))
	return p
}

func (s *WorkflowSuite) adminCtx() context.Context {
	return requestcontext.WithPrincipal(s.ctx, s.adminID, id.RoleAdmin)
}

func (s *WorkflowSuite) submitStudent(p *principalmodels.Principal) *models.Request {
	req, err := s.service.Submit(s.ctx, SubmitInput{
		PrincipalID:     p.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-1",
		AdmissionNumber: id.AdmissionNumber("2020CS001"),
	})
	s.Require().NoError(err)
	return req
}

func (s *WorkflowSuite) TestValidationTaxonomy() {
	s.Run("full match", func() {
		result, err := s.service.ValidateAdmission(s.ctx, "2020CS001", "John Doe", 2024)
		s.Require().NoError(err)
		s.True(result.Valid)
		s.Equal(models.ValidationValid, result.Status)
	})

	s.Run("year mismatch is corrected, still valid", func() {
		result, err := s.service.ValidateAdmission(s.ctx, "2020CS001", "John Doe", 2023)
		s.Require().NoError(err)
		s.True(result.Valid)
		s.Equal(models.ValidationYearCorrected, result.Status)
		s.Equal(2024, result.CorrectedYear)
	})

	s.Run("name mismatch suggests canonical name", func() {
		result, err := s.service.ValidateAdmission(s.ctx, "2020CS001", "Jane Smith", 0)
		s.Require().NoError(err)
		s.False(result.Valid)
		s.Equal(models.ValidationNameMismatch, result.Status)
		s.Equal("John Doe", result.SuggestedName)
	})

	s.Run("unknown number", func() {
		result, err := s.service.ValidateAdmission(s.ctx, "9999ZZ999", "Anyone", 0)
		s.Require().NoError(err)
		s.False(result.Valid)
		s.Equal(models.ValidationNotFound, result.Status)
	})

	s.Run("claimed number", func() {
		p := s.newPrincipal("claimer@example.com", id.RoleStudent)
		s.submitStudent(p)

		result, err := s.service.ValidateAdmission(s.ctx, "2020CS001", "John Doe", 2024)
		s.Require().NoError(err)
		s.False(result.Valid)
		s.Equal(models.ValidationAlreadyUsed, result.Status)
	})
}

func (s *WorkflowSuite) TestSubmitStudent() {
	p := s.newPrincipal("student@example.com", id.RoleStudent)
	req := s.submitStudent(p)

	s.Equal(models.RequestPending, req.Status)
	s.Equal(id.MethodIDCard, req.Method)

	updated, err := s.principals.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(id.VerificationPending, updated.Verification)
	s.True(updated.AdmissionVerified)
	s.Equal(id.AdmissionNumber("2020CS001"), updated.AdmissionNumber)
	s.Equal(principalmodels.Capabilities{}, updated.Capabilities)

	record, err := s.admissions.Get(s.ctx, id.AdmissionNumber("2020CS001"))
	s.Require().NoError(err)
	s.True(record.Claimed)
	s.Equal(p.ID, *record.ClaimedBy)
}

func (s *WorkflowSuite) TestSubmitRequiresEvidence() {
	p := s.newPrincipal("student@example.com", id.RoleStudent)

	_, err := s.service.Submit(s.ctx, SubmitInput{
		PrincipalID:     p.ID,
		Method:          id.MethodIDCard,
		AdmissionNumber: id.AdmissionNumber("2020CS001"),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *WorkflowSuite) TestSubmitSingleOpenRequest() {
	p := s.newPrincipal("student@example.com", id.RoleStudent)
	s.submitStudent(p)

	_, err := s.service.Submit(s.ctx, SubmitInput{
		PrincipalID:     p.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-2",
		AdmissionNumber: id.AdmissionNumber("2020CS001"),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *WorkflowSuite) TestSubmitGuardFailsClosedOnStoreError() {
	requests := store.NewInMemory()
	svc, err := New(s.admissions, requests, s.principals, s.otp)
	s.Require().NoError(err)

	p := s.newPrincipal("student@example.com", id.RoleStudent)
	_, err = svc.Submit(s.ctx, SubmitInput{
		PrincipalID:     p.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-1",
		AdmissionNumber: id.AdmissionNumber("2020CS001"),
	})
	s.Require().NoError(err)

	_, err = s.admissions.Add(s.ctx, admissionservice.RecordInput{
		Number:         "2021CS002",
		FullName:       "John Doe",
		GraduationYear: 2025,
	})
	s.Require().NoError(err)

	// A failing lookup must not be mistaken for "no open request".
	flaky, err := New(s.admissions, &unavailableRequestStore{Store: requests}, s.principals, s.otp)
	s.Require().NoError(err)

	_, err = flaky.Submit(s.ctx, SubmitInput{
		PrincipalID:     p.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-2",
		AdmissionNumber: id.AdmissionNumber("2021CS002"),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	pending, err := requests.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)

	record, err := s.admissions.Get(s.ctx, id.AdmissionNumber("2021CS002"))
	s.Require().NoError(err)
	s.False(record.Claimed)
}

func (s *WorkflowSuite) TestSubmitLosesClaimRace() {
	winner := s.newPrincipal("winner@example.com", id.RoleStudent)
	loser := s.newPrincipal("loser@example.com", id.RoleAlumni)
	s.submitStudent(winner)

	_, err := s.service.Submit(s.ctx, SubmitInput{
		PrincipalID:     loser.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-2",
		AdmissionNumber: id.AdmissionNumber("2020CS001"),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *WorkflowSuite) TestSubmitAspirant() {
	p := s.newPrincipal("aspirant@example.com", id.RoleAspirant)
	s.otp.confirmed["aspirant@example.com"] = true

	req, err := s.service.Submit(s.ctx, SubmitInput{
		PrincipalID: p.ID,
		Method:      id.MethodEmailOTP,
	})
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, req.Status)

	updated, err := s.principals.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(id.VerificationApproved, updated.Verification)
	s.True(updated.EmailVerified)
	s.False(updated.AdmissionVerified)
	s.Equal(principalmodels.Capabilities{
		CanPostFeed: true,
		CanMessage:  true,
	}, updated.Capabilities)
}

func (s *WorkflowSuite) TestSubmitAspirantWithoutConfirmedOTP() {
	p := s.newPrincipal("aspirant@example.com", id.RoleAspirant)

	_, err := s.service.Submit(s.ctx, SubmitInput{
		PrincipalID: p.ID,
		Method:      id.MethodEmailOTP,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *WorkflowSuite) TestOTPIsAspirantOnly() {
	student := s.newPrincipal("student@example.com", id.RoleStudent)
	err := s.service.SendOTP(s.ctx, student.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	aspirant := s.newPrincipal("aspirant@example.com", id.RoleAspirant)
	s.Require().NoError(s.service.SendOTP(s.ctx, aspirant.ID))
	s.Equal([]string{"aspirant@example.com"}, s.otp.sent)

	s.Require().NoError(s.service.ConfirmOTP(s.ctx, aspirant.ID, "123456"))
	s.True(s.otp.confirmed["aspirant@example.com"])
}

func (s *WorkflowSuite) TestDecideRequiresAdmin() {
	p := s.newPrincipal("student@example.com", id.RoleStudent)
	req := s.submitStudent(p)

	studentCtx := requestcontext.WithPrincipal(s.ctx, p.ID, id.RoleStudent)
	_, err := s.service.Decide(studentCtx, req.ID, DecisionApprove, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *WorkflowSuite) TestDecideRejectRequiresReason() {
	p := s.newPrincipal("student@example.com", id.RoleStudent)
	req := s.submitStudent(p)

	_, err := s.service.Decide(s.adminCtx(), req.ID, DecisionReject, "   ")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// Nothing was mutated.
	pending, err := s.service.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *WorkflowSuite) TestDecideApprove() {
	p := s.newPrincipal("alum@example.com", id.RoleAlumni)
	req := s.submitStudent(p)

	decided, err := s.service.Decide(s.adminCtx(), req.ID, DecisionApprove, "")
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, decided.Status)
	s.Require().NotNil(decided.ReviewerID)

	updated, err := s.principals.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(id.VerificationApproved, updated.Verification)
	s.Equal(id.AccountActive, updated.Account)
	s.Equal(principalmodels.Capabilities{
		CanPostJobs:         true,
		CanPostFeed:         true,
		CanMessage:          true,
		CanAcceptMentorship: true,
	}, updated.Capabilities)
}

func (s *WorkflowSuite) TestDecideApproveReactivates() {
	trail := &capturingAudit{}
	svc, err := New(s.admissions, store.NewInMemory(), s.principals, s.otp, WithAuditPublisher(trail))
	s.Require().NoError(err)

	p := s.newPrincipal("student@example.com", id.RoleStudent)
	req, err := svc.Submit(s.ctx, SubmitInput{
		PrincipalID:     p.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-1",
		AdmissionNumber: id.AdmissionNumber("2020CS001"),
	})
	s.Require().NoError(err)

	_, err = s.principals.Execute(s.ctx, p.ID, nil, func(pr *principalmodels.Principal) {
		pr.ApplyAutoDeactivation("verification deadline passed", s.now)
	})
	s.Require().NoError(err)

	_, err = svc.Decide(s.adminCtx(), req.ID, DecisionApprove, "")
	s.Require().NoError(err)

	updated, err := s.principals.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(id.AccountActive, updated.Account)
	s.True(updated.Capabilities.CanPostFeed)
	s.Empty(updated.StatusReason)

	// The return to active is its own trail entry next to the approval.
	s.Contains(trail.actions(), audit.EventVerificationApproved)
	s.Contains(trail.actions(), audit.EventAccountReactivated)
}

func (s *WorkflowSuite) TestDecideApproveActiveAccountNoReactivationEvent() {
	trail := &capturingAudit{}
	svc, err := New(s.admissions, store.NewInMemory(), s.principals, s.otp, WithAuditPublisher(trail))
	s.Require().NoError(err)

	p := s.newPrincipal("student@example.com", id.RoleStudent)
	req, err := svc.Submit(s.ctx, SubmitInput{
		PrincipalID:     p.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-1",
		AdmissionNumber: id.AdmissionNumber("2020CS001"),
	})
	s.Require().NoError(err)

	_, err = svc.Decide(s.adminCtx(), req.ID, DecisionApprove, "")
	s.Require().NoError(err)

	s.Contains(trail.actions(), audit.EventVerificationApproved)
	s.NotContains(trail.actions(), audit.EventAccountReactivated)
}

func (s *WorkflowSuite) TestDecideRejectKeepsClaim() {
	p := s.newPrincipal("student@example.com", id.RoleStudent)
	req := s.submitStudent(p)

	decided, err := s.service.Decide(s.adminCtx(), req.ID, DecisionReject, "document unreadable")
	s.Require().NoError(err)
	s.Equal(models.RequestRejected, decided.Status)
	s.Equal("document unreadable", decided.RejectionReason)

	updated, err := s.principals.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(id.VerificationRejected, updated.Verification)
	s.Equal(principalmodels.Capabilities{}, updated.Capabilities)

	// The claim stays held by the same principal after rejection.
	record, err := s.admissions.Get(s.ctx, id.AdmissionNumber("2020CS001"))
	s.Require().NoError(err)
	s.True(record.Claimed)
	s.Equal(p.ID, *record.ClaimedBy)
}

func (s *WorkflowSuite) TestDecideIsSingleShot() {
	p := s.newPrincipal("student@example.com", id.RoleStudent)
	req := s.submitStudent(p)

	_, err := s.service.Decide(s.adminCtx(), req.ID, DecisionApprove, "")
	s.Require().NoError(err)

	_, err = s.service.Decide(s.adminCtx(), req.ID, DecisionReject, "changed my mind")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	updated, err := s.principals.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(id.VerificationApproved, updated.Verification)
}

func (s *WorkflowSuite) TestListPendingOldestFirst() {
	first := s.newPrincipal("a@example.com", id.RoleStudent)
	s.submitStudent(first)

	_, err := s.admissions.Add(s.ctx, admissionservice.RecordInput{
		Number:         "2021CS002",
		FullName:       "John Doe",
		GraduationYear: 2025,
	})
	s.Require().NoError(err)

	later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
	second := s.newPrincipal("b@example.com", id.RoleStudent)
	_, err = s.service.Submit(later, SubmitInput{
		PrincipalID:     second.ID,
		Method:          id.MethodIDCard,
		EvidenceURL:     "https://evidence.example/doc-2",
		AdmissionNumber: id.AdmissionNumber("2021CS002"),
	})
	s.Require().NoError(err)

	pending, err := s.service.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].PrincipalID)
	s.Equal(second.ID, pending[1].PrincipalID)
}

package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
)

type captureSender struct {
	lastEmail string
	lastCode  string
}

func (s *captureSender) SendCode(_ context.Context, email, code string) error {
	s.lastEmail = email
	s.lastCode = code
	return nil
}

type OTPSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	sender  *captureSender
	service *Service
}

func TestOTPSuite(t *testing.T) {
	suite.Run(t, new(OTPSuite))
}

func (s *OTPSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.sender = &captureSender{}
	svc, err := New(NewMemoryStore(), s.sender)
	s.Require().NoError(err)
	s.service = svc
}

func (s *OTPSuite) TestSendAndConfirm() {
	s.Require().NoError(s.service.Send(s.ctx, "Aspirant@Example.COM", s.now))
	s.Equal("aspirant@example.com", s.sender.lastEmail)
	s.Len(s.sender.lastCode, CodeLength)

	err := s.service.Confirm(s.ctx, "aspirant@example.com", s.sender.lastCode, s.now.Add(time.Minute))
	s.NoError(err)

	s.Run("consume destroys the challenge", func() {
		s.NoError(s.service.Consume(s.ctx, "aspirant@example.com", s.now.Add(2*time.Minute)))

		err := s.service.Consume(s.ctx, "aspirant@example.com", s.now.Add(2*time.Minute))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *OTPSuite) TestWrongCodeBurnsAttempts() {
	s.Require().NoError(s.service.Send(s.ctx, "a@example.com", s.now))

	wrong := "000000"
	if s.sender.lastCode == wrong {
		wrong = "000001"
	}

	for i := 0; i < MaxAttempts-1; i++ {
		err := s.service.Confirm(s.ctx, "a@example.com", wrong, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}

	// Fifth wrong attempt destroys the challenge.
	err := s.service.Confirm(s.ctx, "a@example.com", wrong, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeExpired))

	// Even the right code is dead now.
	err = s.service.Confirm(s.ctx, "a@example.com", s.sender.lastCode, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *OTPSuite) TestExpiry() {
	s.Require().NoError(s.service.Send(s.ctx, "a@example.com", s.now))

	err := s.service.Confirm(s.ctx, "a@example.com", s.sender.lastCode, s.now.Add(TTL))
	s.True(dErrors.HasCode(err, dErrors.CodeExpired))
}

func (s *OTPSuite) TestConfirmRequiresSixDigits() {
	err := s.service.Confirm(s.ctx, "a@example.com", "123", s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *OTPSuite) TestUnverifiedConsumeFails() {
	s.Require().NoError(s.service.Send(s.ctx, "a@example.com", s.now))

	err := s.service.Consume(s.ctx, "a@example.com", s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

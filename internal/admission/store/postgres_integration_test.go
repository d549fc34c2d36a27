//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "admission_records"))
}

func (s *PostgresStoreSuite) seedRecord(number string) id.AdmissionNumber {
	parsed, err := id.ParseAdmissionNumber(number)
	s.Require().NoError(err)
	record, err := models.New(parsed, "Priya Menon", 2024, "Computer Science", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), record))
	return parsed
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	number := s.seedRecord("CS-2024-001")

	record, err := s.store.Find(context.Background(), number)
	s.Require().NoError(err)
	s.Equal("Priya Menon", record.FullName)
	s.Equal(2024, record.GraduationYear)
	s.False(record.Claimed)
}

func (s *PostgresStoreSuite) TestDuplicateNumberConflicts() {
	s.seedRecord("CS-2024-002")

	parsed, err := id.ParseAdmissionNumber("CS-2024-002")
	s.Require().NoError(err)
	record, err := models.New(parsed, "Someone Else", 2023, "", s.now)
	s.Require().NoError(err)

	err = s.store.Create(context.Background(), record)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentClaimCollision verifies that racing claims on the same record
// produce exactly one winner.
func (s *PostgresStoreSuite) TestConcurrentClaimCollision() {
	ctx := context.Background()
	number := s.seedRecord("CS-2024-003")

	const goroutines = 20
	var (
		wg     sync.WaitGroup
		wins   atomic.Int32
		losses atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Claim(ctx, number, id.NewPrincipalID(), s.now)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				losses.Add(1)
			default:
				s.T().Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), losses.Load())
}

func (s *PostgresStoreSuite) TestReleaseReopensClaim() {
	ctx := context.Background()
	number := s.seedRecord("CS-2024-004")
	claimant := id.NewPrincipalID()

	_, err := s.store.Claim(ctx, number, claimant, s.now)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Release(ctx, number, s.now))

	_, err = s.store.Claim(ctx, number, id.NewPrincipalID(), s.now)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestDeleteRefusesClaimed() {
	ctx := context.Background()
	number := s.seedRecord("CS-2024-005")

	_, err := s.store.Claim(ctx, number, id.NewPrincipalID(), s.now)
	s.Require().NoError(err)

	err = s.store.Delete(ctx, number)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

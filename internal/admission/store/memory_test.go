package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

type AdmissionStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestAdmissionStoreSuite(t *testing.T) {
	suite.Run(t, new(AdmissionStoreSuite))
}

func (s *AdmissionStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *AdmissionStoreSuite) newRecord(number string) *models.Record {
	r, err := models.New(id.AdmissionNumber(number), "John Doe", 2024, "CS", time.Now())
	s.Require().NoError(err)
	return r
}

func (s *AdmissionStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds by number", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS001")))

		found, err := s.store.Find(s.ctx, "2020CS001")
		s.Require().NoError(err)
		s.Equal("John Doe", found.FullName)
		s.False(found.Claimed)
	})

	s.Run("rejects duplicate number", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS002")))
		s.Require().ErrorIs(s.store.Create(s.ctx, s.newRecord("2020CS002")), sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown number", func() {
		_, err := s.store.Find(s.ctx, "9999ZZ999")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AdmissionStoreSuite) TestClaim() {
	s.Run("claim sets claimant and timestamp", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS010")))
		pid := id.NewPrincipalID()
		now := time.Now()

		r, err := s.store.Claim(s.ctx, "2020CS010", pid, now)
		s.Require().NoError(err)
		s.True(r.Claimed)
		s.Require().NotNil(r.ClaimedBy)
		s.Equal(pid, *r.ClaimedBy)
		s.Require().NotNil(r.ClaimedAt)
	})

	s.Run("second claim loses", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS011")))
		_, err := s.store.Claim(s.ctx, "2020CS011", id.NewPrincipalID(), time.Now())
		s.Require().NoError(err)

		_, err = s.store.Claim(s.ctx, "2020CS011", id.NewPrincipalID(), time.Now())
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("claiming a missing record returns ErrNotFound", func() {
		_, err := s.store.Claim(s.ctx, "MISSING", id.NewPrincipalID(), time.Now())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentClaim races many principals at one record; exactly one may
// win and the stored claimant must match the winner.
func (s *AdmissionStoreSuite) TestConcurrentClaim() {
	s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS020")))

	const goroutines = 50
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	winners := make([]id.PrincipalID, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pid := id.NewPrincipalID()
			_, err := s.store.Claim(s.ctx, "2020CS020", pid, time.Now())
			switch {
			case err == nil:
				winners[i] = pid
				successCount.Add(1)
			case err == sentinel.ErrAlreadyUsed:
				conflictCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())

	var winner id.PrincipalID
	for _, w := range winners {
		if !w.IsNil() {
			winner = w
		}
	}
	r, err := s.store.Find(s.ctx, "2020CS020")
	s.Require().NoError(err)
	s.Require().NotNil(r.ClaimedBy)
	s.Equal(winner, *r.ClaimedBy)
}

func (s *AdmissionStoreSuite) TestReleaseAndDelete() {
	s.Run("release clears claim fields", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS030")))
		_, err := s.store.Claim(s.ctx, "2020CS030", id.NewPrincipalID(), time.Now())
		s.Require().NoError(err)

		s.Require().NoError(s.store.Release(s.ctx, "2020CS030", time.Now()))

		r, err := s.store.Find(s.ctx, "2020CS030")
		s.Require().NoError(err)
		s.False(r.Claimed)
		s.Nil(r.ClaimedBy)
		s.Nil(r.ClaimedAt)
	})

	s.Run("delete refuses while claimed", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS031")))
		_, err := s.store.Claim(s.ctx, "2020CS031", id.NewPrincipalID(), time.Now())
		s.Require().NoError(err)

		s.Require().ErrorIs(s.store.Delete(s.ctx, "2020CS031"), sentinel.ErrInvalidState)
	})

	s.Run("delete removes unclaimed record", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("2020CS032")))
		s.Require().NoError(s.store.Delete(s.ctx, "2020CS032"))

		_, err := s.store.Find(s.ctx, "2020CS032")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

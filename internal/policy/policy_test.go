package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

func principalWith(role id.Role, mutate func(*models.Principal)) *models.Principal {
	p := &models.Principal{
		ID:           id.NewPrincipalID(),
		Email:        "p@example.edu",
		Role:         role,
		Verification: id.VerificationUnverified,
		Account:      id.AccountActive,
		CreatedAt:    time.Now(),
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

// TestAdminOverride sweeps adversarial field combinations: an admin must
// pass every check no matter what the rest of the document says.
func TestAdminOverride(t *testing.T) {
	worstCases := []func(*models.Principal){
		nil,
		func(p *models.Principal) { p.Account = id.AccountAutoDeactivated },
		func(p *models.Principal) { p.Account = id.AccountSuspended },
		func(p *models.Principal) { p.Verification = id.VerificationRejected },
		func(p *models.Principal) {
			p.Account = id.AccountSuspended
			p.Verification = id.VerificationRejected
			p.AdmissionVerified = false
			p.EmailVerified = false
			past := time.Now().Add(-48 * time.Hour)
			p.VerificationDeadline = &past
		},
	}

	for _, mutate := range worstCases {
		p := principalWith(id.RoleAdmin, mutate)
		assert.True(t, IsFullyVerified(p))
		assert.True(t, CanPostJobs(p))
		assert.True(t, CanPostFeed(p))
		assert.True(t, CanMessage(p))
		assert.True(t, CanAcceptMentorship(p))
		assert.False(t, IsDeactivated(p))
	}
}

func TestFullyVerified(t *testing.T) {
	t.Run("approved student with admission is fully verified", func(t *testing.T) {
		p := principalWith(id.RoleStudent, func(p *models.Principal) {
			p.Verification = id.VerificationApproved
			p.AdmissionVerified = true
		})
		assert.True(t, IsFullyVerified(p))
		assert.True(t, CanPostFeed(p))
		assert.True(t, CanMessage(p))
		assert.False(t, CanPostJobs(p), "students never post jobs")
		assert.False(t, CanAcceptMentorship(p))
	})

	t.Run("verified alumni gets the full set", func(t *testing.T) {
		p := principalWith(id.RoleAlumni, func(p *models.Principal) {
			p.Verification = id.VerificationApproved
			p.AdmissionVerified = true
		})
		assert.True(t, CanPostJobs(p))
		assert.True(t, CanAcceptMentorship(p))
	})

	t.Run("deactivation strips everything", func(t *testing.T) {
		p := principalWith(id.RoleAlumni, func(p *models.Principal) {
			p.Verification = id.VerificationApproved
			p.AdmissionVerified = true
			p.Account = id.AccountAutoDeactivated
		})
		assert.True(t, IsDeactivated(p))
		assert.False(t, IsFullyVerified(p))
		assert.False(t, CanPostJobs(p))
		assert.False(t, CanPostFeed(p))
	})

	t.Run("pending approval grants nothing", func(t *testing.T) {
		p := principalWith(id.RoleStudent, func(p *models.Principal) {
			p.Verification = id.VerificationPending
			p.AdmissionVerified = true
		})
		assert.False(t, IsFullyVerified(p))
		assert.Equal(t, models.Capabilities{}, Capabilities(p))
	})
}

func TestAspirantPath(t *testing.T) {
	t.Run("approved aspirant can post and message but not more", func(t *testing.T) {
		p := principalWith(id.RoleAspirant, func(p *models.Principal) {
			p.Verification = id.VerificationApproved
			p.EmailVerified = true
		})
		assert.False(t, IsFullyVerified(p), "aspirants never reach full verification")
		assert.Equal(t, models.Capabilities{
			CanPostFeed: true,
			CanMessage:  true,
		}, Capabilities(p))
	})

	t.Run("unconfirmed email grants nothing", func(t *testing.T) {
		p := principalWith(id.RoleAspirant, func(p *models.Principal) {
			p.Verification = id.VerificationApproved
		})
		assert.Equal(t, models.Capabilities{}, Capabilities(p))
	})

	t.Run("deactivated aspirant loses access", func(t *testing.T) {
		p := principalWith(id.RoleAspirant, func(p *models.Principal) {
			p.Verification = id.VerificationApproved
			p.EmailVerified = true
			p.Account = id.AccountSuspended
		})
		assert.Equal(t, models.Capabilities{}, Capabilities(p))
	})
}

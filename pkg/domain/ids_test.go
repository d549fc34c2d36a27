package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePrincipalID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePrincipalID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRequestID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParsePrincipalID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, PrincipalID(validUUID), id)
	})
}

func TestParseAdmissionNumber(t *testing.T) {
	t.Run("normalizes to uppercase and trims", func(t *testing.T) {
		n, err := ParseAdmissionNumber("  2020cs001 ")
		require.NoError(t, err)
		assert.Equal(t, AdmissionNumber("2020CS001"), n)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseAdmissionNumber("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestParseRole(t *testing.T) {
	t.Run("accepts known roles", func(t *testing.T) {
		for _, s := range []string{"student", "alumni", "aspirant", "admin"} {
			r, err := ParseRole(s)
			require.NoError(t, err)
			assert.True(t, r.IsValid())
		}
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := ParseRole("faculty")
		require.Error(t, err)
	})

	t.Run("admission requirement follows role", func(t *testing.T) {
		assert.True(t, RoleStudent.RequiresAdmission())
		assert.True(t, RoleAlumni.RequiresAdmission())
		assert.False(t, RoleAspirant.RequiresAdmission())
		assert.False(t, RoleAdmin.RequiresAdmission())
	})
}

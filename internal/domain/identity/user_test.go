package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := NewUser("owner@example.com", "Store Owner", "SuperSecret1")

		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", user.Email)
		assert.Equal(t, "Store Owner", user.Name)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.NotEqual(t, "SuperSecret1", user.PasswordHash)
		assert.True(t, user.VerifyPassword("SuperSecret1"))
		assert.False(t, user.VerifyPassword("wrong"))
	})

	t.Run("normalizes email to lowercase", func(t *testing.T) {
		user, err := NewUser("  Owner@Example.COM ", "Owner", "SuperSecret1")

		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", user.Email)
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		for _, email := range []string{"", "no-at-sign", "@example.com", "owner@"} {
			user, err := NewUser(email, "Owner", "SuperSecret1")
			assert.Error(t, err, "email %q should be rejected", email)
			assert.Nil(t, user)
		}
	})

	t.Run("fails with short password", func(t *testing.T) {
		user, err := NewUser("owner@example.com", "Owner", "short")

		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "at least 8 characters")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		user, err := NewUser("owner@example.com", "", "SuperSecret1")

		assert.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestUserChangePassword(t *testing.T) {
	user, _ := NewUser("owner@example.com", "Owner", "OriginalPass1")

	require.NoError(t, user.ChangePassword("ReplacementPass1"))
	assert.True(t, user.VerifyPassword("ReplacementPass1"))
	assert.False(t, user.VerifyPassword("OriginalPass1"))

	assert.Error(t, user.ChangePassword("short"))
}

func TestUserDisable(t *testing.T) {
	user, _ := NewUser("owner@example.com", "Owner", "SuperSecret1")

	require.NoError(t, user.Disable())
	assert.False(t, user.IsActive())
	assert.Error(t, user.Disable())
}

func TestNewMembership(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()

	t.Run("creates admin membership", func(t *testing.T) {
		m, err := NewMembership(userID, tenantID, RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, userID, m.UserID)
		assert.Equal(t, tenantID, m.TenantID)
		assert.True(t, m.IsAdmin())
	})

	t.Run("fails with nil user", func(t *testing.T) {
		m, err := NewMembership(uuid.Nil, tenantID, RoleViewer)

		assert.Error(t, err)
		assert.Nil(t, m)
	})

	t.Run("fails with nil tenant", func(t *testing.T) {
		m, err := NewMembership(userID, uuid.Nil, RoleViewer)

		assert.Error(t, err)
		assert.Nil(t, m)
	})

	t.Run("fails with unknown role", func(t *testing.T) {
		m, err := NewMembership(userID, tenantID, MembershipRole("superuser"))

		assert.Error(t, err)
		assert.Nil(t, m)
	})
}

func TestMembershipChangeRole(t *testing.T) {
	m, _ := NewMembership(uuid.New(), uuid.New(), RoleViewer)

	require.NoError(t, m.ChangeRole(RoleAdmin))
	assert.True(t, m.IsAdmin())

	assert.Error(t, m.ChangeRole(MembershipRole("bogus")))
}

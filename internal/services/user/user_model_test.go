package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New("ab", "valid@example.com", "secret1", RoleStandard)
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = New("alice", "not-an-email", "secret1", RoleStandard)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = New("alice", "alice@example.com", "short", RoleStandard)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = New("alice", "alice@example.com", "secret1", Role("owner"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNewNormalizesIdentity(t *testing.T) {
	u, err := New("  Alice  ", "Alice@Example.COM", "secret1", RoleStandard)
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username())
	assert.Equal(t, "alice@example.com", u.Email())
	assert.NotEmpty(t, u.ID())
}

func TestRolePermissions(t *testing.T) {
	admin, err := New("admin", "admin@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)
	assert.True(t, admin.HasPermission("user.manage"))
	assert.False(t, admin.HasPermission("content.create"))

	standard, err := New("alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)
	assert.True(t, standard.HasPermission("content.create"))
	assert.False(t, standard.HasPermission("user.manage"))

	guest, err := New("guest1", "guest@example.com", "secret1", RoleGuest)
	require.NoError(t, err)
	assert.Equal(t, []string{"content.read"}, guest.Permissions())
}

func TestChangeRoleRecomputesPermissions(t *testing.T) {
	u, err := New("alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	require.NoError(t, u.ChangeRole(RoleAdmin))
	assert.True(t, u.IsAdmin())
	assert.True(t, u.HasPermission("admin.panel"))
	assert.False(t, u.HasPermission("content.create"))

	assert.ErrorIs(t, u.ChangeRole(Role("superuser")), ErrInvalidRole)
	assert.Equal(t, RoleAdmin, u.Role())
}

func TestVerifyPassword(t *testing.T) {
	u, err := New("alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	assert.True(t, u.VerifyPassword("secret1"))
	assert.False(t, u.VerifyPassword("secret2"))
	assert.False(t, u.VerifyPassword(""))
}

func TestChangePassword(t *testing.T) {
	u, err := New("alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	assert.ErrorIs(t, u.ChangePassword("wrong", "newsecret"), ErrIncorrectPassword)
	assert.ErrorIs(t, u.ChangePassword("secret1", "tiny"), ErrPasswordTooShort)
	assert.True(t, u.VerifyPassword("secret1"))

	require.NoError(t, u.ChangePassword("secret1", "newsecret"))
	assert.True(t, u.VerifyPassword("newsecret"))
	assert.False(t, u.VerifyPassword("secret1"))
}

func TestRecordRoundTrip(t *testing.T) {
	u, err := New("alice", "alice@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)
	u.UpdateProfile(Profile{FirstName: "Alice", LastName: "Smith", Bio: "dev"})

	decoded, err := FromRecord(u.ToRecord())
	require.NoError(t, err)

	assert.Equal(t, u.ID(), decoded.ID())
	assert.Equal(t, u.Username(), decoded.Username())
	assert.Equal(t, u.Email(), decoded.Email())
	assert.Equal(t, u.Role(), decoded.Role())
	assert.Equal(t, u.Profile(), decoded.Profile())
	assert.Equal(t, u.Permissions(), decoded.Permissions())
	assert.True(t, decoded.VerifyPassword("secret1"))
}

func TestPublicOmitsCredential(t *testing.T) {
	u, err := New("alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	rec := u.Public()
	_, exposed := rec["password_hash"]
	assert.False(t, exposed)
	assert.Equal(t, u.ID(), rec.String("id"))
}

func TestProfileFullName(t *testing.T) {
	assert.Equal(t, "Alice Smith", Profile{FirstName: "Alice", LastName: "Smith"}.FullName())
	assert.Equal(t, "Alice", Profile{FirstName: "Alice"}.FullName())
	assert.Equal(t, "", Profile{}.FullName())
}

package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/taskforge/internal/store"
)

func newTestService() *UserService {
	return NewUserService(NewUserRepo(store.NewMemory()))
}

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Create(ctx, "alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Alice", "other@example.com", "secret1", RoleStandard)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Create(ctx, "bob", "ALICE@example.com", "secret1", RoleStandard)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	created, err := svc.Create(ctx, "alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID(), u.ID())

	// Unknown username and wrong password report the same error.
	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangeRoleRequiresAdminActor(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	admin, err := svc.Create(ctx, "admin", "admin@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)
	alice, err := svc.Create(ctx, "alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "bob", "bob@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	_, err = svc.ChangeRole(ctx, bob.ID(), RoleAdmin, alice.ID())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := svc.ChangeRole(ctx, bob.ID(), RoleAdmin, admin.ID())
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin())
}

func TestLastAdminCannotBeDemoted(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	admin, err := svc.Create(ctx, "admin", "admin@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)

	_, err = svc.ChangeRole(ctx, admin.ID(), RoleStandard, admin.ID())
	assert.ErrorIs(t, err, ErrLastAdmin)
	_, err = svc.Deactivate(ctx, admin.ID(), admin.ID())
	assert.ErrorIs(t, err, ErrLastAdmin)

	// A second admin lifts the restriction.
	second, err := svc.Create(ctx, "admin2", "admin2@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)

	demoted, err := svc.ChangeRole(ctx, admin.ID(), RoleStandard, second.ID())
	require.NoError(t, err)
	assert.Equal(t, RoleStandard, demoted.Role())

	// The survivor is now the last admin again.
	_, err = svc.ChangeRole(ctx, second.ID(), RoleGuest, second.ID())
	assert.ErrorIs(t, err, ErrLastAdmin)
}

func TestPromotingAdminIsNotBlocked(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	admin, err := svc.Create(ctx, "admin", "admin@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)

	// admin -> admin never trips the last-admin rule.
	_, err = svc.ChangeRole(ctx, admin.ID(), RoleAdmin, admin.ID())
	assert.NoError(t, err)
}

func TestDeactivateDemotesToGuest(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	admin, err := svc.Create(ctx, "admin", "admin@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)
	alice, err := svc.Create(ctx, "alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(ctx, alice.ID(), admin.ID())
	require.NoError(t, err)
	assert.Equal(t, RoleGuest, deactivated.Role())
	assert.Equal(t, []string{"content.read"}, deactivated.Permissions())

	// No hard deletion; the user is still resolvable.
	_, err = svc.GetByID(ctx, alice.ID())
	assert.NoError(t, err)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Create(ctx, "alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "bob", "bob@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, bob.ID(), Profile{FirstName: "Robert"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	// Profile names participate in matching.
	found, err = svc.Search(ctx, "robert", nil)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	role := RoleAdmin
	found, err = svc.Search(ctx, "", &role)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, bob.ID(), found[0].ID())
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Create(ctx, "admin", "admin@example.com", "secret1", RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", "bob@example.com", "secret1", RoleStandard)
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByRole[RoleAdmin])
	assert.Equal(t, 2, stats.ByRole[RoleStandard])
	assert.Equal(t, 0, stats.ByRole[RoleGuest])
	assert.Equal(t, 3, stats.RecentRegistrations)
}

func TestActivitySummary(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	created, err := svc.Create(ctx, "alice", "alice@example.com", "secret1", RoleStandard)
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, created.ID(), Profile{FirstName: "Alice", LastName: "Smith"})
	require.NoError(t, err)

	summary, err := svc.ActivitySummary(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, created.ID(), summary.UserID)
	assert.Equal(t, "alice", summary.Username)
	assert.False(t, summary.IsAdmin)
	assert.Equal(t, "Alice Smith", summary.Profile.FullName())
	assert.Contains(t, summary.Permissions, "content.create")

	_, err = svc.ActivitySummary(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

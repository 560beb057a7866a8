package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New("   ", "desc", "leader-1")
	assert.ErrorIs(t, err, ErrEmptyName)

	team, err := New("Core", "platform team", "leader-1")
	require.NoError(t, err)
	assert.Equal(t, "leader-1", team.LeaderID())
	assert.Zero(t, team.MemberCount())
}

func TestAddMemberRejectsDuplicates(t *testing.T) {
	team, err := New("Core", "", "leader-1")
	require.NoError(t, err)

	m, err := team.AddMember("u1", RoleMember)
	require.NoError(t, err)
	assert.Equal(t, RoleMember, m.Role)
	assert.False(t, m.JoinedAt.IsZero())

	_, err = team.AddMember("u1", RoleContributor)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.Equal(t, 1, team.MemberCount())

	_, err = team.AddMember("u2", Role("boss"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRemoveMember(t *testing.T) {
	team, err := New("Core", "", "leader-1")
	require.NoError(t, err)
	_, err = team.AddMember("leader-1", RoleLeader)
	require.NoError(t, err)
	_, err = team.AddMember("u1", RoleMember)
	require.NoError(t, err)

	// The current leader can never be removed.
	_, err = team.RemoveMember("leader-1")
	assert.ErrorIs(t, err, ErrCannotRemoveLeader)

	removed, err := team.RemoveMember("u1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = team.RemoveMember("u1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPromoteMemberRecomputesPermissions(t *testing.T) {
	team, err := New("Core", "", "leader-1")
	require.NoError(t, err)
	_, err = team.AddMember("u1", RoleContributor)
	require.NoError(t, err)

	assert.True(t, team.HasPermission("u1", "comment.add"))
	assert.False(t, team.HasPermission("u1", "task.create"))

	promoted, err := team.PromoteMember("u1", RoleMember)
	require.NoError(t, err)
	assert.True(t, promoted)

	role, ok := team.MemberRole("u1")
	require.True(t, ok)
	assert.Equal(t, RoleMember, role)
	assert.True(t, team.HasPermission("u1", "task.create"))
	assert.False(t, team.HasPermission("u1", "team.manage"))

	promoted, err = team.PromoteMember("ghost", RoleMember)
	require.NoError(t, err)
	assert.False(t, promoted)

	_, err = team.PromoteMember("u1", Role("boss"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRolePermissionTable(t *testing.T) {
	team, err := New("Core", "", "")
	require.NoError(t, err)
	_, err = team.AddMember("lead", RoleLeader)
	require.NoError(t, err)

	for _, p := range []string{"team.manage", "member.add", "member.remove", "member.promote", "project.create", "project.assign"} {
		assert.True(t, team.HasPermission("lead", p), p)
	}
	// Leaders hold management permissions, not the member work set.
	assert.False(t, team.HasPermission("lead", "task.create"))

	// Non-members hold nothing.
	assert.False(t, team.HasPermission("ghost", "project.view"))
}

func TestProjects(t *testing.T) {
	team, err := New("Core", "", "")
	require.NoError(t, err)

	team.AddProject("p1")
	team.AddProject("p1")
	team.AddProject("p2")
	assert.Equal(t, []string{"p1", "p2"}, team.ProjectIDs())

	team.RemoveProject("p1")
	assert.Equal(t, []string{"p2"}, team.ProjectIDs())
}

func TestMembersByRole(t *testing.T) {
	team, err := New("Core", "", "")
	require.NoError(t, err)
	_, err = team.AddMember("u1", RoleMember)
	require.NoError(t, err)
	_, err = team.AddMember("u2", RoleMember)
	require.NoError(t, err)
	_, err = team.AddMember("u3", RoleContributor)
	require.NoError(t, err)

	assert.Len(t, team.MembersByRole(RoleMember), 2)
	assert.Len(t, team.MembersByRole(RoleContributor), 1)
	assert.Empty(t, team.MembersByRole(RoleLeader))
}

func TestRecordRoundTrip(t *testing.T) {
	team, err := New("Core", "platform team", "leader-1")
	require.NoError(t, err)
	_, err = team.AddMember("leader-1", RoleLeader)
	require.NoError(t, err)
	_, err = team.AddMember("u1", RoleContributor)
	require.NoError(t, err)
	team.AddProject("p1")

	decoded, err := FromRecord(team.ToRecord())
	require.NoError(t, err)

	assert.Equal(t, team.ID(), decoded.ID())
	assert.Equal(t, team.Name(), decoded.Name())
	assert.Equal(t, team.LeaderID(), decoded.LeaderID())
	assert.Equal(t, team.ProjectIDs(), decoded.ProjectIDs())
	require.Equal(t, 2, decoded.MemberCount())

	role, ok := decoded.MemberRole("u1")
	require.True(t, ok)
	assert.Equal(t, RoleContributor, role)
	assert.True(t, decoded.HasPermission("u1", "comment.add"))
}

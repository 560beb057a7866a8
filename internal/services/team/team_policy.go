package team

import (
	"errors"

	"github.com/taskforge/taskforge/internal/services/user"
)

var ErrPermissionDenied = errors.New("user does not have permission for this team")

// CanManage decides whether the acting user may change a team's roster:
// admins, the designated leader, and any member holding the leader role.
// Pure; no side effects.
func CanManage(actor *user.User, t *Team) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if t.LeaderID() != "" && t.LeaderID() == actor.ID() {
		return true
	}
	role, ok := t.MemberRole(actor.ID())
	return ok && role == RoleLeader
}

package project

import (
	"errors"

	"github.com/taskforge/taskforge/internal/services/user"
)

var ErrPermissionDenied = errors.New("user does not have permission for this project")

// CanModify decides whether the acting user may mutate a project: admins,
// the owner, and project team members. Pure; no side effects.
func CanModify(actor *user.User, p *Project) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if p.OwnerID() != "" && p.OwnerID() == actor.ID() {
		return true
	}
	return p.IsMember(actor.ID())
}

package task

import (
	"errors"

	"github.com/taskforge/taskforge/internal/services/user"
)

var ErrPermissionDenied = errors.New("user does not have permission for this task")

// CanModify decides whether the acting user may mutate a task: admins may
// touch anything, assignees their own tasks. Pure; no side effects.
func CanModify(actor *user.User, t *Task) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return t.AssigneeID() != "" && t.AssigneeID() == actor.ID()
}

// CanAssign decides whether the acting user may assign or reassign a task.
// Being the assignee is not sufficient; assignment is admin-only.
func CanAssign(actor *user.User) bool {
	return actor != nil && actor.IsAdmin()
}

// CanComment follows the same rule as modification.
func CanComment(actor *user.User, t *Task) bool {
	return CanModify(actor, t)
}

package user

import "errors"

var ErrPermissionDenied = errors.New("user does not have permission to manage roles")

// CanManageRoles decides whether the acting user may promote, demote, or
// deactivate other users. Pure; no side effects.
func CanManageRoles(actor *User) bool {
	return actor != nil && actor.IsAdmin()
}

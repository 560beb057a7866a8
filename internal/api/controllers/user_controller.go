package controllers

import (
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/taskforge/taskforge/internal/perrors"
	"github.com/taskforge/taskforge/internal/services"
	user2 "github.com/taskforge/taskforge/internal/services/user"
	"github.com/taskforge/taskforge/internal/store"
)

func userRecords(users []*user2.User) []store.Record {
	out := make([]store.Record, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

func writeUserError(ctx *fasthttp.RequestCtx, msg string, err error) {
	stdCtx := requestContext(ctx)
	switch {
	case errors.Is(err, user2.ErrUserNotFound):
		writeError(ctx, stdCtx, "User not found", perrors.New(perrors.ErrCodeNotFound, "User not found", err))
	case errors.Is(err, user2.ErrUsernameTaken), errors.Is(err, user2.ErrEmailTaken):
		writeError(ctx, stdCtx, "Username or email already exists", perrors.New(perrors.ErrCodeConflict, "Username or email already exists", err))
	case errors.Is(err, user2.ErrLastAdmin):
		writeError(ctx, stdCtx, "Cannot demote the last admin", perrors.New(perrors.ErrCodeConflict, "Cannot demote the last admin", err))
	case errors.Is(err, user2.ErrPermissionDenied):
		writeError(ctx, stdCtx, "Permission denied", perrors.New(perrors.ErrCodeForbidden, "Permission denied", err))
	case errors.Is(err, user2.ErrInvalidUsername), errors.Is(err, user2.ErrInvalidEmail),
		errors.Is(err, user2.ErrPasswordTooShort), errors.Is(err, user2.ErrInvalidRole),
		errors.Is(err, user2.ErrIncorrectPassword):
		writeError(ctx, stdCtx, err.Error(), perrors.NewErrInvalidRequest(err.Error(), err))
	default:
		writeError(ctx, stdCtx, msg, perrors.NewErrInternalServerError(msg, err))
	}
}

func RegisterUserRoutes(r *router.Router, svc *services.Services) {
	// Register user
	r.POST("/api/users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		role := user2.RoleStandard
		if body.Role != "" {
			parsed, err := user2.ParseRole(body.Role)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid role", perrors.NewErrInvalidRequest("Invalid role", err))
				return
			}
			role = parsed
		}

		created, err := svc.User.Create(stdCtx, body.Username, body.Email, body.Password, role)
		if err != nil {
			writeUserError(ctx, "Failed to create user", err)
			return
		}

		writeOK(ctx, stdCtx, "User created successfully", created.Public())
	})

	// List or search users
	r.GET("/api/users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var role *user2.Role
		if raw := stringQuery(ctx, "role"); raw != "" {
			parsed, err := user2.ParseRole(raw)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid role", perrors.NewErrInvalidRequest("Invalid role", err))
				return
			}
			role = &parsed
		}

		users, err := svc.User.Search(stdCtx, stringQuery(ctx, "q"), role)
		if err != nil {
			writeUserError(ctx, "Failed to list users", err)
			return
		}

		writeOK(ctx, stdCtx, "Users retrieved successfully", userRecords(users))
	})

	// Get user by id
	r.GET("/api/users/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		u, err := svc.User.GetByID(stdCtx, id)
		if err != nil {
			writeUserError(ctx, "Failed to get user", err)
			return
		}

		writeOK(ctx, stdCtx, "User retrieved successfully", u.Public())
	})

	// Activity summary
	r.GET("/api/users/{id}/activity", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		summary, err := svc.User.ActivitySummary(stdCtx, id)
		if err != nil {
			writeUserError(ctx, "Failed to get activity summary", err)
			return
		}

		writeOK(ctx, stdCtx, "Activity summary retrieved successfully", summary)
	})

	// Update profile
	r.PUT("/api/users/{id}/profile", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body user2.Profile
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.User.UpdateProfile(stdCtx, id, body)
		if err != nil {
			writeUserError(ctx, "Failed to update profile", err)
			return
		}

		writeOK(ctx, stdCtx, "Profile updated successfully", updated.Public())
	})

	// Change password
	r.PUT("/api/users/{id}/password", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.User.ChangePassword(stdCtx, id, body.OldPassword, body.NewPassword)
		if err != nil {
			writeUserError(ctx, "Failed to change password", err)
			return
		}

		writeOK(ctx, stdCtx, "Password changed successfully", updated.Public())
	})

	// Change role
	r.PUT("/api/users/{id}/role", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			Role string `json:"role"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		role, err := user2.ParseRole(body.Role)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid role", perrors.NewErrInvalidRequest("Invalid role", err))
			return
		}

		updated, err := svc.User.ChangeRole(stdCtx, id, role, actingUserID(ctx))
		if err != nil {
			writeUserError(ctx, "Failed to change role", err)
			return
		}

		writeOK(ctx, stdCtx, "Role changed successfully", updated.Public())
	})

	// Deactivate user (demote to guest)
	r.DELETE("/api/users/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		updated, err := svc.User.Deactivate(stdCtx, id, actingUserID(ctx))
		if err != nil {
			writeUserError(ctx, "Failed to deactivate user", err)
			return
		}

		writeOK(ctx, stdCtx, "User deactivated successfully", updated.Public())
	})

	// User statistics
	r.GET("/api/statistics/users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		stats, err := svc.User.Statistics(stdCtx)
		if err != nil {
			writeUserError(ctx, "Failed to compute statistics", err)
			return
		}

		writeOK(ctx, stdCtx, "Statistics retrieved successfully", stats)
	})
}

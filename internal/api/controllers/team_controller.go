package controllers

import (
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/taskforge/taskforge/internal/perrors"
	"github.com/taskforge/taskforge/internal/services"
	project2 "github.com/taskforge/taskforge/internal/services/project"
	team2 "github.com/taskforge/taskforge/internal/services/team"
	user2 "github.com/taskforge/taskforge/internal/services/user"
	"github.com/taskforge/taskforge/internal/store"
)

func teamRecords(teams []*team2.Team) []store.Record {
	out := make([]store.Record, len(teams))
	for i, t := range teams {
		out[i] = t.ToRecord()
	}
	return out
}

func writeTeamError(ctx *fasthttp.RequestCtx, msg string, err error) {
	stdCtx := requestContext(ctx)
	switch {
	case errors.Is(err, team2.ErrTeamNotFound):
		writeError(ctx, stdCtx, "Team not found", perrors.New(perrors.ErrCodeNotFound, "Team not found", err))
	case errors.Is(err, user2.ErrUserNotFound):
		writeError(ctx, stdCtx, "User not found", perrors.New(perrors.ErrCodeNotFound, "User not found", err))
	case errors.Is(err, project2.ErrProjectNotFound):
		writeError(ctx, stdCtx, "Project not found", perrors.New(perrors.ErrCodeNotFound, "Project not found", err))
	case errors.Is(err, team2.ErrPermissionDenied):
		writeError(ctx, stdCtx, "Permission denied", perrors.New(perrors.ErrCodeForbidden, "Permission denied", err))
	case errors.Is(err, team2.ErrAlreadyMember):
		writeError(ctx, stdCtx, "User is already a member", perrors.New(perrors.ErrCodeConflict, "User is already a member", err))
	case errors.Is(err, team2.ErrCannotRemoveLeader):
		writeError(ctx, stdCtx, "Team leader cannot be removed", perrors.New(perrors.ErrCodeConflict, "Team leader cannot be removed", err))
	case errors.Is(err, team2.ErrEmptyName), errors.Is(err, team2.ErrInvalidRole):
		writeError(ctx, stdCtx, err.Error(), perrors.NewErrInvalidRequest(err.Error(), err))
	default:
		writeError(ctx, stdCtx, msg, perrors.NewErrInternalServerError(msg, err))
	}
}

func RegisterTeamRoutes(r *router.Router, svc *services.Services) {
	// Create team
	r.POST("/api/teams", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			LeaderID    string `json:"leader_id"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Team.Create(stdCtx, body.Name, body.Description, body.LeaderID)
		if err != nil {
			writeTeamError(ctx, "Failed to create team", err)
			return
		}

		writeOK(ctx, stdCtx, "Team created successfully", created.ToRecord())
	})

	// List or search teams. member= narrows to teams the user belongs to.
	r.GET("/api/teams", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		if userID := stringQuery(ctx, "member"); userID != "" {
			teams, err := svc.Team.UserTeams(stdCtx, userID)
			if err != nil {
				writeTeamError(ctx, "Failed to list teams", err)
				return
			}
			writeOK(ctx, stdCtx, "Teams retrieved successfully", teamRecords(teams))
			return
		}

		teams, err := svc.Team.Search(stdCtx, stringQuery(ctx, "q"))
		if err != nil {
			writeTeamError(ctx, "Failed to list teams", err)
			return
		}

		writeOK(ctx, stdCtx, "Teams retrieved successfully", teamRecords(teams))
	})

	// Get team by id
	r.GET("/api/teams/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		t, err := svc.Team.GetByID(stdCtx, id)
		if err != nil {
			writeTeamError(ctx, "Failed to get team", err)
			return
		}

		writeOK(ctx, stdCtx, "Team retrieved successfully", t.ToRecord())
	})

	// List members
	r.GET("/api/teams/{id}/members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		members, err := svc.Team.Members(stdCtx, id)
		if err != nil {
			writeTeamError(ctx, "Failed to list members", err)
			return
		}

		writeOK(ctx, stdCtx, "Members retrieved successfully", members)
	})

	// Add member
	r.POST("/api/teams/{id}/members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			UserID string `json:"user_id"`
			Role   string `json:"role"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		role := team2.RoleMember
		if body.Role != "" {
			parsed, err := team2.ParseRole(body.Role)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid role", perrors.NewErrInvalidRequest("Invalid role", err))
				return
			}
			role = parsed
		}

		member, err := svc.Team.AddMember(stdCtx, id, body.UserID, role, actingUserID(ctx))
		if err != nil {
			writeTeamError(ctx, "Failed to add member", err)
			return
		}

		writeOK(ctx, stdCtx, "Member added successfully", member)
	})

	// Remove member
	r.DELETE("/api/teams/{id}/members/{userId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}
		userID, err := pathParam(ctx, "userId")
		if err != nil {
			writeError(ctx, stdCtx, "User ID is required", perrors.NewErrInvalidRequest("User ID is required", err))
			return
		}

		removed, err := svc.Team.RemoveMember(stdCtx, id, userID, actingUserID(ctx))
		if err != nil {
			writeTeamError(ctx, "Failed to remove member", err)
			return
		}
		if !removed {
			writeError(ctx, stdCtx, "User is not a member", perrors.NewErrNotFound("User is not a member", errors.New("user is not a member")))
			return
		}

		writeOK(ctx, stdCtx, "Member removed successfully", nil)
	})

	// Change member role
	r.PUT("/api/teams/{id}/members/{userId}/role", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}
		userID, err := pathParam(ctx, "userId")
		if err != nil {
			writeError(ctx, stdCtx, "User ID is required", perrors.NewErrInvalidRequest("User ID is required", err))
			return
		}

		var body struct {
			Role string `json:"role"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		role, err := team2.ParseRole(body.Role)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid role", perrors.NewErrInvalidRequest("Invalid role", err))
			return
		}

		promoted, err := svc.Team.PromoteMember(stdCtx, id, userID, role, actingUserID(ctx))
		if err != nil {
			writeTeamError(ctx, "Failed to change member role", err)
			return
		}
		if !promoted {
			writeError(ctx, stdCtx, "User is not a member", perrors.NewErrNotFound("User is not a member", errors.New("user is not a member")))
			return
		}

		writeOK(ctx, stdCtx, "Member role changed successfully", nil)
	})

	// Change leader
	r.PUT("/api/teams/{id}/leader", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			UserID string `json:"user_id"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Team.ChangeLeader(stdCtx, id, body.UserID, actingUserID(ctx))
		if err != nil {
			writeTeamError(ctx, "Failed to change leader", err)
			return
		}

		writeOK(ctx, stdCtx, "Leader changed successfully", updated.ToRecord())
	})

	// Link project to team
	r.POST("/api/teams/{id}/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			ProjectID string `json:"project_id"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Team.AddProject(stdCtx, id, body.ProjectID, actingUserID(ctx))
		if err != nil {
			writeTeamError(ctx, "Failed to add project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project added successfully", updated.ToRecord())
	})

	// Unlink project from team
	r.DELETE("/api/teams/{id}/projects/{projectId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}
		projectID, err := pathParam(ctx, "projectId")
		if err != nil {
			writeError(ctx, stdCtx, "Project ID is required", perrors.NewErrInvalidRequest("Project ID is required", err))
			return
		}

		updated, err := svc.Team.RemoveProject(stdCtx, id, projectID, actingUserID(ctx))
		if err != nil {
			writeTeamError(ctx, "Failed to remove project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project removed successfully", updated.ToRecord())
	})

	// Check a member's team permission
	r.GET("/api/teams/{id}/permissions", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		userID, err := requireStringQuery(ctx, "user")
		if err != nil {
			writeError(ctx, stdCtx, "User is required", perrors.NewErrInvalidRequest("User is required", err))
			return
		}
		permission, err := requireStringQuery(ctx, "permission")
		if err != nil {
			writeError(ctx, stdCtx, "Permission is required", perrors.NewErrInvalidRequest("Permission is required", err))
			return
		}

		allowed, err := svc.Team.CheckPermission(stdCtx, id, userID, permission)
		if err != nil {
			writeTeamError(ctx, "Failed to check permission", err)
			return
		}

		writeOK(ctx, stdCtx, "Permission checked successfully", map[string]any{"allowed": allowed})
	})

	// Per-team statistics
	r.GET("/api/teams/{id}/statistics", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		stats, err := svc.Team.TeamStatistics(stdCtx, id)
		if err != nil {
			writeTeamError(ctx, "Failed to compute statistics", err)
			return
		}

		writeOK(ctx, stdCtx, "Statistics retrieved successfully", stats)
	})

	// Collection statistics
	r.GET("/api/statistics/teams", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		stats, err := svc.Team.Statistics(stdCtx)
		if err != nil {
			writeTeamError(ctx, "Failed to compute statistics", err)
			return
		}

		writeOK(ctx, stdCtx, "Statistics retrieved successfully", stats)
	})
}

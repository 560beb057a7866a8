package controllers

import (
	"errors"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/taskforge/taskforge/internal/perrors"
	"github.com/taskforge/taskforge/internal/services"
	project2 "github.com/taskforge/taskforge/internal/services/project"
	task2 "github.com/taskforge/taskforge/internal/services/task"
	user2 "github.com/taskforge/taskforge/internal/services/user"
	"github.com/taskforge/taskforge/internal/store"
)

func projectRecords(projects []*project2.Project) []store.Record {
	out := make([]store.Record, len(projects))
	for i, p := range projects {
		out[i] = p.ToRecord()
	}
	return out
}

func writeProjectError(ctx *fasthttp.RequestCtx, msg string, err error) {
	stdCtx := requestContext(ctx)
	switch {
	case errors.Is(err, project2.ErrProjectNotFound):
		writeError(ctx, stdCtx, "Project not found", perrors.New(perrors.ErrCodeNotFound, "Project not found", err))
	case errors.Is(err, task2.ErrTaskNotFound):
		writeError(ctx, stdCtx, "Task not found", perrors.New(perrors.ErrCodeNotFound, "Task not found", err))
	case errors.Is(err, user2.ErrUserNotFound):
		writeError(ctx, stdCtx, "User not found", perrors.New(perrors.ErrCodeNotFound, "User not found", err))
	case errors.Is(err, project2.ErrPermissionDenied):
		writeError(ctx, stdCtx, "Permission denied", perrors.New(perrors.ErrCodeForbidden, "Permission denied", err))
	case errors.Is(err, project2.ErrEmptyName), errors.Is(err, project2.ErrInvalidStatus):
		writeError(ctx, stdCtx, err.Error(), perrors.NewErrInvalidRequest(err.Error(), err))
	default:
		writeError(ctx, stdCtx, msg, perrors.NewErrInternalServerError(msg, err))
	}
}

func RegisterProjectRoutes(r *router.Router, svc *services.Services) {
	// Create project
	r.POST("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			OwnerID     string `json:"owner_id"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Project.Create(stdCtx, body.Name, body.Description, body.OwnerID)
		if err != nil {
			writeProjectError(ctx, "Failed to create project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project created successfully", created.ToRecord())
	})

	// List or search projects. user= narrows to projects the user owns or
	// belongs to.
	r.GET("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var status *project2.Status
		if raw := stringQuery(ctx, "status"); raw != "" {
			parsed, err := project2.ParseStatus(raw)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid status", perrors.NewErrInvalidRequest("Invalid status", err))
				return
			}
			status = &parsed
		}

		if userID := stringQuery(ctx, "user"); userID != "" {
			projects, err := svc.Project.UserProjects(stdCtx, userID, status)
			if err != nil {
				writeProjectError(ctx, "Failed to list projects", err)
				return
			}
			writeOK(ctx, stdCtx, "Projects retrieved successfully", projectRecords(projects))
			return
		}

		projects, err := svc.Project.Search(stdCtx, stringQuery(ctx, "q"), status, stringQuery(ctx, "owner"))
		if err != nil {
			writeProjectError(ctx, "Failed to list projects", err)
			return
		}

		writeOK(ctx, stdCtx, "Projects retrieved successfully", projectRecords(projects))
	})

	// Get project by id
	r.GET("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		p, err := svc.Project.GetByID(stdCtx, id)
		if err != nil {
			writeProjectError(ctx, "Failed to get project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project retrieved successfully", p.ToRecord())
	})

	// Update status
	r.PUT("/api/projects/{id}/status", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		status, err := project2.ParseStatus(body.Status)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid status", perrors.NewErrInvalidRequest("Invalid status", err))
			return
		}

		updated, err := svc.Project.UpdateStatus(stdCtx, id, status, actingUserID(ctx))
		if err != nil {
			writeProjectError(ctx, "Failed to update status", err)
			return
		}

		writeOK(ctx, stdCtx, "Status updated successfully", updated.ToRecord())
	})

	// Link task into project
	r.POST("/api/projects/{id}/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			TaskID string `json:"task_id"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Project.AddTask(stdCtx, id, body.TaskID, actingUserID(ctx))
		if err != nil {
			writeProjectError(ctx, "Failed to add task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task added successfully", updated.ToRecord())
	})

	// Unlink task from project
	r.DELETE("/api/projects/{id}/tasks/{taskId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}
		taskID, err := pathParam(ctx, "taskId")
		if err != nil {
			writeError(ctx, stdCtx, "Task ID is required", perrors.NewErrInvalidRequest("Task ID is required", err))
			return
		}

		updated, err := svc.Project.RemoveTask(stdCtx, id, taskID, actingUserID(ctx))
		if err != nil {
			writeProjectError(ctx, "Failed to remove task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task removed successfully", updated.ToRecord())
	})

	// Resolve project tasks
	r.GET("/api/projects/{id}/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var status *task2.Status
		if raw := stringQuery(ctx, "status"); raw != "" {
			parsed, err := task2.ParseStatus(raw)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid status", perrors.NewErrInvalidRequest("Invalid status", err))
				return
			}
			status = &parsed
		}

		tasks, err := svc.Project.ProjectTasks(stdCtx, id, status)
		if err != nil {
			writeProjectError(ctx, "Failed to list project tasks", err)
			return
		}

		writeOK(ctx, stdCtx, "Tasks retrieved successfully", taskRecords(tasks))
	})

	// Add milestone
	r.POST("/api/projects/{id}/milestones", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			DueDate     string `json:"due_date"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		dueDate, err := time.Parse(time.RFC3339, body.DueDate)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid due date", perrors.NewErrInvalidRequest("Invalid due date", err))
			return
		}

		milestone, err := svc.Project.AddMilestone(stdCtx, id, body.Title, body.Description, dueDate, actingUserID(ctx))
		if err != nil {
			writeProjectError(ctx, "Failed to add milestone", err)
			return
		}

		writeOK(ctx, stdCtx, "Milestone added successfully", milestone)
	})

	// Complete milestone
	r.PUT("/api/projects/{id}/milestones/{milestoneId}/complete", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}
		milestoneID, err := pathParam(ctx, "milestoneId")
		if err != nil {
			writeError(ctx, stdCtx, "Milestone ID is required", perrors.NewErrInvalidRequest("Milestone ID is required", err))
			return
		}

		completed, err := svc.Project.CompleteMilestone(stdCtx, id, milestoneID, actingUserID(ctx))
		if err != nil {
			writeProjectError(ctx, "Failed to complete milestone", err)
			return
		}
		if !completed {
			writeError(ctx, stdCtx, "Milestone not found", perrors.NewErrNotFound("Milestone not found", errors.New("milestone not found")))
			return
		}

		writeOK(ctx, stdCtx, "Milestone completed successfully", nil)
	})

	// Add member
	r.POST("/api/projects/{id}/members", func(ctx *fasthttp.RequestCtx) {
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

		updated, err := svc.Project.AddMember(stdCtx, id, body.UserID, actingUserID(ctx))
		if err != nil {
			writeProjectError(ctx, "Failed to add member", err)
			return
		}

		writeOK(ctx, stdCtx, "Member added successfully", updated.ToRecord())
	})

	// Remove member
	r.DELETE("/api/projects/{id}/members/{userId}", func(ctx *fasthttp.RequestCtx) {
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

		updated, err := svc.Project.RemoveMember(stdCtx, id, userID, actingUserID(ctx))
		if err != nil {
			writeProjectError(ctx, "Failed to remove member", err)
			return
		}

		writeOK(ctx, stdCtx, "Member removed successfully", updated.ToRecord())
	})

	// Progress report
	r.GET("/api/projects/{id}/progress", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		report, err := svc.Project.Progress(stdCtx, id)
		if err != nil {
			writeProjectError(ctx, "Failed to compute progress", err)
			return
		}

		writeOK(ctx, stdCtx, "Progress retrieved successfully", report)
	})

	// Project statistics
	r.GET("/api/statistics/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		stats, err := svc.Project.Statistics(stdCtx)
		if err != nil {
			writeProjectError(ctx, "Failed to compute statistics", err)
			return
		}

		writeOK(ctx, stdCtx, "Statistics retrieved successfully", stats)
	})
}

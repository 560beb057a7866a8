package controllers

import (
	"errors"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/taskforge/taskforge/internal/perrors"
	"github.com/taskforge/taskforge/internal/services"
	task2 "github.com/taskforge/taskforge/internal/services/task"
	user2 "github.com/taskforge/taskforge/internal/services/user"
	"github.com/taskforge/taskforge/internal/store"
)

func taskRecords(tasks []*task2.Task) []store.Record {
	out := make([]store.Record, len(tasks))
	for i, t := range tasks {
		out[i] = t.ToRecord()
	}
	return out
}

func writeTaskError(ctx *fasthttp.RequestCtx, msg string, err error) {
	stdCtx := requestContext(ctx)
	switch {
	case errors.Is(err, task2.ErrTaskNotFound):
		writeError(ctx, stdCtx, "Task not found", perrors.New(perrors.ErrCodeNotFound, "Task not found", err))
	case errors.Is(err, user2.ErrUserNotFound):
		writeError(ctx, stdCtx, "User not found", perrors.New(perrors.ErrCodeNotFound, "User not found", err))
	case errors.Is(err, task2.ErrPermissionDenied):
		writeError(ctx, stdCtx, "Permission denied", perrors.New(perrors.ErrCodeForbidden, "Permission denied", err))
	case errors.Is(err, task2.ErrCompletedTask):
		writeError(ctx, stdCtx, "Completed tasks cannot change status", perrors.New(perrors.ErrCodeConflict, "Completed tasks cannot change status", err))
	case errors.Is(err, task2.ErrEmptyTitle), errors.Is(err, task2.ErrEmptyComment),
		errors.Is(err, task2.ErrInvalidStatus), errors.Is(err, task2.ErrInvalidPriority):
		writeError(ctx, stdCtx, err.Error(), perrors.NewErrInvalidRequest(err.Error(), err))
	default:
		writeError(ctx, stdCtx, msg, perrors.NewErrInternalServerError(msg, err))
	}
}

func RegisterTaskRoutes(r *router.Router, svc *services.Services) {
	// Create task
	r.POST("/api/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			AssigneeID  string `json:"assignee_id"`
			Priority    string `json:"priority"`
			DueDate     string `json:"due_date"`
			CreatorID   string `json:"creator_id"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		req := &task2.CreateTaskRequest{
			Title:       body.Title,
			Description: body.Description,
			AssigneeID:  body.AssigneeID,
			CreatorID:   body.CreatorID,
		}
		if body.Priority != "" {
			priority, err := task2.ParsePriority(body.Priority)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid priority", perrors.NewErrInvalidRequest("Invalid priority", err))
				return
			}
			req.Priority = priority
		}
		if body.DueDate != "" {
			due, err := time.Parse(time.RFC3339, body.DueDate)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid due date", perrors.NewErrInvalidRequest("Invalid due date", err))
				return
			}
			req.DueDate = &due
		}

		created, err := svc.Task.Create(stdCtx, req)
		if err != nil {
			writeTaskError(ctx, "Failed to create task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task created successfully", created.ToRecord())
	})

	// List or search tasks. due=overdue|urgent switches to the derived-state
	// scans; assignee narrows any of the modes.
	r.GET("/api/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		assigneeID := stringQuery(ctx, "assignee")

		switch stringQuery(ctx, "due") {
		case "overdue":
			tasks, err := svc.Task.OverdueTasks(stdCtx, assigneeID)
			if err != nil {
				writeTaskError(ctx, "Failed to list tasks", err)
				return
			}
			writeOK(ctx, stdCtx, "Tasks retrieved successfully", taskRecords(tasks))
			return
		case "urgent":
			tasks, err := svc.Task.UrgentTasks(stdCtx, assigneeID)
			if err != nil {
				writeTaskError(ctx, "Failed to list tasks", err)
				return
			}
			writeOK(ctx, stdCtx, "Tasks retrieved successfully", taskRecords(tasks))
			return
		}

		filter := task2.SearchFilter{AssigneeID: assigneeID}
		if raw := stringQuery(ctx, "status"); raw != "" {
			status, err := task2.ParseStatus(raw)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid status", perrors.NewErrInvalidRequest("Invalid status", err))
				return
			}
			filter.Status = &status
		}
		if raw := stringQuery(ctx, "priority"); raw != "" {
			priority, err := task2.ParsePriority(raw)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid priority", perrors.NewErrInvalidRequest("Invalid priority", err))
				return
			}
			filter.Priority = &priority
		}

		tasks, err := svc.Task.Search(stdCtx, stringQuery(ctx, "q"), filter)
		if err != nil {
			writeTaskError(ctx, "Failed to list tasks", err)
			return
		}

		writeOK(ctx, stdCtx, "Tasks retrieved successfully", taskRecords(tasks))
	})

	// Get task by id
	r.GET("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		t, err := svc.Task.GetByID(stdCtx, id)
		if err != nil {
			writeTaskError(ctx, "Failed to get task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task retrieved successfully", t.ToRecord())
	})

	// Update status
	r.PUT("/api/tasks/{id}/status", func(ctx *fasthttp.RequestCtx) {
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

		status, err := task2.ParseStatus(body.Status)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid status", perrors.NewErrInvalidRequest("Invalid status", err))
			return
		}

		updated, err := svc.Task.UpdateStatus(stdCtx, id, status, actingUserID(ctx))
		if err != nil {
			writeTaskError(ctx, "Failed to update status", err)
			return
		}

		writeOK(ctx, stdCtx, "Status updated successfully", updated.ToRecord())
	})

	// Reassign task
	r.PUT("/api/tasks/{id}/assignee", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			AssigneeID string `json:"assignee_id"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.Assign(stdCtx, id, body.AssigneeID, actingUserID(ctx))
		if err != nil {
			writeTaskError(ctx, "Failed to assign task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task assigned successfully", updated.ToRecord())
	})

	// Add comment
	r.POST("/api/tasks/{id}/comments", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			AuthorID string `json:"author_id"`
			Content  string `json:"content"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		authorID := body.AuthorID
		if authorID == "" {
			authorID = actingUserID(ctx)
		}

		updated, err := svc.Task.AddComment(stdCtx, id, authorID, body.Content)
		if err != nil {
			writeTaskError(ctx, "Failed to add comment", err)
			return
		}

		writeOK(ctx, stdCtx, "Comment added successfully", updated.ToRecord())
	})

	// Add tag
	r.POST("/api/tasks/{id}/tags", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}

		var body struct {
			Tag string `json:"tag"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.AddTag(stdCtx, id, body.Tag, actingUserID(ctx))
		if err != nil {
			writeTaskError(ctx, "Failed to add tag", err)
			return
		}

		writeOK(ctx, stdCtx, "Tag added successfully", updated.ToRecord())
	})

	// Remove tag
	r.DELETE("/api/tasks/{id}/tags/{tag}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "ID is required", perrors.NewErrInvalidRequest("ID is required", err))
			return
		}
		tag, err := pathParam(ctx, "tag")
		if err != nil {
			writeError(ctx, stdCtx, "Tag is required", perrors.NewErrInvalidRequest("Tag is required", err))
			return
		}

		updated, err := svc.Task.RemoveTag(stdCtx, id, tag, actingUserID(ctx))
		if err != nil {
			writeTaskError(ctx, "Failed to remove tag", err)
			return
		}

		writeOK(ctx, stdCtx, "Tag removed successfully", updated.ToRecord())
	})

	// Task statistics, optionally per assignee
	r.GET("/api/statistics/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		stats, err := svc.Task.Statistics(stdCtx, stringQuery(ctx, "assignee"))
		if err != nil {
			writeTaskError(ctx, "Failed to compute statistics", err)
			return
		}

		writeOK(ctx, stdCtx, "Statistics retrieved successfully", stats)
	})
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/taskforge/internal/services/project"
	"github.com/taskforge/taskforge/internal/services/task"
	"github.com/taskforge/taskforge/internal/services/team"
	"github.com/taskforge/taskforge/internal/services/user"
)

// The full workflow over the in-memory backend: registration, team and
// project setup, task lifecycle with policy enforcement, and the derived
// reports.
func TestWorkflow(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryServices()

	admin, err := svc.User.Create(ctx, "admin", "admin@example.com", "admin123", user.RoleAdmin)
	require.NoError(t, err)
	jane, err := svc.User.Create(ctx, "jane_smith", "jane@example.com", "password123", user.RoleStandard)
	require.NoError(t, err)
	john, err := svc.User.Create(ctx, "john_doe", "john@example.com", "password123", user.RoleStandard)
	require.NoError(t, err)

	// Team with jane as auto-enrolled leader.
	devTeam, err := svc.Team.Create(ctx, "Development Team", "core team", jane.ID())
	require.NoError(t, err)
	_, err = svc.Team.AddMember(ctx, devTeam.ID(), john.ID(), team.RoleMember, jane.ID())
	require.NoError(t, err)

	// Project owned by jane, linked to the team.
	webApp, err := svc.Project.Create(ctx, "Web App", "storefront", jane.ID())
	require.NoError(t, err)
	_, err = svc.Team.AddProject(ctx, devTeam.ID(), webApp.ID(), jane.ID())
	require.NoError(t, err)
	_, err = svc.Project.AddMember(ctx, webApp.ID(), john.ID(), jane.ID())
	require.NoError(t, err)

	// Task assigned to john.
	due := time.Now().UTC().Add(48 * time.Hour)
	setup, err := svc.Task.Create(ctx, &task.CreateTaskRequest{
		Title:      "Setup environment",
		AssigneeID: john.ID(),
		Priority:   task.PriorityHigh,
		DueDate:    &due,
		CreatorID:  jane.ID(),
	})
	require.NoError(t, err)
	_, err = svc.Project.AddTask(ctx, webApp.ID(), setup.ID(), jane.ID())
	require.NoError(t, err)

	// The assignee can move the task; reassignment stays admin-only.
	_, err = svc.Task.UpdateStatus(ctx, setup.ID(), task.StatusInProgress, john.ID())
	require.NoError(t, err)
	_, err = svc.Task.Assign(ctx, setup.ID(), jane.ID(), john.ID())
	assert.ErrorIs(t, err, task.ErrPermissionDenied)
	_, err = svc.Task.Assign(ctx, setup.ID(), jane.ID(), admin.ID())
	require.NoError(t, err)

	updated, err := svc.Task.UpdateStatus(ctx, setup.ID(), task.StatusDone, jane.ID())
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, updated.Status())

	// Derived project state reflects the completed task.
	report, err := svc.Project.Progress(ctx, webApp.ID())
	require.NoError(t, err)
	assert.Equal(t, 100, report.ProgressPercentage)
	assert.Equal(t, 1, report.Tasks.Done)

	teamStats, err := svc.Team.TeamStatistics(ctx, devTeam.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, teamStats.MemberCount)
	assert.Equal(t, 1, teamStats.ProjectCount)
}

func TestCrossServiceReferenceChecks(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryServices()

	jane, err := svc.User.Create(ctx, "jane_smith", "jane@example.com", "password123", user.RoleStandard)
	require.NoError(t, err)

	_, err = svc.Task.Create(ctx, &task.CreateTaskRequest{Title: "orphan", AssigneeID: "ghost"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	p, err := svc.Project.Create(ctx, "Web App", "", jane.ID())
	require.NoError(t, err)
	_, err = svc.Project.AddTask(ctx, p.ID(), "ghost", jane.ID())
	assert.ErrorIs(t, err, task.ErrTaskNotFound)

	tm, err := svc.Team.Create(ctx, "Core", "", jane.ID())
	require.NoError(t, err)
	_, err = svc.Team.AddProject(ctx, tm.ID(), "ghost", jane.ID())
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/taskforge/internal/services/task"
	"github.com/taskforge/taskforge/internal/services/user"
	"github.com/taskforge/taskforge/internal/store"
)

type fixture struct {
	svc      *ProjectService
	tasks    *task.TaskService
	taskRepo *task.TaskRepo
	admin    *user.User
	alice    *user.User
	bob      *user.User
}

func timeIn(hours int) time.Time {
	return time.Now().UTC().Add(time.Duration(hours) * time.Hour)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	userRepo := user.NewUserRepo(store.NewMemory())
	users := user.NewUserService(userRepo)
	taskRepo := task.NewTaskRepo(store.NewMemory())

	admin, err := users.Create(ctx, "admin", "admin@example.com", "secret1", user.RoleAdmin)
	require.NoError(t, err)
	alice, err := users.Create(ctx, "alice", "alice@example.com", "secret1", user.RoleStandard)
	require.NoError(t, err)
	bob, err := users.Create(ctx, "bob", "bob@example.com", "secret1", user.RoleStandard)
	require.NoError(t, err)

	return &fixture{
		svc:      NewProjectService(NewProjectRepo(store.NewMemory()), taskRepo, userRepo),
		tasks:    task.NewTaskService(taskRepo, userRepo),
		taskRepo: taskRepo,
		admin:    admin,
		alice:    alice,
		bob:      bob,
	}
}

func (f *fixture) newTask(t *testing.T, title string) *task.Task {
	t.Helper()
	created, err := f.tasks.Create(context.Background(), &task.CreateTaskRequest{Title: title})
	require.NoError(t, err)
	return created
}

func TestCreateResolvesOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, "Website", "storefront", f.alice.ID())
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID(), p.OwnerID())

	_, err = f.svc.Create(ctx, "Orphan", "", "ghost")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	// Ownerless projects are allowed.
	_, err = f.svc.Create(ctx, "Shared", "", "")
	assert.NoError(t, err)
}

func TestModificationPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, "Website", "", f.alice.ID())
	require.NoError(t, err)

	// Unrelated standard users are rejected.
	_, err = f.svc.UpdateStatus(ctx, p.ID(), StatusActive, f.bob.ID())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// Owner, admin, and members may modify.
	_, err = f.svc.UpdateStatus(ctx, p.ID(), StatusActive, f.alice.ID())
	assert.NoError(t, err)
	_, err = f.svc.AddMember(ctx, p.ID(), f.bob.ID(), f.admin.ID())
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, p.ID(), StatusOnHold, f.bob.ID())
	assert.NoError(t, err)
}

func TestAddTaskResolvesReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, "Website", "", f.alice.ID())
	require.NoError(t, err)

	created := f.newTask(t, "build")
	updated, err := f.svc.AddTask(ctx, p.ID(), created.ID(), f.alice.ID())
	require.NoError(t, err)
	assert.True(t, updated.HasTask(created.ID()))

	_, err = f.svc.AddTask(ctx, p.ID(), "ghost", f.alice.ID())
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestProgressPercentage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, "Website", "", f.alice.ID())
	require.NoError(t, err)

	// Empty projects report zero.
	report, err := f.svc.Progress(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, report.ProgressPercentage)

	first := f.newTask(t, "one")
	second := f.newTask(t, "two")
	third := f.newTask(t, "three")
	for _, id := range []string{first.ID(), second.ID(), third.ID()} {
		_, err = f.svc.AddTask(ctx, p.ID(), id, f.alice.ID())
		require.NoError(t, err)
	}

	_, err = f.tasks.UpdateStatus(ctx, first.ID(), task.StatusDone, "")
	require.NoError(t, err)

	// Integer division: one of three done is 33, not 33.3.
	report, err = f.svc.Progress(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 33, report.ProgressPercentage)
	assert.Equal(t, 3, report.Tasks.Total)
	assert.Equal(t, 1, report.Tasks.Done)
	assert.Equal(t, 2, report.Tasks.Todo)
}

func TestDanglingTaskReferencesAreSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, "Website", "", f.alice.ID())
	require.NoError(t, err)

	kept := f.newTask(t, "kept")
	doomed := f.newTask(t, "doomed")
	for _, id := range []string{kept.ID(), doomed.ID()} {
		_, err = f.svc.AddTask(ctx, p.ID(), id, f.alice.ID())
		require.NoError(t, err)
	}

	// Delete the task behind the project's back; the stale reference stays
	// but resolution skips it.
	removed, err := f.taskRepo.Delete(ctx, doomed.ID())
	require.NoError(t, err)
	require.True(t, removed)
	assert.True(t, p.HasTask(doomed.ID()))

	tasks, err := f.svc.ProjectTasks(ctx, p.ID(), nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, kept.ID(), tasks[0].ID())

	report, err := f.svc.Progress(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tasks.Total)
}

func TestMilestoneLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, "Website", "", f.alice.ID())
	require.NoError(t, err)

	m, err := f.svc.AddMilestone(ctx, p.ID(), "Beta", "", timeIn(72), f.alice.ID())
	require.NoError(t, err)

	completed, err := f.svc.CompleteMilestone(ctx, p.ID(), m.ID, f.alice.ID())
	require.NoError(t, err)
	assert.True(t, completed)

	completed, err = f.svc.CompleteMilestone(ctx, p.ID(), "missing", f.alice.ID())
	require.NoError(t, err)
	assert.False(t, completed)

	report, err := f.svc.Progress(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Milestones.Completed)
	assert.Equal(t, 0, report.Milestones.Pending)
}

func TestUserProjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owned, err := f.svc.Create(ctx, "Owned", "", f.alice.ID())
	require.NoError(t, err)
	joined, err := f.svc.Create(ctx, "Joined", "", f.bob.ID())
	require.NoError(t, err)
	_, err = f.svc.AddMember(ctx, joined.ID(), f.alice.ID(), f.bob.ID())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "Unrelated", "", f.bob.ID())
	require.NoError(t, err)

	projects, err := f.svc.UserProjects(ctx, f.alice.ID(), nil)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	_, err = f.svc.UpdateStatus(ctx, owned.ID(), StatusActive, f.alice.ID())
	require.NoError(t, err)

	active := StatusActive
	projects, err = f.svc.UserProjects(ctx, f.alice.ID(), &active)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Create(ctx, "First", "", f.alice.ID())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "Second", "", f.alice.ID())
	require.NoError(t, err)

	created := f.newTask(t, "work")
	_, err = f.svc.AddTask(ctx, first.ID(), created.ID(), f.alice.ID())
	require.NoError(t, err)
	_, err = f.svc.AddMilestone(ctx, first.ID(), "Beta", "", timeIn(24), f.alice.ID())
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[StatusPlanning])
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.TotalMilestones)
	assert.Equal(t, 0, stats.ProjectsWithOverdueTasks)
}

func TestEmptyActorSkipsPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, "Website", "", f.alice.ID())
	require.NoError(t, err)

	// No acting user means no policy enforcement, as in the other services.
	_, err = f.svc.UpdateStatus(ctx, p.ID(), StatusActive, "")
	assert.NoError(t, err)

	m, err := f.svc.AddMilestone(ctx, p.ID(), "Beta", "", timeIn(24), "")
	require.NoError(t, err)
	completed, err := f.svc.CompleteMilestone(ctx, p.ID(), m.ID, "")
	require.NoError(t, err)
	assert.True(t, completed)
}

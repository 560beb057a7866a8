package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/taskforge/internal/services/user"
	"github.com/taskforge/taskforge/internal/store"
)

type fixture struct {
	svc   *TaskService
	users *user.UserService
	admin *user.User
	alice *user.User
	bob   *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	userRepo := user.NewUserRepo(store.NewMemory())
	users := user.NewUserService(userRepo)

	admin, err := users.Create(ctx, "admin", "admin@example.com", "secret1", user.RoleAdmin)
	require.NoError(t, err)
	alice, err := users.Create(ctx, "alice", "alice@example.com", "secret1", user.RoleStandard)
	require.NoError(t, err)
	bob, err := users.Create(ctx, "bob", "bob@example.com", "secret1", user.RoleStandard)
	require.NoError(t, err)

	return &fixture{
		svc:   NewTaskService(NewTaskRepo(store.NewMemory()), userRepo),
		users: users,
		admin: admin,
		alice: alice,
		bob:   bob,
	}
}

func TestCreateResolvesReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, &CreateTaskRequest{
		Title:      "write tests",
		AssigneeID: f.alice.ID(),
		CreatorID:  f.admin.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, created.Priority())

	_, err = f.svc.Create(ctx, &CreateTaskRequest{Title: "bad", AssigneeID: "ghost"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = f.svc.Create(ctx, &CreateTaskRequest{Title: "bad", CreatorID: "ghost"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUpdateStatusPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "work", AssigneeID: f.alice.ID()})
	require.NoError(t, err)

	// The assignee may move their own task.
	updated, err := f.svc.UpdateStatus(ctx, task.ID(), StatusInProgress, f.alice.ID())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, updated.Status())

	// An unrelated standard user may not.
	_, err = f.svc.UpdateStatus(ctx, task.ID(), StatusReview, f.bob.ID())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// Admins always may.
	_, err = f.svc.UpdateStatus(ctx, task.ID(), StatusReview, f.admin.ID())
	assert.NoError(t, err)

	// Without an acting user the policy is skipped.
	_, err = f.svc.UpdateStatus(ctx, task.ID(), StatusInProgress, "")
	assert.NoError(t, err)
}

func TestAssignIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "work", AssigneeID: f.alice.ID()})
	require.NoError(t, err)

	// Even the current assignee cannot reassign.
	_, err = f.svc.Assign(ctx, task.ID(), f.bob.ID(), f.alice.ID())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := f.svc.Assign(ctx, task.ID(), f.bob.ID(), f.admin.ID())
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID(), updated.AssigneeID())

	_, err = f.svc.Assign(ctx, task.ID(), "ghost", f.admin.ID())
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestAddCommentPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "work", AssigneeID: f.alice.ID()})
	require.NoError(t, err)

	updated, err := f.svc.AddComment(ctx, task.ID(), f.alice.ID(), "progress note")
	require.NoError(t, err)
	assert.Len(t, updated.Comments(), 1)

	_, err = f.svc.AddComment(ctx, task.ID(), f.bob.ID(), "drive-by")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.svc.AddComment(ctx, task.ID(), f.admin.ID(), "looks good")
	assert.NoError(t, err)
}

func TestUserTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "one", AssigneeID: f.alice.ID()})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "two", AssigneeID: f.alice.ID()})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &CreateTaskRequest{Title: "three", AssigneeID: f.bob.ID()})
	require.NoError(t, err)

	tasks, err := f.svc.UserTasks(ctx, f.alice.ID(), nil)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = f.svc.UpdateStatus(ctx, second.ID(), StatusDone, f.alice.ID())
	require.NoError(t, err)

	done := StatusDone
	tasks, err = f.svc.UserTasks(ctx, f.alice.ID(), &done)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	_, err = f.svc.UserTasks(ctx, "ghost", nil)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestOverdueAndUrgentScans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	past := time.Now().UTC().Add(-time.Hour)
	soon := time.Now().UTC().Add(2 * time.Hour)

	_, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "late", AssigneeID: f.alice.ID(), DueDate: &past})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &CreateTaskRequest{Title: "hot", AssigneeID: f.bob.ID(), Priority: PriorityHigh, DueDate: &soon})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &CreateTaskRequest{Title: "calm", AssigneeID: f.bob.ID()})
	require.NoError(t, err)

	overdue, err := f.svc.OverdueTasks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	urgent, err := f.svc.UrgentTasks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, urgent, 1)

	urgent, err = f.svc.UrgentTasks(ctx, f.alice.ID())
	require.NoError(t, err)
	assert.Empty(t, urgent)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "Design REST API", AssigneeID: f.alice.ID(), Priority: PriorityHigh})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &CreateTaskRequest{Title: "Write docs", Description: "API documentation", AssigneeID: f.bob.ID()})
	require.NoError(t, err)

	found, err := f.svc.Search(ctx, "api", SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	high := PriorityHigh
	found, err = f.svc.Search(ctx, "api", SearchFilter{Priority: &high})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = f.svc.Search(ctx, "api", SearchFilter{AssigneeID: f.bob.ID()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	past := time.Now().UTC().Add(-time.Hour)
	first, err := f.svc.Create(ctx, &CreateTaskRequest{Title: "one", AssigneeID: f.alice.ID(), Priority: PriorityUrgent})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &CreateTaskRequest{Title: "two", AssigneeID: f.bob.ID(), DueDate: &past})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, first.ID(), StatusDone, "")
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusDone])
	assert.Equal(t, 1, stats.ByStatus[StatusTodo])
	assert.Equal(t, 1, stats.ByPriority["urgent"])
	assert.Equal(t, 1, stats.ByPriority["medium"])
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.Urgent)

	scoped, err := f.svc.Statistics(ctx, f.bob.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, scoped.Total)
}

func TestRepoFinders(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepo(store.NewMemory())

	first, err := New("first", "", "", PriorityMedium, nil)
	require.NoError(t, err)
	first.AddTag("infra")
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	second, err := New("second", "", "", PriorityMedium, nil)
	require.NoError(t, err)
	_, err = repo.Save(ctx, second)
	require.NoError(t, err)

	found, err := repo.GetCreatedAfter(ctx, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.GetCreatedAfter(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.GetWithTag(ctx, "Infra")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID(), found[0].ID())
}

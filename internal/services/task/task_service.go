package task

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/taskforge/taskforge/internal/services/user"
)

// CreateTaskRequest captures the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeID  string     `json:"assignee_id"`
	Priority    Priority   `json:"-"`
	DueDate     *time.Time `json:"-"`
	CreatorID   string     `json:"creator_id"`
}

// SearchFilter narrows a task search. Nil fields are ignored.
type SearchFilter struct {
	Status     *Status
	Priority   *Priority
	AssigneeID string
}

// Statistics is a full scan over the task collection, computed at query time.
type Statistics struct {
	Total      int            `json:"total"`
	ByStatus   map[Status]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Overdue    int            `json:"overdue"`
	Urgent     int            `json:"urgent"`
}

// TaskService owns task business logic. The mutex serializes every
// read-modify-write on the collection so concurrent transitions cannot lose
// updates.
type TaskService struct {
	mu       sync.Mutex
	repo     *TaskRepo
	userRepo *user.UserRepo
}

func NewTaskService(repo *TaskRepo, userRepo *user.UserRepo) *TaskService {
	return &TaskService{repo: repo, userRepo: userRepo}
}

// Create builds a task after checking that the optional assignee and creator
// references resolve. The references stay weak: nothing re-checks them later.
func (s *TaskService) Create(ctx context.Context, req *CreateTaskRequest) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.AssigneeID != "" {
		if _, err := s.userRepo.GetByID(ctx, req.AssigneeID); err != nil {
			return nil, fmt.Errorf("failed to resolve assignee: %w", err)
		}
	}
	if req.CreatorID != "" {
		if _, err := s.userRepo.GetByID(ctx, req.CreatorID); err != nil {
			return nil, fmt.Errorf("failed to resolve creator: %w", err)
		}
	}

	priority := req.Priority
	if priority == 0 {
		priority = PriorityMedium
	}

	t, err := New(req.Title, req.Description, req.AssigneeID, priority, req.DueDate)
	if err != nil {
		return nil, err
	}

	return s.repo.Save(ctx, t)
}

func (s *TaskService) GetByID(ctx context.Context, id string) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TaskService) List(ctx context.Context) ([]*Task, error) {
	return s.repo.GetAll(ctx)
}

// UpdateStatus transitions a task. With an acting user it enforces the
// modification policy; the entity itself rejects leaving the done state.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, newStatus Status, actorID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorID != "" {
		actor, err := s.userRepo.GetByID(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !CanModify(actor, t) {
			return nil, ErrPermissionDenied
		}
	}

	if err := t.UpdateStatus(newStatus); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, t)
}

// Assign points a task at a new assignee. Assignment is admin-only,
// regardless of who currently holds the task.
func (s *TaskService) Assign(ctx context.Context, id, assigneeID, assignerID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, assigneeID); err != nil {
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}

	assigner, err := s.userRepo.GetByID(ctx, assignerID)
	if err != nil {
		return nil, err
	}
	if !CanAssign(assigner) {
		return nil, ErrPermissionDenied
	}

	t.Assign(assigneeID)
	return s.repo.Save(ctx, t)
}

func (s *TaskService) AddComment(ctx context.Context, id, authorID, content string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !CanComment(author, t) {
		return nil, ErrPermissionDenied
	}

	if _, err := t.AddComment(authorID, content); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, t)
}

func (s *TaskService) AddTag(ctx context.Context, id, tag, actorID string) (*Task, error) {
	return s.editTags(ctx, id, actorID, func(t *Task) { t.AddTag(tag) })
}

func (s *TaskService) RemoveTag(ctx context.Context, id, tag, actorID string) (*Task, error) {
	return s.editTags(ctx, id, actorID, func(t *Task) { t.RemoveTag(tag) })
}

func (s *TaskService) editTags(ctx context.Context, id, actorID string, edit func(*Task)) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorID != "" {
		actor, err := s.userRepo.GetByID(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !CanModify(actor, t) {
			return nil, ErrPermissionDenied
		}
	}

	edit(t)
	return s.repo.Save(ctx, t)
}

// UserTasks returns the tasks assigned to a user, optionally narrowed by
// status.
func (s *TaskService) UserTasks(ctx context.Context, userID string, status *Status) ([]*Task, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	tasks, err := s.repo.GetByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return tasks, nil
	}

	var out []*Task
	for _, t := range tasks {
		if t.Status() == *status {
			out = append(out, t)
		}
	}
	return out, nil
}

// OverdueTasks scans for overdue tasks, optionally filtered by assignee.
func (s *TaskService) OverdueTasks(ctx context.Context, userID string) ([]*Task, error) {
	tasks, err := s.repo.GetOverdue(ctx)
	if err != nil {
		return nil, err
	}
	return filterByAssignee(tasks, userID), nil
}

// UrgentTasks scans for urgent tasks, optionally filtered by assignee.
func (s *TaskService) UrgentTasks(ctx context.Context, userID string) ([]*Task, error) {
	tasks, err := s.repo.GetUrgent(ctx)
	if err != nil {
		return nil, err
	}
	return filterByAssignee(tasks, userID), nil
}

func filterByAssignee(tasks []*Task, userID string) []*Task {
	if userID == "" {
		return tasks
	}
	var out []*Task
	for _, t := range tasks {
		if t.AssigneeID() == userID {
			out = append(out, t)
		}
	}
	return out
}

// Search matches the query against title and description, then applies the
// filter.
func (s *TaskService) Search(ctx context.Context, query string, filter SearchFilter) ([]*Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var out []*Task
	for _, t := range tasks {
		if !strings.Contains(strings.ToLower(t.Title()), query) &&
			!strings.Contains(strings.ToLower(t.Description()), query) {
			continue
		}
		if filter.Status != nil && t.Status() != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority() != *filter.Priority {
			continue
		}
		if filter.AssigneeID != "" && t.AssigneeID() != filter.AssigneeID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Statistics scans the collection, optionally restricted to one assignee.
// Nothing is cached; every call reflects the latest committed state.
func (s *TaskService) Statistics(ctx context.Context, userID string) (*Statistics, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	tasks = filterByAssignee(tasks, userID)

	stats := &Statistics{
		Total: len(tasks),
		ByStatus: map[Status]int{
			StatusTodo: 0, StatusInProgress: 0, StatusReview: 0, StatusDone: 0, StatusCancelled: 0,
		},
		ByPriority: map[string]int{
			PriorityLow.String(): 0, PriorityMedium.String(): 0, PriorityHigh.String(): 0, PriorityUrgent.String(): 0,
		},
	}

	for _, t := range tasks {
		stats.ByStatus[t.Status()]++
		stats.ByPriority[t.Priority().String()]++
		if t.IsOverdue() {
			stats.Overdue++
		}
		if t.IsUrgent() {
			stats.Urgent++
		}
	}
	return stats, nil
}

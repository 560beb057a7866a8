package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/taskforge/taskforge/internal/services/task"
	"github.com/taskforge/taskforge/internal/services/user"
)

// TaskBreakdown counts a project's resolved tasks by status plus the derived
// overdue/urgent counts.
type TaskBreakdown struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Review     int `json:"review"`
	Done       int `json:"done"`
	Cancelled  int `json:"cancelled"`
	Overdue    int `json:"overdue"`
	Urgent     int `json:"urgent"`
}

// MilestoneBreakdown splits milestones into completed and pending.
type MilestoneBreakdown struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// ProgressReport is the detailed per-project progress view.
type ProgressReport struct {
	ProjectID          string             `json:"project_id"`
	Name               string             `json:"name"`
	Status             Status             `json:"status"`
	ProgressPercentage int                `json:"progress_percentage"`
	Tasks              TaskBreakdown      `json:"task_statistics"`
	Milestones         MilestoneBreakdown `json:"milestones"`
	TeamSize           int                `json:"team_size"`
}

// Statistics is a full scan over the project collection, computed at query
// time.
type Statistics struct {
	Total                    int            `json:"total"`
	ByStatus                 map[Status]int `json:"by_status"`
	TotalTasks               int            `json:"total_tasks"`
	TotalMilestones          int            `json:"total_milestones"`
	ProjectsWithOverdueTasks int            `json:"projects_with_overdue_tasks"`
}

// ProjectService owns project business logic. Tasks are referenced by id, so
// progress and statistics resolve them through the task repository at query
// time; ids that no longer resolve are skipped.
type ProjectService struct {
	mu       sync.Mutex
	repo     *ProjectRepo
	taskRepo *task.TaskRepo
	userRepo *user.UserRepo
}

func NewProjectService(repo *ProjectRepo, taskRepo *task.TaskRepo, userRepo *user.UserRepo) *ProjectService {
	return &ProjectService{repo: repo, taskRepo: taskRepo, userRepo: userRepo}
}

// Create builds a project after checking the optional owner reference.
func (s *ProjectService) Create(ctx context.Context, name, description, ownerID string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ownerID != "" {
		if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
			return nil, fmt.Errorf("failed to resolve owner: %w", err)
		}
	}

	p, err := New(name, description, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, p)
}

func (s *ProjectService) GetByID(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context) ([]*Project, error) {
	return s.repo.GetAll(ctx)
}

func (s *ProjectService) UpdateStatus(ctx context.Context, id string, newStatus Status, actorID string) (*Project, error) {
	return s.mutate(ctx, id, actorID, func(p *Project) error {
		return p.UpdateStatus(newStatus)
	})
}

// AddTask links an existing task into the project by id.
func (s *ProjectService) AddTask(ctx context.Context, id, taskID, actorID string) (*Project, error) {
	return s.mutate(ctx, id, actorID, func(p *Project) error {
		if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
			return fmt.Errorf("failed to resolve task: %w", err)
		}
		p.AddTask(taskID)
		return nil
	})
}

func (s *ProjectService) RemoveTask(ctx context.Context, id, taskID, actorID string) (*Project, error) {
	return s.mutate(ctx, id, actorID, func(p *Project) error {
		p.RemoveTask(taskID)
		return nil
	})
}

func (s *ProjectService) AddMilestone(ctx context.Context, id, title, description string, dueDate time.Time, actorID string) (Milestone, error) {
	var milestone Milestone
	_, err := s.mutate(ctx, id, actorID, func(p *Project) error {
		milestone = p.AddMilestone(title, description, dueDate)
		return nil
	})
	return milestone, err
}

// CompleteMilestone reports whether the milestone existed; the project is
// only persisted when it did.
func (s *ProjectService) CompleteMilestone(ctx context.Context, id, milestoneID, actorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.authorize(ctx, actorID, p); err != nil {
		return false, err
	}

	if !p.CompleteMilestone(milestoneID) {
		return false, nil
	}
	if _, err := s.repo.Save(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ProjectService) AddMember(ctx context.Context, id, userID, actorID string) (*Project, error) {
	return s.mutate(ctx, id, actorID, func(p *Project) error {
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			return fmt.Errorf("failed to resolve user: %w", err)
		}
		p.AddMember(userID)
		return nil
	})
}

func (s *ProjectService) RemoveMember(ctx context.Context, id, userID, actorID string) (*Project, error) {
	return s.mutate(ctx, id, actorID, func(p *Project) error {
		p.RemoveMember(userID)
		return nil
	})
}

// UserProjects returns projects the user owns or belongs to, optionally
// narrowed by status.
func (s *ProjectService) UserProjects(ctx context.Context, userID string, status *Status) ([]*Project, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	projects, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return projects, nil
	}

	var out []*Project
	for _, p := range projects {
		if p.Status() == *status {
			out = append(out, p)
		}
	}
	return out, nil
}

// ProjectTasks resolves the project's task references, optionally narrowed
// by status.
func (s *ProjectService) ProjectTasks(ctx context.Context, id string, status *task.Status) ([]*task.Task, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tasks, err := s.resolveTasks(ctx, p)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return tasks, nil
	}

	var out []*task.Task
	for _, t := range tasks {
		if t.Status() == *status {
			out = append(out, t)
		}
	}
	return out, nil
}

// ProgressPercentage is floor(100 * done / total), 0 for an empty project.
func ProgressPercentage(tasks []*task.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status() == task.StatusDone {
			done++
		}
	}
	return 100 * done / len(tasks)
}

// Progress builds the detailed progress report from a fresh task scan.
func (s *ProjectService) Progress(ctx context.Context, id string) (*ProgressReport, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tasks, err := s.resolveTasks(ctx, p)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		ProjectID:          p.ID(),
		Name:               p.Name(),
		Status:             p.Status(),
		ProgressPercentage: ProgressPercentage(tasks),
		Tasks:              breakdown(tasks),
		TeamSize:           len(p.MemberIDs()),
	}

	for _, m := range p.Milestones() {
		report.Milestones.Total++
		if m.Completed {
			report.Milestones.Completed++
		} else {
			report.Milestones.Pending++
		}
	}
	return report, nil
}

func (s *ProjectService) Search(ctx context.Context, query string, status *Status, ownerID string) ([]*Project, error) {
	projects, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var out []*Project
	for _, p := range projects {
		if !strings.Contains(strings.ToLower(p.Name()), query) &&
			!strings.Contains(strings.ToLower(p.Description()), query) {
			continue
		}
		if status != nil && p.Status() != *status {
			continue
		}
		if ownerID != "" && p.OwnerID() != ownerID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Statistics scans every project and its resolved tasks. Nothing is cached.
func (s *ProjectService) Statistics(ctx context.Context) (*Statistics, error) {
	projects, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Total: len(projects),
		ByStatus: map[Status]int{
			StatusPlanning: 0, StatusActive: 0, StatusOnHold: 0, StatusCompleted: 0, StatusCancelled: 0,
		},
	}

	for _, p := range projects {
		stats.ByStatus[p.Status()]++
		stats.TotalMilestones += len(p.Milestones())

		tasks, err := s.resolveTasks(ctx, p)
		if err != nil {
			return nil, err
		}
		stats.TotalTasks += len(tasks)
		for _, t := range tasks {
			if t.IsOverdue() {
				stats.ProjectsWithOverdueTasks++
				break
			}
		}
	}
	return stats, nil
}

// mutate is the shared resolve -> authorize -> mutate -> persist path.
func (s *ProjectService) mutate(ctx context.Context, id, actorID string, fn func(*Project) error) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, p); err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, p)
}

// An empty actor id skips policy enforcement.
func (s *ProjectService) authorize(ctx context.Context, actorID string, p *Project) error {
	if actorID == "" {
		return nil
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !CanModify(actor, p) {
		return ErrPermissionDenied
	}
	return nil
}

// resolveTasks looks up the project's task ids, skipping dangling weak
// references.
func (s *ProjectService) resolveTasks(ctx context.Context, p *Project) ([]*task.Task, error) {
	var tasks []*task.Task
	for _, taskID := range p.TaskIDs() {
		t, err := s.taskRepo.GetByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, task.ErrTaskNotFound) {
				continue
			}
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func breakdown(tasks []*task.Task) TaskBreakdown {
	b := TaskBreakdown{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status() {
		case task.StatusTodo:
			b.Todo++
		case task.StatusInProgress:
			b.InProgress++
		case task.StatusReview:
			b.Review++
		case task.StatusDone:
			b.Done++
		case task.StatusCancelled:
			b.Cancelled++
		}
		if t.IsOverdue() {
			b.Overdue++
		}
		if t.IsUrgent() {
			b.Urgent++
		}
	}
	return b
}

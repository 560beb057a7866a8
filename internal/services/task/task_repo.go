package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskforge/taskforge/internal/store"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepo keeps the task collection behind the keyed document store.
type TaskRepo struct {
	store store.Store
}

func NewTaskRepo(s store.Store) *TaskRepo {
	return &TaskRepo{store: s}
}

func (r *TaskRepo) Save(ctx context.Context, t *Task) (*Task, error) {
	if err := r.store.Save(ctx, t.ID(), t.ToRecord()); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (*Task, error) {
	rec, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return FromRecord(rec)
}

func (r *TaskRepo) GetAll(ctx context.Context) ([]*Task, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(recs))
	for _, rec := range recs {
		t, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *TaskRepo) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, id)
}

func (r *TaskRepo) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func (r *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.Delete(ctx, id)
}

func (r *TaskRepo) GetByStatus(ctx context.Context, status Status) ([]*Task, error) {
	return r.filter(ctx, func(t *Task) bool { return t.Status() == status })
}

func (r *TaskRepo) GetByPriority(ctx context.Context, priority Priority) ([]*Task, error) {
	return r.filter(ctx, func(t *Task) bool { return t.Priority() == priority })
}

func (r *TaskRepo) GetByAssignee(ctx context.Context, assigneeID string) ([]*Task, error) {
	return r.filter(ctx, func(t *Task) bool { return t.AssigneeID() == assigneeID })
}

func (r *TaskRepo) GetOverdue(ctx context.Context) ([]*Task, error) {
	return r.filter(ctx, func(t *Task) bool { return t.IsOverdue() })
}

func (r *TaskRepo) GetUrgent(ctx context.Context) ([]*Task, error) {
	return r.filter(ctx, func(t *Task) bool { return t.IsUrgent() })
}

func (r *TaskRepo) GetDueBefore(ctx context.Context, cutoff time.Time) ([]*Task, error) {
	return r.filter(ctx, func(t *Task) bool {
		return t.DueDate() != nil && !t.DueDate().After(cutoff)
	})
}

func (r *TaskRepo) GetCreatedAfter(ctx context.Context, cutoff time.Time) ([]*Task, error) {
	return r.filter(ctx, func(t *Task) bool { return !t.CreatedAt().Before(cutoff) })
}

func (r *TaskRepo) GetWithTag(ctx context.Context, tag string) ([]*Task, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return r.filter(ctx, func(t *Task) bool {
		for _, existing := range t.Tags() {
			if existing == tag {
				return true
			}
		}
		return false
	})
}

func (r *TaskRepo) filter(ctx context.Context, keep func(*Task) bool) ([]*Task, error) {
	tasks, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Task
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

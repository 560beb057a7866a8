package project

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge/taskforge/internal/store"
)

type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

var (
	ErrEmptyName     = errors.New("project name cannot be empty")
	ErrInvalidStatus = errors.New("invalid project status")
)

// Milestone is a dated checkpoint within a project.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     time.Time  `json:"due_date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Project groups tasks, milestones, and a member roster. Tasks are held as
// weak id references; the task collection stays the single owner of task
// state.
type Project struct {
	id          string
	name        string
	description string
	status      Status
	ownerID     string
	taskIDs     []string
	milestones  []Milestone
	memberIDs   []string
	createdAt   time.Time
	updatedAt   time.Time
}

func New(name, description, ownerID string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	now := time.Now().UTC()
	return &Project{
		id:          uuid.NewString(),
		name:        name,
		description: description,
		status:      StatusPlanning,
		ownerID:     ownerID,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func (p *Project) ID() string          { return p.id }
func (p *Project) Name() string        { return p.name }
func (p *Project) Description() string { return p.description }
func (p *Project) Status() Status      { return p.status }

// OwnerID is empty when the project has no owner.
func (p *Project) OwnerID() string { return p.ownerID }

func (p *Project) TaskIDs() []string       { return append([]string(nil), p.taskIDs...) }
func (p *Project) Milestones() []Milestone { return append([]Milestone(nil), p.milestones...) }
func (p *Project) MemberIDs() []string     { return append([]string(nil), p.memberIDs...) }
func (p *Project) CreatedAt() time.Time    { return p.createdAt }
func (p *Project) UpdatedAt() time.Time    { return p.updatedAt }

func (p *Project) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	p.name = name
	p.touch()
	return nil
}

func (p *Project) SetDescription(description string) {
	p.description = description
	p.touch()
}

func (p *Project) SetOwner(ownerID string) {
	p.ownerID = ownerID
	p.touch()
}

// UpdateStatus has no transition restrictions, unlike tasks.
func (p *Project) UpdateStatus(newStatus Status) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	p.status = newStatus
	p.touch()
	return nil
}

// AddTask records a weak task reference; adding an id twice is a no-op.
func (p *Project) AddTask(taskID string) {
	for _, id := range p.taskIDs {
		if id == taskID {
			return
		}
	}
	p.taskIDs = append(p.taskIDs, taskID)
	p.touch()
}

func (p *Project) RemoveTask(taskID string) bool {
	for i, id := range p.taskIDs {
		if id == taskID {
			p.taskIDs = append(p.taskIDs[:i], p.taskIDs[i+1:]...)
			p.touch()
			return true
		}
	}
	return false
}

func (p *Project) HasTask(taskID string) bool {
	for _, id := range p.taskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

func (p *Project) AddMilestone(title, description string, dueDate time.Time) Milestone {
	milestone := Milestone{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		DueDate:     dueDate,
	}
	p.milestones = append(p.milestones, milestone)
	p.touch()
	return milestone
}

// CompleteMilestone sets the flag and the completion timestamp together.
// An unknown id reports false rather than failing.
func (p *Project) CompleteMilestone(milestoneID string) bool {
	for i := range p.milestones {
		if p.milestones[i].ID == milestoneID {
			now := time.Now().UTC()
			p.milestones[i].Completed = true
			p.milestones[i].CompletedAt = &now
			p.touch()
			return true
		}
	}
	return false
}

func (p *Project) AddMember(userID string) {
	for _, id := range p.memberIDs {
		if id == userID {
			return
		}
	}
	p.memberIDs = append(p.memberIDs, userID)
	p.touch()
}

func (p *Project) RemoveMember(userID string) bool {
	for i, id := range p.memberIDs {
		if id == userID {
			p.memberIDs = append(p.memberIDs[:i], p.memberIDs[i+1:]...)
			p.touch()
			return true
		}
	}
	return false
}

func (p *Project) IsMember(userID string) bool {
	for _, id := range p.memberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (p *Project) touch() {
	p.updatedAt = time.Now().UTC()
}

func (p *Project) ToRecord() store.Record {
	milestones := make([]store.Record, len(p.milestones))
	for i, m := range p.milestones {
		rec := store.Record{
			"id":          m.ID,
			"title":       m.Title,
			"description": m.Description,
			"due_date":    store.FormatTime(m.DueDate),
			"completed":   m.Completed,
		}
		if m.CompletedAt != nil {
			rec["completed_at"] = store.FormatTime(*m.CompletedAt)
		}
		milestones[i] = rec
	}

	return store.Record{
		"id":           p.id,
		"name":         p.name,
		"description":  p.description,
		"status":       string(p.status),
		"owner_id":     p.ownerID,
		"task_ids":     p.TaskIDs(),
		"milestones":   milestones,
		"team_members": p.MemberIDs(),
		"created_at":   store.FormatTime(p.createdAt),
		"updated_at":   store.FormatTime(p.updatedAt),
	}
}

func FromRecord(rec store.Record) (*Project, error) {
	status, err := ParseStatus(rec.String("status"))
	if err != nil {
		return nil, err
	}

	createdAt, err := rec.Time("created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	updatedAt, err := rec.Time("updated_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}

	p := &Project{
		id:          rec.String("id"),
		name:        rec.String("name"),
		description: rec.String("description"),
		status:      status,
		ownerID:     rec.String("owner_id"),
		taskIDs:     rec.Strings("task_ids"),
		memberIDs:   rec.Strings("team_members"),
		createdAt:   createdAt.UTC(),
		updatedAt:   updatedAt.UTC(),
	}

	for _, m := range rec.Records("milestones") {
		dueDate, err := m.Time("due_date")
		if err != nil {
			return nil, fmt.Errorf("failed to decode milestone: %w", err)
		}
		completedAt, err := m.TimePtr("completed_at")
		if err != nil {
			return nil, fmt.Errorf("failed to decode milestone: %w", err)
		}
		p.milestones = append(p.milestones, Milestone{
			ID:          m.String("id"),
			Title:       m.String("title"),
			Description: m.String("description"),
			DueDate:     dueDate.UTC(),
			Completed:   m.Bool("completed"),
			CompletedAt: completedAt,
		})
	}

	return p, nil
}

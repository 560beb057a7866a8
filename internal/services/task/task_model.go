package task

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
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusCancelled:
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

// Priority is ordered: low < medium < high < urgent. It serializes to its
// lower-case name, never its rank.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	}
	return "unknown"
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "urgent":
		return PriorityUrgent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

var (
	ErrEmptyTitle      = errors.New("task title cannot be empty")
	ErrEmptyComment    = errors.New("comment content cannot be empty")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrCompletedTask   = errors.New("cannot change status of completed task")
)

// Comment is an immutable task annotation.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a unit of work. Done is terminal; every other transition is free.
type Task struct {
	id          string
	title       string
	description string
	status      Status
	priority    Priority
	assigneeID  string
	dueDate     *time.Time
	comments    []Comment
	tags        []string
	createdAt   time.Time
	updatedAt   time.Time
}

func New(title, description, assigneeID string, priority Priority, dueDate *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}

	now := time.Now().UTC()
	return &Task{
		id:          uuid.NewString(),
		title:       title,
		description: description,
		status:      StatusTodo,
		priority:    priority,
		assigneeID:  assigneeID,
		dueDate:     dueDate,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func (t *Task) ID() string          { return t.id }
func (t *Task) Title() string       { return t.title }
func (t *Task) Description() string { return t.description }
func (t *Task) Status() Status      { return t.status }
func (t *Task) Priority() Priority  { return t.priority }

// AssigneeID is empty when the task is unassigned.
func (t *Task) AssigneeID() string { return t.assigneeID }

func (t *Task) DueDate() *time.Time  { return t.dueDate }
func (t *Task) CreatedAt() time.Time { return t.createdAt }
func (t *Task) UpdatedAt() time.Time { return t.updatedAt }
func (t *Task) Comments() []Comment  { return append([]Comment(nil), t.comments...) }
func (t *Task) Tags() []string       { return append([]string(nil), t.tags...) }

func (t *Task) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.title = title
	t.touch()
	return nil
}

func (t *Task) SetDescription(description string) {
	t.description = description
	t.touch()
}

func (t *Task) SetPriority(priority Priority) error {
	if !priority.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	t.priority = priority
	t.touch()
	return nil
}

func (t *Task) SetDueDate(dueDate *time.Time) {
	t.dueDate = dueDate
	t.touch()
}

// Assign points the weak assignee reference at a user id. Existence is the
// service layer's concern; an empty id unassigns.
func (t *Task) Assign(assigneeID string) {
	t.assigneeID = assigneeID
	t.touch()
}

// UpdateStatus moves the task through its lifecycle. A done task can never
// leave done.
func (t *Task) UpdateStatus(newStatus Status) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	if t.status == StatusDone && newStatus != StatusDone {
		return ErrCompletedTask
	}
	t.status = newStatus
	t.touch()
	return nil
}

func (t *Task) AddComment(authorID, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyComment
	}

	comment := Comment{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	t.comments = append(t.comments, comment)
	t.touch()
	return comment, nil
}

// AddTag lower-cases and deduplicates; adding an existing or blank tag is a
// no-op.
func (t *Task) AddTag(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return
	}
	for _, existing := range t.tags {
		if existing == tag {
			return
		}
	}
	t.tags = append(t.tags, tag)
	t.touch()
}

func (t *Task) RemoveTag(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for i, existing := range t.tags {
		if existing == tag {
			t.tags = append(t.tags[:i], t.tags[i+1:]...)
			t.touch()
			return
		}
	}
}

// IsOverdue is evaluated against the clock at call time, not mutation time.
func (t *Task) IsOverdue() bool {
	if t.dueDate == nil || t.status == StatusDone {
		return false
	}
	return time.Now().UTC().After(*t.dueDate)
}

// IsUrgent is true for urgent priority outright, or for high priority due
// within a day (including already overdue).
func (t *Task) IsUrgent() bool {
	if t.priority == PriorityUrgent {
		return true
	}
	if t.dueDate != nil && t.priority >= PriorityHigh {
		return t.dueDate.Sub(time.Now().UTC()) <= 24*time.Hour
	}
	return false
}

// ProgressPercentage maps the status to a fixed completion estimate.
func (t *Task) ProgressPercentage() int {
	switch t.status {
	case StatusInProgress:
		return 50
	case StatusReview:
		return 75
	case StatusDone:
		return 100
	}
	return 0
}

func (t *Task) touch() {
	t.updatedAt = time.Now().UTC()
}

func (t *Task) ToRecord() store.Record {
	comments := make([]store.Record, len(t.comments))
	for i, c := range t.comments {
		comments[i] = store.Record{
			"id":         c.ID,
			"author_id":  c.AuthorID,
			"content":    c.Content,
			"created_at": store.FormatTime(c.CreatedAt),
		}
	}

	rec := store.Record{
		"id":          t.id,
		"title":       t.title,
		"description": t.description,
		"status":      string(t.status),
		"priority":    t.priority.String(),
		"assignee_id": t.assigneeID,
		"created_at":  store.FormatTime(t.createdAt),
		"updated_at":  store.FormatTime(t.updatedAt),
		"comments":    comments,
		"tags":        t.Tags(),
	}
	if t.dueDate != nil {
		rec["due_date"] = store.FormatTime(*t.dueDate)
	}
	return rec
}

func FromRecord(rec store.Record) (*Task, error) {
	status, err := ParseStatus(rec.String("status"))
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(rec.String("priority"))
	if err != nil {
		return nil, err
	}

	createdAt, err := rec.Time("created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	updatedAt, err := rec.Time("updated_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	dueDate, err := rec.TimePtr("due_date")
	if err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}

	t := &Task{
		id:          rec.String("id"),
		title:       rec.String("title"),
		description: rec.String("description"),
		status:      status,
		priority:    priority,
		assigneeID:  rec.String("assignee_id"),
		dueDate:     dueDate,
		tags:        rec.Strings("tags"),
		createdAt:   createdAt.UTC(),
		updatedAt:   updatedAt.UTC(),
	}

	for _, c := range rec.Records("comments") {
		createdAt, err := c.Time("created_at")
		if err != nil {
			return nil, fmt.Errorf("failed to decode comment: %w", err)
		}
		t.comments = append(t.comments, Comment{
			ID:        c.String("id"),
			AuthorID:  c.String("author_id"),
			Content:   c.String("content"),
			CreatedAt: createdAt.UTC(),
		})
	}

	return t, nil
}

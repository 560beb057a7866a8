package team

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge/taskforge/internal/store"
)

type Role string

const (
	RoleLeader      Role = "leader"
	RoleMember      Role = "member"
	RoleContributor Role = "contributor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLeader, RoleMember, RoleContributor:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

var (
	ErrEmptyName          = errors.New("team name cannot be empty")
	ErrInvalidRole        = errors.New("invalid team role")
	ErrAlreadyMember      = errors.New("user is already a member of this team")
	ErrCannotRemoveLeader = errors.New("cannot remove team leader")
)

// Member is a user's enrollment in a team. Permissions derive from the team
// role table, which is independent of the user role table.
type Member struct {
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
	Permissions []string  `json:"permissions"`
}

func (m Member) HasPermission(permission string) bool {
	for _, p := range m.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Team is a roster of users with per-member roles plus associated projects.
type Team struct {
	id          string
	name        string
	description string
	leaderID    string
	members     []Member
	projectIDs  []string
	createdAt   time.Time
	updatedAt   time.Time
}

func New(name, description, leaderID string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	now := time.Now().UTC()
	return &Team{
		id:          uuid.NewString(),
		name:        name,
		description: description,
		leaderID:    leaderID,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func (t *Team) ID() string          { return t.id }
func (t *Team) Name() string        { return t.name }
func (t *Team) Description() string { return t.description }

// LeaderID is empty when the team has no leader.
func (t *Team) LeaderID() string { return t.leaderID }

func (t *Team) Members() []Member     { return append([]Member(nil), t.members...) }
func (t *Team) ProjectIDs() []string  { return append([]string(nil), t.projectIDs...) }
func (t *Team) CreatedAt() time.Time  { return t.createdAt }
func (t *Team) UpdatedAt() time.Time  { return t.updatedAt }
func (t *Team) MemberCount() int      { return len(t.members) }

func (t *Team) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	t.name = name
	t.touch()
	return nil
}

func (t *Team) SetDescription(description string) {
	t.description = description
	t.touch()
}

// AddMember enrolls a user; a user can appear at most once in the roster.
func (t *Team) AddMember(userID string, role Role) (Member, error) {
	if !role.Valid() {
		return Member{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if t.IsMember(userID) {
		return Member{}, fmt.Errorf("%w: %s", ErrAlreadyMember, userID)
	}

	member := Member{
		UserID:      userID,
		Role:        role,
		JoinedAt:    time.Now().UTC(),
		Permissions: defaultPermissions(role),
	}
	t.members = append(t.members, member)
	t.touch()
	return member, nil
}

// RemoveMember drops a user from the roster. The current leader can never be
// removed this way; reassign leadership first.
func (t *Team) RemoveMember(userID string) (bool, error) {
	for i, m := range t.members {
		if m.UserID == userID {
			if userID == t.leaderID {
				return false, ErrCannotRemoveLeader
			}
			t.members = append(t.members[:i], t.members[i+1:]...)
			t.touch()
			return true, nil
		}
	}
	return false, nil
}

// PromoteMember changes a member's role and recomputes their permission set
// together. Reports false for a user who is not on the roster.
func (t *Team) PromoteMember(userID string, newRole Role) (bool, error) {
	if !newRole.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}
	for i := range t.members {
		if t.members[i].UserID == userID {
			t.members[i].Role = newRole
			t.members[i].Permissions = defaultPermissions(newRole)
			t.touch()
			return true, nil
		}
	}
	return false, nil
}

// SetLeader points the leader reference at a user; enrollment is the service
// layer's concern.
func (t *Team) SetLeader(userID string) {
	t.leaderID = userID
	t.touch()
}

func (t *Team) IsMember(userID string) bool {
	for _, m := range t.members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (t *Team) MemberRole(userID string) (Role, bool) {
	for _, m := range t.members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

func (t *Team) HasPermission(userID, permission string) bool {
	for _, m := range t.members {
		if m.UserID == userID {
			return m.HasPermission(permission)
		}
	}
	return false
}

func (t *Team) MembersByRole(role Role) []Member {
	var out []Member
	for _, m := range t.members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

func (t *Team) AddProject(projectID string) {
	for _, id := range t.projectIDs {
		if id == projectID {
			return
		}
	}
	t.projectIDs = append(t.projectIDs, projectID)
	t.touch()
}

func (t *Team) RemoveProject(projectID string) {
	for i, id := range t.projectIDs {
		if id == projectID {
			t.projectIDs = append(t.projectIDs[:i], t.projectIDs[i+1:]...)
			t.touch()
			return
		}
	}
}

func (t *Team) touch() {
	t.updatedAt = time.Now().UTC()
}

// defaultPermissions is the fixed team role table.
func defaultPermissions(role Role) []string {
	switch role {
	case RoleLeader:
		return []string{
			"team.manage", "project.create", "project.assign",
			"member.add", "member.remove", "member.promote",
		}
	case RoleMember:
		return []string{
			"project.view", "task.create", "task.assign",
			"comment.add", "milestone.view",
		}
	case RoleContributor:
		return []string{"project.view", "task.view", "comment.add"}
	}
	return nil
}

func (t *Team) ToRecord() store.Record {
	members := make([]store.Record, len(t.members))
	for i, m := range t.members {
		members[i] = store.Record{
			"user_id":     m.UserID,
			"role":        string(m.Role),
			"joined_at":   store.FormatTime(m.JoinedAt),
			"permissions": append([]string(nil), m.Permissions...),
		}
	}

	return store.Record{
		"id":          t.id,
		"name":        t.name,
		"description": t.description,
		"leader_id":   t.leaderID,
		"members":     members,
		"projects":    t.ProjectIDs(),
		"created_at":  store.FormatTime(t.createdAt),
		"updated_at":  store.FormatTime(t.updatedAt),
	}
}

func FromRecord(rec store.Record) (*Team, error) {
	createdAt, err := rec.Time("created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode team: %w", err)
	}
	updatedAt, err := rec.Time("updated_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode team: %w", err)
	}

	t := &Team{
		id:          rec.String("id"),
		name:        rec.String("name"),
		description: rec.String("description"),
		leaderID:    rec.String("leader_id"),
		projectIDs:  rec.Strings("projects"),
		createdAt:   createdAt.UTC(),
		updatedAt:   updatedAt.UTC(),
	}

	for _, m := range rec.Records("members") {
		role, err := ParseRole(m.String("role"))
		if err != nil {
			return nil, err
		}
		joinedAt, err := m.Time("joined_at")
		if err != nil {
			return nil, fmt.Errorf("failed to decode team member: %w", err)
		}
		t.members = append(t.members, Member{
			UserID:      m.String("user_id"),
			Role:        role,
			JoinedAt:    joinedAt.UTC(),
			Permissions: m.Strings("permissions"),
		})
	}

	return t, nil
}

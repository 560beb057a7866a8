package team

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/taskforge/taskforge/internal/services/project"
	"github.com/taskforge/taskforge/internal/services/user"
)

// TeamStatistics is the per-team roster breakdown.
type TeamStatistics struct {
	TeamID       string       `json:"team_id"`
	Name         string       `json:"name"`
	MemberCount  int          `json:"member_count"`
	ByRole       map[Role]int `json:"by_role"`
	ProjectCount int          `json:"project_count"`
}

// Statistics aggregates over the whole team collection.
type Statistics struct {
	Total           int     `json:"total"`
	TotalMembers    int     `json:"total_members"`
	TotalProjects   int     `json:"total_projects"`
	AverageTeamSize float64 `json:"average_team_size"`
	LargestTeam     int     `json:"largest_team"`
	SmallestTeam    int     `json:"smallest_team"`
}

// TeamService owns team business logic. A mutex makes each roster change a
// single resolve, authorize, mutate, persist sequence.
type TeamService struct {
	mu          sync.Mutex
	repo        *TeamRepo
	userRepo    *user.UserRepo
	projectRepo *project.ProjectRepo
}

func NewTeamService(repo *TeamRepo, userRepo *user.UserRepo, projectRepo *project.ProjectRepo) *TeamService {
	return &TeamService{repo: repo, userRepo: userRepo, projectRepo: projectRepo}
}

// Create builds a team and enrolls the leader as its first member.
func (s *TeamService) Create(ctx context.Context, name, description, leaderID string) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if leaderID != "" {
		if _, err := s.userRepo.GetByID(ctx, leaderID); err != nil {
			return nil, fmt.Errorf("failed to resolve leader: %w", err)
		}
	}

	t, err := New(name, description, leaderID)
	if err != nil {
		return nil, err
	}
	if leaderID != "" {
		if _, err := t.AddMember(leaderID, RoleLeader); err != nil {
			return nil, err
		}
	}
	return s.repo.Save(ctx, t)
}

func (s *TeamService) GetByID(ctx context.Context, id string) (*Team, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TeamService) List(ctx context.Context) ([]*Team, error) {
	return s.repo.GetAll(ctx)
}

func (s *TeamService) AddMember(ctx context.Context, id, userID string, role Role, actorID string) (Member, error) {
	var member Member
	_, err := s.mutate(ctx, id, actorID, func(t *Team) error {
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			return fmt.Errorf("failed to resolve user: %w", err)
		}
		m, err := t.AddMember(userID, role)
		if err != nil {
			return err
		}
		member = m
		return nil
	})
	return member, err
}

// RemoveMember reports whether the user was on the roster. Removing the
// current leader fails even for admins.
func (s *TeamService) RemoveMember(ctx context.Context, id, userID, actorID string) (bool, error) {
	removed := false
	_, err := s.mutate(ctx, id, actorID, func(t *Team) error {
		ok, err := t.RemoveMember(userID)
		if err != nil {
			return err
		}
		removed = ok
		return nil
	})
	return removed, err
}

func (s *TeamService) PromoteMember(ctx context.Context, id, userID string, newRole Role, actorID string) (bool, error) {
	promoted := false
	_, err := s.mutate(ctx, id, actorID, func(t *Team) error {
		ok, err := t.PromoteMember(userID, newRole)
		if err != nil {
			return err
		}
		promoted = ok
		return nil
	})
	return promoted, err
}

// ChangeLeader enrolls the new leader if needed, promotes them to the leader
// role, and repoints the leader reference, all in one critical section. The
// outgoing leader keeps their membership with the leader role.
func (s *TeamService) ChangeLeader(ctx context.Context, id, newLeaderID, actorID string) (*Team, error) {
	return s.mutate(ctx, id, actorID, func(t *Team) error {
		if _, err := s.userRepo.GetByID(ctx, newLeaderID); err != nil {
			return fmt.Errorf("failed to resolve leader: %w", err)
		}
		if t.IsMember(newLeaderID) {
			if _, err := t.PromoteMember(newLeaderID, RoleLeader); err != nil {
				return err
			}
		} else {
			if _, err := t.AddMember(newLeaderID, RoleLeader); err != nil {
				return err
			}
		}
		t.SetLeader(newLeaderID)
		return nil
	})
}

// AddProject links an existing project to the team by id.
func (s *TeamService) AddProject(ctx context.Context, id, projectID, actorID string) (*Team, error) {
	return s.mutate(ctx, id, actorID, func(t *Team) error {
		if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
			return fmt.Errorf("failed to resolve project: %w", err)
		}
		t.AddProject(projectID)
		return nil
	})
}

func (s *TeamService) RemoveProject(ctx context.Context, id, projectID, actorID string) (*Team, error) {
	return s.mutate(ctx, id, actorID, func(t *Team) error {
		t.RemoveProject(projectID)
		return nil
	})
}

func (s *TeamService) UserTeams(ctx context.Context, userID string) ([]*Team, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetByMember(ctx, userID)
}

func (s *TeamService) Members(ctx context.Context, id string) ([]Member, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Members(), nil
}

func (s *TeamService) MemberRole(ctx context.Context, id, userID string) (Role, bool, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", false, err
	}
	role, ok := t.MemberRole(userID)
	return role, ok, nil
}

// CheckPermission answers against the team role table; non-members hold no
// permissions.
func (s *TeamService) CheckPermission(ctx context.Context, id, userID, permission string) (bool, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return t.HasPermission(userID, permission), nil
}

func (s *TeamService) Search(ctx context.Context, query string) ([]*Team, error) {
	teams, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var out []*Team
	for _, t := range teams {
		if strings.Contains(strings.ToLower(t.Name()), query) ||
			strings.Contains(strings.ToLower(t.Description()), query) {
			out = append(out, t)
		}
	}
	return out, nil
}

// TeamStatistics is the role distribution of a single team's roster.
func (s *TeamService) TeamStatistics(ctx context.Context, id string) (*TeamStatistics, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &TeamStatistics{
		TeamID:       t.ID(),
		Name:         t.Name(),
		MemberCount:  t.MemberCount(),
		ByRole:       map[Role]int{RoleLeader: 0, RoleMember: 0, RoleContributor: 0},
		ProjectCount: len(t.ProjectIDs()),
	}
	for _, m := range t.Members() {
		stats.ByRole[m.Role]++
	}
	return stats, nil
}

// Statistics scans the whole collection; sizes are computed at query time.
func (s *TeamService) Statistics(ctx context.Context) (*Statistics, error) {
	teams, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{Total: len(teams)}
	for i, t := range teams {
		size := t.MemberCount()
		stats.TotalMembers += size
		stats.TotalProjects += len(t.ProjectIDs())
		if i == 0 || size > stats.LargestTeam {
			stats.LargestTeam = size
		}
		if i == 0 || size < stats.SmallestTeam {
			stats.SmallestTeam = size
		}
	}
	if stats.Total > 0 {
		stats.AverageTeamSize = float64(stats.TotalMembers) / float64(stats.Total)
	}
	return stats, nil
}

// mutate is the shared resolve -> authorize -> mutate -> persist path.
func (s *TeamService) mutate(ctx context.Context, id, actorID string, fn func(*Team) error) (*Team, error) {
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
		if !CanManage(actor, t) {
			return nil, ErrPermissionDenied
		}
	}

	if err := fn(t); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, t)
}

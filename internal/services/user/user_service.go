package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrLastAdmin          = errors.New("cannot demote the last admin user")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Statistics is a full scan over the user collection, computed at query time.
type Statistics struct {
	Total               int          `json:"total"`
	ByRole              map[Role]int `json:"by_role"`
	RecentRegistrations int          `json:"recent_registrations"`
}

// UserService owns user business logic. The mutex serializes every
// read-modify-write so duplicate checks and the last-admin count stay valid
// through the save.
type UserService struct {
	mu   sync.Mutex
	repo *UserRepo
}

func NewUserService(repo *UserRepo) *UserService {
	return &UserService{repo: repo}
}

// Create registers a new user, ensuring username and email uniqueness.
func (s *UserService) Create(ctx context.Context, username, email, password string, role Role) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate shape before the duplicate checks so malformed input fails
	// as a validation error, not a lookup miss.
	normalizedUsername, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	normalizedEmail, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(ctx, normalizedUsername); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, normalizedUsername)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to validate username: %w", err)
	}

	if _, err := s.repo.GetByEmail(ctx, normalizedEmail); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, normalizedEmail)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to validate email: %w", err)
	}

	u, err := New(username, email, password, role)
	if err != nil {
		return nil, err
	}

	return s.repo.Save(ctx, u)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context) ([]*User, error) {
	return s.repo.GetAll(ctx)
}

// Authenticate resolves a user by username and verifies the password.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, profile Profile) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.UpdateProfile(profile)
	return s.repo.Save(ctx, u)
}

func (s *UserService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := u.ChangePassword(oldPassword, newPassword); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, u)
}

// ChangeRole promotes or demotes a user. Only admins may invoke it, and the
// last remaining admin can never be demoted; the admin count is taken inside
// the critical section, immediately before the change.
func (s *UserService) ChangeRole(ctx context.Context, id string, newRole Role, actorID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !CanManageRoles(actor) {
		return nil, ErrPermissionDenied
	}

	if u.IsAdmin() && newRole != RoleAdmin {
		admins, err := s.repo.GetByRole(ctx, RoleAdmin)
		if err != nil {
			return nil, err
		}
		if len(admins) <= 1 {
			return nil, ErrLastAdmin
		}
	}

	if err := u.ChangeRole(newRole); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, u)
}

// Deactivate demotes a user to guest; there is no hard deletion. The
// last-admin rule applies exactly as for ChangeRole.
func (s *UserService) Deactivate(ctx context.Context, id, actorID string) (*User, error) {
	return s.ChangeRole(ctx, id, RoleGuest, actorID)
}

func (s *UserService) GetByRole(ctx context.Context, role Role) ([]*User, error) {
	return s.repo.GetByRole(ctx, role)
}

// Search matches the query against username, email, and profile names, with
// an optional role filter.
func (s *UserService) Search(ctx context.Context, query string, role *Role) ([]*User, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var out []*User
	for _, u := range users {
		matches := strings.Contains(u.Username(), query) ||
			strings.Contains(u.Email(), query) ||
			strings.Contains(strings.ToLower(u.Profile().FirstName), query) ||
			strings.Contains(strings.ToLower(u.Profile().LastName), query)
		if !matches {
			continue
		}
		if role != nil && u.Role() != *role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// ActivitySummary is a flattened view of one account for reporting.
type ActivitySummary struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	IsAdmin     bool      `json:"is_admin"`
	Profile     Profile   `json:"profile"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"last_updated"`
}

func (s *UserService) ActivitySummary(ctx context.Context, id string) (*ActivitySummary, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ActivitySummary{
		UserID:      u.ID(),
		Username:    u.Username(),
		Email:       u.Email(),
		Role:        u.Role(),
		IsAdmin:     u.IsAdmin(),
		Profile:     u.Profile(),
		Permissions: u.Permissions(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
	}, nil
}

func (s *UserService) Statistics(ctx context.Context) (*Statistics, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Total:  len(users),
		ByRole: map[Role]int{RoleAdmin: 0, RoleStandard: 0, RoleGuest: 0},
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	for _, u := range users {
		stats.ByRole[u.Role()]++
		if u.CreatedAt().After(cutoff) {
			stats.RecentRegistrations++
		}
	}
	return stats, nil
}

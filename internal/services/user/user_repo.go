package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskforge/taskforge/internal/store"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepo keeps the user collection behind the keyed document store.
type UserRepo struct {
	store store.Store
}

func NewUserRepo(s store.Store) *UserRepo {
	return &UserRepo{store: s}
}

func (r *UserRepo) Save(ctx context.Context, u *User) (*User, error) {
	if err := r.store.Save(ctx, u.ID(), u.ToRecord()); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	rec, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return FromRecord(rec)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username() == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: username %s", ErrUserNotFound, username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: email %s", ErrUserNotFound, email)
}

func (r *UserRepo) GetAll(ctx context.Context) ([]*User, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(recs))
	for _, rec := range recs {
		u, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepo) GetByRole(ctx context.Context, role Role) ([]*User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []*User
	for _, u := range users {
		if u.Role() == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, id)
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.Delete(ctx, id)
}

package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskforge/taskforge/internal/store"
)

var ErrProjectNotFound = errors.New("project not found")

// ProjectRepo keeps the project collection behind the keyed document store.
type ProjectRepo struct {
	store store.Store
}

func NewProjectRepo(s store.Store) *ProjectRepo {
	return &ProjectRepo{store: s}
}

func (r *ProjectRepo) Save(ctx context.Context, p *Project) (*Project, error) {
	if err := r.store.Save(ctx, p.ID(), p.ToRecord()); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*Project, error) {
	rec, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return FromRecord(rec)
}

func (r *ProjectRepo) GetAll(ctx context.Context) ([]*Project, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]*Project, 0, len(recs))
	for _, rec := range recs {
		p, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (r *ProjectRepo) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, id)
}

func (r *ProjectRepo) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.Delete(ctx, id)
}

func (r *ProjectRepo) GetByStatus(ctx context.Context, status Status) ([]*Project, error) {
	return r.filter(ctx, func(p *Project) bool { return p.Status() == status })
}

func (r *ProjectRepo) GetByOwner(ctx context.Context, ownerID string) ([]*Project, error) {
	return r.filter(ctx, func(p *Project) bool { return p.OwnerID() == ownerID })
}

// GetByUser returns projects the user owns or belongs to.
func (r *ProjectRepo) GetByUser(ctx context.Context, userID string) ([]*Project, error) {
	return r.filter(ctx, func(p *Project) bool {
		return p.OwnerID() == userID || p.IsMember(userID)
	})
}

func (r *ProjectRepo) filter(ctx context.Context, keep func(*Project) bool) ([]*Project, error) {
	projects, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Project
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

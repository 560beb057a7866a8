package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskforge/taskforge/internal/store"
)

var ErrTeamNotFound = errors.New("team not found")

// TeamRepo keeps the team collection behind the keyed document store.
type TeamRepo struct {
	store store.Store
}

func NewTeamRepo(s store.Store) *TeamRepo {
	return &TeamRepo{store: s}
}

func (r *TeamRepo) Save(ctx context.Context, t *Team) (*Team, error) {
	if err := r.store.Save(ctx, t.ID(), t.ToRecord()); err != nil {
		return nil, fmt.Errorf("failed to save team: %w", err)
	}
	return t, nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (*Team, error) {
	rec, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return FromRecord(rec)
}

func (r *TeamRepo) GetAll(ctx context.Context) ([]*Team, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	teams := make([]*Team, 0, len(recs))
	for _, rec := range recs {
		t, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func (r *TeamRepo) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, id)
}

func (r *TeamRepo) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func (r *TeamRepo) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.Delete(ctx, id)
}

func (r *TeamRepo) GetByLeader(ctx context.Context, leaderID string) ([]*Team, error) {
	return r.filter(ctx, func(t *Team) bool { return t.LeaderID() == leaderID })
}

func (r *TeamRepo) GetByMember(ctx context.Context, userID string) ([]*Team, error) {
	return r.filter(ctx, func(t *Team) bool { return t.IsMember(userID) })
}

func (r *TeamRepo) filter(ctx context.Context, keep func(*Team) bool) ([]*Team, error) {
	teams, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Team
	for _, t := range teams {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

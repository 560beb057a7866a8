package store

import "context"

// Collection names used by both backends.
const (
	CollectionUsers    = "users"
	CollectionTasks    = "tasks"
	CollectionProjects = "projects"
	CollectionTeams    = "teams"
)

// Store is a keyed document store. Each entity repository owns one
// collection and translates between its entity type and Record.
type Store interface {
	Save(ctx context.Context, id string, rec Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

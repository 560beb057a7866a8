package services

import (
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/db"
	"github.com/taskforge/taskforge/internal/services/project"
	"github.com/taskforge/taskforge/internal/services/task"
	"github.com/taskforge/taskforge/internal/services/team"
	"github.com/taskforge/taskforge/internal/services/user"
	"github.com/taskforge/taskforge/internal/store"
)

type Services struct {
	User    *user.UserService
	Task    *task.TaskService
	Project *project.ProjectService
	Team    *team.TeamService
}

func NewServices(conf *config.Config) *Services {
	var backend func(collection string) store.Store

	switch conf.STORE_BACKEND {
	case "postgres":
		dbconn := db.NewConn(conf)
		backend = func(collection string) store.Store {
			return store.NewPostgres(dbconn, collection)
		}
		slog.Info("Using postgres store backend")
	default:
		backend = func(string) store.Store { return store.NewMemory() }
		slog.Info("Using in-memory store backend")
	}

	return newServices(backend)
}

// NewMemoryServices wires every service onto fresh in-memory collections.
func NewMemoryServices() *Services {
	return newServices(func(string) store.Store { return store.NewMemory() })
}

// NewPostgresServices wires every service onto jsonb document tables over an
// existing connection.
func NewPostgresServices(dbconn *sqlx.DB) *Services {
	return newServices(func(collection string) store.Store {
		return store.NewPostgres(dbconn, collection)
	})
}

func newServices(backend func(collection string) store.Store) *Services {
	userRepo := user.NewUserRepo(backend(store.CollectionUsers))
	taskRepo := task.NewTaskRepo(backend(store.CollectionTasks))
	projectRepo := project.NewProjectRepo(backend(store.CollectionProjects))
	teamRepo := team.NewTeamRepo(backend(store.CollectionTeams))

	return &Services{
		User:    user.NewUserService(userRepo),
		Task:    task.NewTaskService(taskRepo, userRepo),
		Project: project.NewProjectService(projectRepo, taskRepo, userRepo),
		Team:    team.NewTeamService(teamRepo, userRepo, projectRepo),
	}
}

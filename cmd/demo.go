package cmd

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskforge/taskforge/internal/services"
	"github.com/taskforge/taskforge/internal/services/task"
	"github.com/taskforge/taskforge/internal/services/team"
	"github.com/taskforge/taskforge/internal/services/user"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted walkthrough against the in-memory backend",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDemo(context.Background()); err != nil {
			log.Fatalln(err.Error())
		}
	},
}

// Register the "demo" command
func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(ctx context.Context) error {
	svc := services.NewMemoryServices()

	slog.Info("Creating users...")

	admin, err := svc.User.Create(ctx, "admin", "admin@company.com", "admin123", user.RoleAdmin)
	if err != nil {
		return err
	}
	john, err := svc.User.Create(ctx, "john_doe", "john@company.com", "password123", user.RoleStandard)
	if err != nil {
		return err
	}
	jane, err := svc.User.Create(ctx, "jane_smith", "jane@company.com", "password123", user.RoleStandard)
	if err != nil {
		return err
	}

	if _, err := svc.User.UpdateProfile(ctx, john.ID(), user.Profile{FirstName: "John", LastName: "Doe", Bio: "Senior Developer"}); err != nil {
		return err
	}
	if _, err := svc.User.UpdateProfile(ctx, jane.ID(), user.Profile{FirstName: "Jane", LastName: "Smith", Bio: "Project Manager"}); err != nil {
		return err
	}
	slog.Info("Users created", slog.Int("count", 3), slog.String("admin", admin.Username()))

	slog.Info("Creating team...")

	devTeam, err := svc.Team.Create(ctx, "Development Team", "Core development team for web applications", jane.ID())
	if err != nil {
		return err
	}
	if _, err := svc.Team.AddMember(ctx, devTeam.ID(), john.ID(), team.RoleMember, jane.ID()); err != nil {
		return err
	}
	if _, err := svc.Team.AddMember(ctx, devTeam.ID(), admin.ID(), team.RoleLeader, jane.ID()); err != nil {
		return err
	}

	slog.Info("Creating project...")

	webApp, err := svc.Project.Create(ctx, "E-commerce Web App", "Modern e-commerce platform", jane.ID())
	if err != nil {
		return err
	}
	if _, err := svc.Team.AddProject(ctx, devTeam.ID(), webApp.ID(), jane.ID()); err != nil {
		return err
	}
	if _, err := svc.Project.AddMember(ctx, webApp.ID(), john.ID(), jane.ID()); err != nil {
		return err
	}
	if _, err := svc.Project.AddMember(ctx, webApp.ID(), admin.ID(), jane.ID()); err != nil {
		return err
	}

	slog.Info("Creating tasks...")

	inTwoDays := time.Now().UTC().Add(48 * time.Hour)
	inOneWeek := time.Now().UTC().Add(7 * 24 * time.Hour)
	inTwoWeeks := time.Now().UTC().Add(14 * 24 * time.Hour)

	setupTask, err := svc.Task.Create(ctx, &task.CreateTaskRequest{
		Title:       "Setup development environment",
		Description: "Configure Docker, database, and CI/CD pipeline",
		AssigneeID:  john.ID(),
		Priority:    task.PriorityHigh,
		DueDate:     &inTwoDays,
		CreatorID:   jane.ID(),
	})
	if err != nil {
		return err
	}
	apiTask, err := svc.Task.Create(ctx, &task.CreateTaskRequest{
		Title:       "Design REST API",
		Description: "Create API endpoints for user management and product catalog",
		AssigneeID:  john.ID(),
		Priority:    task.PriorityMedium,
		DueDate:     &inOneWeek,
		CreatorID:   jane.ID(),
	})
	if err != nil {
		return err
	}
	docsTask, err := svc.Task.Create(ctx, &task.CreateTaskRequest{
		Title:       "Write documentation",
		Description: "Create user guide and API documentation",
		AssigneeID:  jane.ID(),
		Priority:    task.PriorityLow,
		DueDate:     &inTwoWeeks,
		CreatorID:   admin.ID(),
	})
	if err != nil {
		return err
	}

	for _, t := range []string{setupTask.ID(), apiTask.ID(), docsTask.ID()} {
		if _, err := svc.Project.AddTask(ctx, webApp.ID(), t, jane.ID()); err != nil {
			return err
		}
	}

	slog.Info("Working through a task...")

	if _, err := svc.Task.UpdateStatus(ctx, setupTask.ID(), task.StatusInProgress, john.ID()); err != nil {
		return err
	}
	if _, err := svc.Task.AddComment(ctx, setupTask.ID(), john.ID(), "Started setting up Docker containers. Database connection established."); err != nil {
		return err
	}
	if _, err := svc.Task.AddComment(ctx, setupTask.ID(), admin.ID(), "Great progress! Make sure to document the setup process."); err != nil {
		return err
	}
	if _, err := svc.Task.UpdateStatus(ctx, setupTask.ID(), task.StatusDone, john.ID()); err != nil {
		return err
	}

	slog.Info("Tracking milestones...")

	envMilestone, err := svc.Project.AddMilestone(ctx, webApp.ID(), "Development Environment Setup", "Complete development environment configuration", time.Now().UTC().Add(72*time.Hour), jane.ID())
	if err != nil {
		return err
	}
	if _, err := svc.Project.AddMilestone(ctx, webApp.ID(), "API Development", "Complete REST API implementation", time.Now().UTC().Add(10*24*time.Hour), jane.ID()); err != nil {
		return err
	}
	if _, err := svc.Project.CompleteMilestone(ctx, webApp.ID(), envMilestone.ID, jane.ID()); err != nil {
		return err
	}

	slog.Info("Computing statistics...")

	userStats, err := svc.User.Statistics(ctx)
	if err != nil {
		return err
	}
	taskStats, err := svc.Task.Statistics(ctx, "")
	if err != nil {
		return err
	}
	progress, err := svc.Project.Progress(ctx, webApp.ID())
	if err != nil {
		return err
	}
	teamStats, err := svc.Team.TeamStatistics(ctx, devTeam.ID())
	if err != nil {
		return err
	}

	slog.Info("Users", slog.Int("total", userStats.Total))
	slog.Info("Tasks", slog.Int("total", taskStats.Total), slog.Int("done", taskStats.ByStatus[task.StatusDone]), slog.Int("urgent", taskStats.Urgent))
	slog.Info("Project", slog.String("name", progress.Name), slog.Int("progress_pct", progress.ProgressPercentage))
	slog.Info("Team", slog.Int("members", teamStats.MemberCount), slog.Int("projects", teamStats.ProjectCount))

	johnTasks, err := svc.Task.UserTasks(ctx, john.ID(), nil)
	if err != nil {
		return err
	}
	results, err := svc.Task.Search(ctx, "API", task.SearchFilter{})
	if err != nil {
		return err
	}
	slog.Info("Queries", slog.Int("john_tasks", len(johnTasks)), slog.Int("api_matches", len(results)))

	return nil
}

// Package tracker holds the engines that turn decoded events into store
// mutations and derive statistics from the stored entities. The engines
// are stateless: every call re-reads and re-writes through the stores,
// so each one is safely reentrant per event.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/Valerolactone/analytics-todo/internal/domain"
	"github.com/Valerolactone/analytics-todo/internal/postgres"
)

// Lifecycle applies status, executor and activity changes to tasks,
// enforcing the completion/reopen timestamp policy.
type Lifecycle struct {
	tasks    postgres.TaskStore
	projects postgres.ProjectStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewLifecycle constructs a Lifecycle engine over the given stores.
func NewLifecycle(tasks postgres.TaskStore, projects postgres.ProjectStore, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{tasks: tasks, projects: projects, logger: logger, now: time.Now}
}

// Create inserts a new task under the named project. The project must
// already exist; a task referencing an unknown project title is an error.
// Returns the generated task id so the caller can link it into the
// project's task set.
func (l *Lifecycle) Create(ctx context.Context, projectTitle, title string, status domain.Status, executorID int64) (string, error) {
	if !status.Valid() {
		return "", &domain.InvalidStatusError{Status: string(status)}
	}

	project, err := l.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return "", err
	}

	task := &domain.Task{
		ProjectID:  project.ID,
		Title:      title,
		Status:     status,
		IsActive:   true,
		ExecutorID: executorID,
		CreatedAt:  l.now().UTC(),
	}
	if err := l.tasks.Create(ctx, task); err != nil {
		return "", err
	}

	l.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("title", title),
		slog.String("project", projectTitle),
	)
	return task.ID, nil
}

// ApplyStatusChange transitions the task named by title to status. The
// timestamp side effects are computed from the currently stored record
// and persisted together with the status in one atomic update.
func (l *Lifecycle) ApplyStatusChange(ctx context.Context, title string, status domain.Status) error {
	if !status.Valid() {
		return &domain.InvalidStatusError{Status: string(status)}
	}

	task, err := l.tasks.GetByTitle(ctx, title)
	if err != nil {
		return err
	}

	change := task.ApplyStatus(status, l.now().UTC())
	return l.tasks.UpdateStatus(ctx, title, change)
}

// AssignExecutor reassigns the task's executor. Status and timestamps
// are untouched.
func (l *Lifecycle) AssignExecutor(ctx context.Context, title string, executorID int64, executorName string) error {
	return l.tasks.SetExecutor(ctx, title, executorID, executorName)
}

// SetActive flips the task's activity flag, independent of status.
func (l *Lifecycle) SetActive(ctx context.Context, title string, isActive bool) error {
	return l.tasks.SetActive(ctx, title, isActive)
}

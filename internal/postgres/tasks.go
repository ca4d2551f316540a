package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Valerolactone/analytics-todo/internal/domain"
)

// TaskStore abstracts all database access for tasks, including the
// aggregations the statistics layer is built on.
type TaskStore interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByTitle(ctx context.Context, title string) (*domain.Task, error)
	SetActive(ctx context.Context, title string, isActive bool) error
	SetExecutor(ctx context.Context, title string, executorID int64, executorName string) error
	UpdateStatus(ctx context.Context, title string, change domain.StatusChange) error
	Count(ctx context.Context) (int64, error)
	CountForProject(ctx context.Context, projectID string) (int64, error)
	StatusCounts(ctx context.Context, projectID string) (map[domain.Status]int64, error)
	AvgCompletionHours(ctx context.Context, projectID string) (float64, error)
	CompletedByExecutor(ctx context.Context, executorID int64, from, to time.Time) ([]domain.ProjectTasksCount, error)
	ExecutorExists(ctx context.Context, executorID int64) (bool, error)
}

type taskStore struct {
	pool *pgxpool.Pool
}

// NewTaskStore wraps a pgxpool with the TaskStore interface.
func NewTaskStore(pool *pgxpool.Pool) TaskStore {
	return &taskStore{pool: pool}
}

func (s *taskStore) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks
			(id, project_id, title, status, is_active, executor_id, executor_name, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		task.ID, task.ProjectID, task.Title, string(task.Status),
		task.IsActive, task.ExecutorID, task.ExecutorName, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task %q: %w", task.Title, err)
	}
	return nil
}

func (s *taskStore) GetByTitle(ctx context.Context, title string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, project_id, title, status, is_active, executor_id, executor_name,
		       created_at, completed_at, reopened_at, recompleted_at
		FROM tasks
		WHERE title = $1
	`, title)

	var t domain.Task
	var statusStr string
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &statusStr, &t.IsActive,
		&t.ExecutorID, &t.ExecutorName,
		&t.CreatedAt, &t.CompletedAt, &t.ReopenedAt, &t.RecompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.TaskNotFoundError{Title: title}
		}
		return nil, fmt.Errorf("scan task %q: %w", title, err)
	}
	t.Status = domain.Status(statusStr)
	return &t, nil
}

func (s *taskStore) SetActive(ctx context.Context, title string, isActive bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks SET is_active = $2 WHERE title = $1
	`, title, isActive)
	if err != nil {
		return fmt.Errorf("set active for task %q: %w", title, err)
	}
	return nil
}

func (s *taskStore) SetExecutor(ctx context.Context, title string, executorID int64, executorName string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks SET executor_id = $2, executor_name = $3 WHERE title = $1
	`, title, executorID, executorName)
	if err != nil {
		return fmt.Errorf("set executor for task %q: %w", title, err)
	}
	return nil
}

// UpdateStatus persists a computed status transition in a single atomic
// statement. Nil timestamps in the change leave the stored columns
// untouched.
func (s *taskStore) UpdateStatus(ctx context.Context, title string, change domain.StatusChange) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET status         = $2,
		    completed_at   = coalesce($3, completed_at),
		    reopened_at    = coalesce($4, reopened_at),
		    recompleted_at = coalesce($5, recompleted_at)
		WHERE title = $1
	`, title, string(change.Status), change.CompletedAt, change.ReopenedAt, change.RecompletedAt)
	if err != nil {
		return fmt.Errorf("update status for task %q: %w", title, err)
	}
	return nil
}

func (s *taskStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM tasks`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *taskStore) CountForProject(ctx context.Context, projectID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM tasks WHERE project_id = $1
	`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks for project %s: %w", projectID, err)
	}
	return n, nil
}

func (s *taskStore) StatusCounts(ctx context.Context, projectID string) (map[domain.Status]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, count(*)
		FROM tasks
		WHERE project_id = $1
		GROUP BY status
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("status counts for project %s: %w", projectID, err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.Status(status)] = n
	}
	return counts, rows.Err()
}

// AvgCompletionHours averages total productive time over every completed
// task of the project. Tasks that went through a full reopen cycle
// contribute both cycles; the idle reopened gap is excluded. Returns 0
// when no task has completed.
func (s *taskStore) AvgCompletionHours(ctx context.Context, projectID string) (float64, error) {
	var hours float64
	err := s.pool.QueryRow(ctx, `
		SELECT coalesce(avg(
			extract(epoch FROM (completed_at - created_at)) +
			CASE WHEN reopened_at IS NOT NULL AND recompleted_at IS NOT NULL
			     THEN extract(epoch FROM (recompleted_at - reopened_at))
			     ELSE 0
			END
		) / 3600.0, 0)
		FROM tasks
		WHERE project_id = $1 AND completed_at IS NOT NULL
	`, projectID).Scan(&hours)
	if err != nil {
		return 0, fmt.Errorf("average completion time for project %s: %w", projectID, err)
	}
	return hours, nil
}

// CompletedByExecutor groups the executor's tasks completed inside
// [from, to) by project and joins in each project's title.
func (s *taskStore) CompletedByExecutor(ctx context.Context, executorID int64, from, to time.Time) ([]domain.ProjectTasksCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.title, count(*)
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.executor_id = $1
		  AND t.completed_at >= $2
		  AND t.completed_at < $3
		GROUP BY p.title
		ORDER BY p.title
	`, executorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("completed tasks for executor %d: %w", executorID, err)
	}
	defer rows.Close()

	var stats []domain.ProjectTasksCount
	for rows.Next() {
		var pc domain.ProjectTasksCount
		if err := rows.Scan(&pc.ProjectTitle, &pc.TasksCount); err != nil {
			return nil, fmt.Errorf("scan executor stats: %w", err)
		}
		stats = append(stats, pc)
	}
	return stats, rows.Err()
}

func (s *taskStore) ExecutorExists(ctx context.Context, executorID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tasks WHERE executor_id = $1)
	`, executorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("executor %d lookup: %w", executorID, err)
	}
	return exists, nil
}

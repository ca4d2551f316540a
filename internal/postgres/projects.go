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

// ProjectStore abstracts all database access for projects.
//
// The set-union mutations are single-statement atomic updates: adding an
// already-present task id or participant id is a no-op, which makes the
// event path safe under replay. Updates against a missing title affect
// zero rows and report no error.
type ProjectStore interface {
	Create(ctx context.Context, title string, participantID int64) (string, error)
	GetByTitle(ctx context.Context, title string) (*domain.Project, error)
	SetActive(ctx context.Context, title string, isActive bool) error
	AddTaskAndParticipants(ctx context.Context, title, taskID string, participantIDs []int64) error
	AddParticipants(ctx context.Context, title string, participantIDs []int64) error
	Count(ctx context.Context) (int64, error)
	CountDistinctParticipants(ctx context.Context) (int64, error)
}

type projectStore struct {
	pool *pgxpool.Pool
}

// NewProjectStore wraps a pgxpool with the ProjectStore interface.
func NewProjectStore(pool *pgxpool.Pool) ProjectStore {
	return &projectStore{pool: pool}
}

func (s *projectStore) Create(ctx context.Context, title string, participantID int64) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects
			(id, title, is_active, tasks, participants_ids, created_at)
		VALUES
			($1, $2, true, '{}', $3, $4)
	`, id, title, []int64{participantID}, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("create project %q: %w", title, err)
	}
	return id, nil
}

func (s *projectStore) GetByTitle(ctx context.Context, title string) (*domain.Project, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, is_active, tasks, participants_ids, created_at
		FROM projects
		WHERE title = $1
	`, title)

	var p domain.Project
	err := row.Scan(&p.ID, &p.Title, &p.IsActive, &p.Tasks, &p.ParticipantsIDs, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ProjectNotFoundError{Title: title}
		}
		return nil, fmt.Errorf("scan project %q: %w", title, err)
	}
	return &p, nil
}

func (s *projectStore) SetActive(ctx context.Context, title string, isActive bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE projects SET is_active = $2 WHERE title = $1
	`, title, isActive)
	if err != nil {
		return fmt.Errorf("set active for project %q: %w", title, err)
	}
	return nil
}

func (s *projectStore) AddTaskAndParticipants(ctx context.Context, title, taskID string, participantIDs []int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE projects
		SET tasks = (
			SELECT coalesce(array_agg(DISTINCT e), '{}')
			FROM unnest(tasks || $2::text) AS e
		),
		participants_ids = (
			SELECT coalesce(array_agg(DISTINCT e), '{}')
			FROM unnest(participants_ids || $3::bigint[]) AS e
		)
		WHERE title = $1
	`, title, taskID, participantIDs)
	if err != nil {
		return fmt.Errorf("add task and participants to project %q: %w", title, err)
	}
	return nil
}

func (s *projectStore) AddParticipants(ctx context.Context, title string, participantIDs []int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE projects
		SET participants_ids = (
			SELECT coalesce(array_agg(DISTINCT e), '{}')
			FROM unnest(participants_ids || $2::bigint[]) AS e
		)
		WHERE title = $1
	`, title, participantIDs)
	if err != nil {
		return fmt.Errorf("add participants to project %q: %w", title, err)
	}
	return nil
}

func (s *projectStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM projects`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

// CountDistinctParticipants counts unique participant ids across all
// projects. A participant shared by several projects counts once.
func (s *projectStore) CountDistinctParticipants(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(DISTINCT e)
		FROM projects, unnest(participants_ids) AS e
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count distinct participants: %w", err)
	}
	return n, nil
}

package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Valerolactone/analytics-todo/internal/domain"
)

// In-memory stores mirroring the Postgres set-union and aggregation
// semantics closely enough for engine-level tests.

type fakeProjectStore struct {
	projects map[string]*domain.Project // keyed by title
	nextID   int
	err      error
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[string]*domain.Project)}
}

func (s *fakeProjectStore) Create(_ context.Context, title string, participantID int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.nextID++
	id := fmt.Sprintf("project-%d", s.nextID)
	s.projects[title] = &domain.Project{
		ID:              id,
		Title:           title,
		IsActive:        true,
		Tasks:           []string{},
		ParticipantsIDs: []int64{participantID},
		CreatedAt:       time.Now().UTC(),
	}
	return id, nil
}

func (s *fakeProjectStore) GetByTitle(_ context.Context, title string) (*domain.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.projects[title]
	if !ok {
		return nil, &domain.ProjectNotFoundError{Title: title}
	}
	return p, nil
}

func (s *fakeProjectStore) SetActive(_ context.Context, title string, isActive bool) error {
	if p, ok := s.projects[title]; ok {
		p.IsActive = isActive
	}
	return s.err
}

func (s *fakeProjectStore) AddTaskAndParticipants(_ context.Context, title, taskID string, participantIDs []int64) error {
	p, ok := s.projects[title]
	if !ok {
		return s.err // silent no-op on missing title, like the real store
	}
	p.Tasks = unionStr(p.Tasks, taskID)
	p.ParticipantsIDs = unionInt(p.ParticipantsIDs, participantIDs)
	return s.err
}

func (s *fakeProjectStore) AddParticipants(_ context.Context, title string, participantIDs []int64) error {
	if p, ok := s.projects[title]; ok {
		p.ParticipantsIDs = unionInt(p.ParticipantsIDs, participantIDs)
	}
	return s.err
}

func (s *fakeProjectStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.projects)), s.err
}

func (s *fakeProjectStore) CountDistinctParticipants(_ context.Context) (int64, error) {
	seen := map[int64]struct{}{}
	for _, p := range s.projects {
		for _, id := range p.ParticipantsIDs {
			seen[id] = struct{}{}
		}
	}
	return int64(len(seen)), s.err
}

type fakeTaskStore struct {
	tasks    map[string]*domain.Task // keyed by title
	projects *fakeProjectStore       // for the weekly title join
	nextID   int
	err      error
}

func newFakeTaskStore(projects *fakeProjectStore) *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[string]*domain.Task), projects: projects}
}

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	if s.err != nil {
		return s.err
	}
	if task.ID == "" {
		s.nextID++
		task.ID = fmt.Sprintf("task-%d", s.nextID)
	}
	cp := *task
	s.tasks[task.Title] = &cp
	return nil
}

func (s *fakeTaskStore) GetByTitle(_ context.Context, title string) (*domain.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	t, ok := s.tasks[title]
	if !ok {
		return nil, &domain.TaskNotFoundError{Title: title}
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) SetActive(_ context.Context, title string, isActive bool) error {
	if t, ok := s.tasks[title]; ok {
		t.IsActive = isActive
	}
	return s.err
}

func (s *fakeTaskStore) SetExecutor(_ context.Context, title string, executorID int64, executorName string) error {
	if t, ok := s.tasks[title]; ok {
		t.ExecutorID = executorID
		t.ExecutorName = executorName
	}
	return s.err
}

func (s *fakeTaskStore) UpdateStatus(_ context.Context, title string, change domain.StatusChange) error {
	t, ok := s.tasks[title]
	if !ok {
		return s.err
	}
	t.Status = change.Status
	if change.CompletedAt != nil {
		t.CompletedAt = change.CompletedAt
	}
	if change.ReopenedAt != nil {
		t.ReopenedAt = change.ReopenedAt
	}
	if change.RecompletedAt != nil {
		t.RecompletedAt = change.RecompletedAt
	}
	return s.err
}

func (s *fakeTaskStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.tasks)), s.err
}

func (s *fakeTaskStore) CountForProject(_ context.Context, projectID string) (int64, error) {
	var n int64
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n, s.err
}

func (s *fakeTaskStore) StatusCounts(_ context.Context, projectID string) (map[domain.Status]int64, error) {
	counts := make(map[domain.Status]int64)
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			counts[t.Status]++
		}
	}
	return counts, s.err
}

func (s *fakeTaskStore) AvgCompletionHours(_ context.Context, projectID string) (float64, error) {
	var total time.Duration
	var n int
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if d, ok := t.CompletionTime(); ok {
			total += d
			n++
		}
	}
	if n == 0 {
		return 0, s.err
	}
	return (total / time.Duration(n)).Hours(), s.err
}

func (s *fakeTaskStore) CompletedByExecutor(_ context.Context, executorID int64, from, to time.Time) ([]domain.ProjectTasksCount, error) {
	byProject := map[string]int64{}
	for _, t := range s.tasks {
		if t.ExecutorID != executorID || t.CompletedAt == nil {
			continue
		}
		if t.CompletedAt.Before(from) || !t.CompletedAt.Before(to) {
			continue
		}
		byProject[t.ProjectID]++
	}

	var stats []domain.ProjectTasksCount
	for projectID, count := range byProject {
		for _, p := range s.projects.projects {
			if p.ID == projectID {
				stats = append(stats, domain.ProjectTasksCount{ProjectTitle: p.Title, TasksCount: count})
			}
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ProjectTitle < stats[j].ProjectTitle })
	return stats, s.err
}

func (s *fakeTaskStore) ExecutorExists(_ context.Context, executorID int64) (bool, error) {
	for _, t := range s.tasks {
		if t.ExecutorID == executorID {
			return true, s.err
		}
	}
	return false, s.err
}

func unionStr(existing []string, add string) []string {
	for _, e := range existing {
		if e == add {
			return existing
		}
	}
	return append(existing, add)
}

func unionInt(existing []int64, add []int64) []int64 {
	seen := make(map[int64]struct{}, len(existing))
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	for _, a := range add {
		if _, ok := seen[a]; !ok {
			seen[a] = struct{}{}
			existing = append(existing, a)
		}
	}
	return existing
}

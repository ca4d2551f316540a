package tracker

import (
	"context"
	"log/slog"

	"github.com/Valerolactone/analytics-todo/internal/postgres"
)

// Membership maintains a project's task references and participant set
// as events arrive. All additions have set semantics and are idempotent
// under replay.
type Membership struct {
	projects postgres.ProjectStore
	logger   *slog.Logger
}

// NewMembership constructs a Membership engine over the project store.
func NewMembership(projects postgres.ProjectStore, logger *slog.Logger) *Membership {
	return &Membership{projects: projects, logger: logger}
}

// Create inserts a project with the creator as its first participant.
func (m *Membership) Create(ctx context.Context, title string, participantID int64) (string, error) {
	id, err := m.projects.Create(ctx, title, participantID)
	if err != nil {
		return "", err
	}
	m.logger.Info("project created",
		slog.String("project_id", id),
		slog.String("title", title),
	)
	return id, nil
}

// SetActive flips the project's activity flag.
func (m *Membership) SetActive(ctx context.Context, title string, isActive bool) error {
	return m.projects.SetActive(ctx, title, isActive)
}

// AddTaskAndParticipants links a task into the project and records every
// participant who touched it. Already-present ids are no-ops.
func (m *Membership) AddTaskAndParticipants(ctx context.Context, title, taskID string, participantIDs []int64) error {
	return m.projects.AddTaskAndParticipants(ctx, title, taskID, participantIDs)
}

// AddParticipants records participants without touching the task set.
func (m *Membership) AddParticipants(ctx context.Context, title string, participantIDs []int64) error {
	return m.projects.AddParticipants(ctx, title, participantIDs)
}

// ParticipantCount returns the size of the project's deduplicated
// participant set.
func (m *Membership) ParticipantCount(ctx context.Context, title string) (int, error) {
	project, err := m.projects.GetByTitle(ctx, title)
	if err != nil {
		return 0, err
	}
	return project.ParticipantCount(), nil
}

package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/Valerolactone/analytics-todo/internal/domain"
	"github.com/Valerolactone/analytics-todo/internal/postgres"
)

// Statistics is the global entity count summary.
type Statistics struct {
	TotalProjects     int64 `json:"total_projects"`
	TotalTasks        int64 `json:"total_tasks"`
	TotalParticipants int64 `json:"total_participants"`
}

// ProjectStatistics summarizes a single project. StatusPercentages holds
// an integer-truncated percentage for each of the five statuses; the
// values may sum below 100, which is accepted rounding behavior.
type ProjectStatistics struct {
	ProjectID                string                `json:"project_id"`
	Title                    string                `json:"title"`
	TotalParticipants        int                   `json:"total_participants"`
	TotalTasks               int64                 `json:"total_tasks"`
	AvgCompletionTimeInHours float64               `json:"avg_completion_time_in_hours"`
	StatusPercentages        map[domain.Status]int `json:"status_percentages"`
}

// ParticipantStatistics lists a participant's completed tasks for the
// current calendar week, grouped by project.
type ParticipantStatistics struct {
	ParticipantID      int64                      `json:"participant_id"`
	ProjectsStatistics []domain.ProjectTasksCount `json:"projects_statistics"`
}

// Stats derives aggregate metrics from the stored entities. It only
// reads; any number of concurrent queries may proceed without
// coordination with the event path.
type Stats struct {
	projects postgres.ProjectStore
	tasks    postgres.TaskStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewStats constructs a Stats aggregator over the given stores.
func NewStats(projects postgres.ProjectStore, tasks postgres.TaskStore, logger *slog.Logger) *Stats {
	return &Stats{projects: projects, tasks: tasks, logger: logger, now: time.Now}
}

// GlobalCounts returns the project count, task count and the number of
// distinct participant ids across all projects.
func (s *Stats) GlobalCounts(ctx context.Context) (Statistics, error) {
	totalProjects, err := s.projects.Count(ctx)
	if err != nil {
		return Statistics{}, err
	}
	totalTasks, err := s.tasks.Count(ctx)
	if err != nil {
		return Statistics{}, err
	}
	totalParticipants, err := s.projects.CountDistinctParticipants(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		TotalProjects:     totalProjects,
		TotalTasks:        totalTasks,
		TotalParticipants: totalParticipants,
	}, nil
}

// ProjectStatistics computes the per-project summary for the named
// project, or ProjectNotFoundError if the title is unknown.
func (s *Stats) ProjectStatistics(ctx context.Context, title string) (ProjectStatistics, error) {
	project, err := s.projects.GetByTitle(ctx, title)
	if err != nil {
		return ProjectStatistics{}, err
	}

	totalTasks, err := s.tasks.CountForProject(ctx, project.ID)
	if err != nil {
		return ProjectStatistics{}, err
	}
	counts, err := s.tasks.StatusCounts(ctx, project.ID)
	if err != nil {
		return ProjectStatistics{}, err
	}
	avgHours, err := s.tasks.AvgCompletionHours(ctx, project.ID)
	if err != nil {
		return ProjectStatistics{}, err
	}

	// Integer truncation; every status is present, 0 when the project
	// has no tasks at all.
	percentages := make(map[domain.Status]int, len(domain.Statuses))
	for _, status := range domain.Statuses {
		percentages[status] = 0
		if totalTasks > 0 {
			percentages[status] = int(counts[status] * 100 / totalTasks)
		}
	}

	return ProjectStatistics{
		ProjectID:                project.ID,
		Title:                    project.Title,
		TotalParticipants:        project.ParticipantCount(),
		TotalTasks:               totalTasks,
		AvgCompletionTimeInHours: avgHours,
		StatusPercentages:        percentages,
	}, nil
}

// WeeklyParticipantStatistics groups the participant's completed tasks
// inside the current calendar week by project. A participant with no
// completions this week gets an empty list; ParticipantNotFoundError is
// returned only when the id has never appeared on any task.
func (s *Stats) WeeklyParticipantStatistics(ctx context.Context, participantID int64) (ParticipantStatistics, error) {
	from, to := weekBounds(s.now())

	stats, err := s.tasks.CompletedByExecutor(ctx, participantID, from, to)
	if err != nil {
		return ParticipantStatistics{}, err
	}

	if len(stats) == 0 {
		known, err := s.tasks.ExecutorExists(ctx, participantID)
		if err != nil {
			return ParticipantStatistics{}, err
		}
		if !known {
			return ParticipantStatistics{}, &domain.ParticipantNotFoundError{ID: participantID}
		}
		stats = []domain.ProjectTasksCount{}
	}

	return ParticipantStatistics{
		ParticipantID:      participantID,
		ProjectsStatistics: stats,
	}, nil
}

// weekBounds returns the half-open [Monday 00:00, next Monday 00:00)
// UTC window of the calendar week containing now.
func weekBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
	return start, start.AddDate(0, 0, 7)
}

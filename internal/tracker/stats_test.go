package tracker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Valerolactone/analytics-todo/internal/domain"
)

func newStatsFixture(t *testing.T) (*Stats, *Lifecycle, *Membership, *fakeTaskStore) {
	t.Helper()
	projects := newFakeProjectStore()
	tasks := newFakeTaskStore(projects)
	logger := slog.Default()
	return NewStats(projects, tasks, logger),
		NewLifecycle(tasks, projects, logger),
		NewMembership(projects, logger),
		tasks
}

func TestGlobalCounts_SingleProjectTaskParticipant(t *testing.T) {
	stats, lifecycle, membership, _ := newStatsFixture(t)
	ctx := context.Background()

	_, err := membership.Create(ctx, "backend", 1)
	require.NoError(t, err)
	_, err = lifecycle.Create(ctx, "backend", "fix-login", domain.StatusOpen, 1)
	require.NoError(t, err)

	got, err := stats.GlobalCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Statistics{TotalProjects: 1, TotalTasks: 1, TotalParticipants: 1}, got)
}

func TestGlobalCounts_SharedParticipantCountsOnce(t *testing.T) {
	stats, _, membership, _ := newStatsFixture(t)
	ctx := context.Background()

	_, err := membership.Create(ctx, "backend", 1)
	require.NoError(t, err)
	_, err = membership.Create(ctx, "frontend", 1)
	require.NoError(t, err)
	require.NoError(t, membership.AddParticipants(ctx, "frontend", []int64{2}))

	got, err := stats.GlobalCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalParticipants)
}

func TestProjectStatistics_UnknownTitle(t *testing.T) {
	stats, _, _, _ := newStatsFixture(t)

	_, err := stats.ProjectStatistics(context.Background(), "ghost")

	var notFound *domain.ProjectNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.EqualError(t, err, "Project with title ghost not found.")
}

func TestProjectStatistics_StatusPercentagesTruncate(t *testing.T) {
	stats, lifecycle, membership, _ := newStatsFixture(t)
	ctx := context.Background()

	_, err := membership.Create(ctx, "backend", 1)
	require.NoError(t, err)
	for title, status := range map[string]domain.Status{
		"a": domain.StatusOpen,
		"b": domain.StatusClosed,
		"c": domain.StatusInProgress,
	} {
		_, err := lifecycle.Create(ctx, "backend", title, status, 1)
		require.NoError(t, err)
	}

	got, err := stats.ProjectStatistics(ctx, "backend")
	require.NoError(t, err)

	assert.Equal(t, int64(3), got.TotalTasks)
	// 1/3 truncates to 33; the sum intentionally lands below 100.
	assert.Equal(t, map[domain.Status]int{
		domain.StatusOpen:       33,
		domain.StatusInProgress: 33,
		domain.StatusResolved:   0,
		domain.StatusReopened:   0,
		domain.StatusClosed:     33,
	}, got.StatusPercentages)
}

func TestProjectStatistics_EmptyProject(t *testing.T) {
	stats, _, membership, _ := newStatsFixture(t)
	ctx := context.Background()
	_, err := membership.Create(ctx, "backend", 1)
	require.NoError(t, err)

	got, err := stats.ProjectStatistics(ctx, "backend")
	require.NoError(t, err)

	assert.Equal(t, int64(0), got.TotalTasks)
	assert.Equal(t, 0.0, got.AvgCompletionTimeInHours)
	for _, status := range domain.Statuses {
		assert.Equal(t, 0, got.StatusPercentages[status], "status %s", status)
	}
}

func TestProjectStatistics_AvgIncludesSecondCycle(t *testing.T) {
	stats, lifecycle, membership, _ := newStatsFixture(t)
	ctx := context.Background()

	_, err := membership.Create(ctx, "backend", 1)
	require.NoError(t, err)

	clock := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	lifecycle.now = func() time.Time { return clock }

	_, err = lifecycle.Create(ctx, "backend", "fix-login", domain.StatusOpen, 1)
	require.NoError(t, err)

	// 2h to first completion, 3h reopened gap, 4h second cycle.
	clock = clock.Add(2 * time.Hour)
	require.NoError(t, lifecycle.ApplyStatusChange(ctx, "fix-login", domain.StatusResolved))
	clock = clock.Add(3 * time.Hour)
	require.NoError(t, lifecycle.ApplyStatusChange(ctx, "fix-login", domain.StatusReopened))
	clock = clock.Add(4 * time.Hour)
	require.NoError(t, lifecycle.ApplyStatusChange(ctx, "fix-login", domain.StatusClosed))

	got, err := stats.ProjectStatistics(ctx, "backend")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, got.AvgCompletionTimeInHours, 1e-9)
}

func TestWeeklyParticipantStatistics_UnknownParticipant(t *testing.T) {
	stats, _, _, _ := newStatsFixture(t)

	_, err := stats.WeeklyParticipantStatistics(context.Background(), 404)

	var notFound *domain.ParticipantNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.EqualError(t, err, "Participant with id 404 not found.")
}

func TestWeeklyParticipantStatistics_NoActivityThisWeek(t *testing.T) {
	stats, lifecycle, membership, _ := newStatsFixture(t)
	ctx := context.Background()

	_, err := membership.Create(ctx, "backend", 1)
	require.NoError(t, err)

	// Completed three weeks before "now".
	past := time.Date(2024, 5, 13, 10, 0, 0, 0, time.UTC)
	lifecycle.now = func() time.Time { return past }
	_, err = lifecycle.Create(ctx, "backend", "old-task", domain.StatusOpen, 7)
	require.NoError(t, err)
	require.NoError(t, lifecycle.ApplyStatusChange(ctx, "old-task", domain.StatusClosed))

	stats.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }

	got, err := stats.WeeklyParticipantStatistics(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ParticipantID)
	assert.NotNil(t, got.ProjectsStatistics)
	assert.Empty(t, got.ProjectsStatistics)
}

func TestWeeklyParticipantStatistics_GroupsByProject(t *testing.T) {
	stats, lifecycle, membership, _ := newStatsFixture(t)
	ctx := context.Background()

	_, err := membership.Create(ctx, "backend", 1)
	require.NoError(t, err)
	_, err = membership.Create(ctx, "frontend", 1)
	require.NoError(t, err)

	// Wednesday of the week under test.
	clock := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	lifecycle.now = func() time.Time { return clock }
	stats.now = func() time.Time { return clock }

	for project, titles := range map[string][]string{
		"backend":  {"t1", "t2"},
		"frontend": {"t3"},
	} {
		for _, title := range titles {
			_, err := lifecycle.Create(ctx, project, title, domain.StatusOpen, 7)
			require.NoError(t, err)
			require.NoError(t, lifecycle.ApplyStatusChange(ctx, title, domain.StatusResolved))
		}
	}

	got, err := stats.WeeklyParticipantStatistics(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProjectTasksCount{
		{ProjectTitle: "backend", TasksCount: 2},
		{ProjectTitle: "frontend", TasksCount: 1},
	}, got.ProjectsStatistics)
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		from time.Time
	}{
		{
			name: "wednesday",
			now:  time.Date(2024, 6, 5, 15, 30, 0, 0, time.UTC),
			from: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday midnight",
			now:  time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			from: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday",
			now:  time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC),
			from: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := weekBounds(tt.now)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.from.AddDate(0, 0, 7), to)
		})
	}
}

package domain

import "time"

// Task is a unit of work inside a project. Tasks are created and mutated
// exclusively by events from the tracker topic; they are never deleted,
// only flagged inactive.
type Task struct {
	ID            string     `json:"task_id"`
	ProjectID     string     `json:"project_id"`
	Title         string     `json:"title"`
	Status        Status     `json:"status"`
	IsActive      bool       `json:"is_active"`
	ExecutorID    int64      `json:"executor_id"`
	ExecutorName  string     `json:"executor_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ReopenedAt    *time.Time `json:"reopened_at,omitempty"`
	RecompletedAt *time.Time `json:"recompleted_at,omitempty"`
}

// StatusChange is the persistable outcome of a status transition.
// A nil timestamp means the stored field is left untouched.
type StatusChange struct {
	Status        Status
	CompletedAt   *time.Time
	ReopenedAt    *time.Time
	RecompletedAt *time.Time
}

// ApplyStatus computes the timestamp side effects of transitioning the
// task to status at the given instant. It is a pure function of the
// stored record, the new status and now:
//
//   - completed_at is set on the first entry into resolved/closed;
//   - reopened_at is set on a transition to reopened only when the task
//     was previously completed;
//   - recompleted_at is set on a resolved/closed transition when the
//     task carries a reopened_at stamp (second completion cycle).
//
// The model accounts for exactly one reopen cycle: replaying a status
// never overwrites a timestamp that is already set.
func (t *Task) ApplyStatus(status Status, now time.Time) StatusChange {
	change := StatusChange{Status: status}
	if status.IsCompleting() && t.CompletedAt == nil {
		change.CompletedAt = &now
	}
	if status == StatusReopened && t.CompletedAt != nil {
		change.ReopenedAt = &now
	}
	if status.IsCompleting() && t.ReopenedAt != nil {
		change.RecompletedAt = &now
	}
	return change
}

// CompletionTime returns the total productive time spent on the task,
// or false if the task was never completed. For a task completed twice
// the second cycle (recompleted_at - reopened_at) is added to the first;
// the gap while the task sat reopened is excluded.
func (t *Task) CompletionTime() (time.Duration, bool) {
	if t.CompletedAt == nil {
		return 0, false
	}
	d := t.CompletedAt.Sub(t.CreatedAt)
	if t.ReopenedAt != nil && t.RecompletedAt != nil {
		d += t.RecompletedAt.Sub(*t.ReopenedAt)
	}
	return d, true
}

package domain

import "time"

// Project groups tasks and the participants who have touched them.
// Projects are created and mutated exclusively by events and are never
// deleted, only flagged inactive. Tasks and participants_ids have set
// semantics: membership updates are append-only and deduplicated.
type Project struct {
	ID              string    `json:"project_id"`
	Title           string    `json:"title"`
	IsActive        bool      `json:"is_active"`
	Tasks           []string  `json:"tasks"`
	ParticipantsIDs []int64   `json:"participants_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

// ParticipantCount returns the number of distinct participants.
func (p *Project) ParticipantCount() int {
	seen := make(map[int64]struct{}, len(p.ParticipantsIDs))
	for _, id := range p.ParticipantsIDs {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// ProjectTasksCount pairs a project title with a number of tasks, used
// by the per-participant weekly statistics.
type ProjectTasksCount struct {
	ProjectTitle string `json:"project_title"`
	TasksCount   int64  `json:"tasks_count"`
}

package domain

import "fmt"

// ProjectNotFoundError is returned when a project title does not exist.
type ProjectNotFoundError struct {
	Title string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("Project with title %s not found.", e.Title)
}

// TaskNotFoundError is returned when a task title does not exist.
type TaskNotFoundError struct {
	Title string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("Task with title %s not found.", e.Title)
}

// ParticipantNotFoundError is returned when a participant id has never
// appeared on any task. A participant with no activity in the queried
// window is not an error.
type ParticipantNotFoundError struct {
	ID int64
}

func (e *ParticipantNotFoundError) Error() string {
	return fmt.Sprintf("Participant with id %d not found.", e.ID)
}

// InvalidStatusError is returned when a status value falls outside the
// closed enumeration.
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q: valid statuses are %v", e.Status, Statuses)
}

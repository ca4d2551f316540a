package domain

// Status represents the lifecycle states a task can be in.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusReopened   Status = "reopened"
	StatusClosed     Status = "closed"
)

// Statuses lists every valid status in a stable order.
var Statuses = []Status{
	StatusOpen,
	StatusInProgress,
	StatusResolved,
	StatusReopened,
	StatusClosed,
}

// Valid reports whether s belongs to the closed status enumeration.
// Any other value must be rejected at the boundary it arrived through.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusReopened, StatusClosed:
		return true
	}
	return false
}

// IsCompleting returns true if entering s ends a completion cycle.
func (s Status) IsCompleting() bool {
	return s == StatusResolved || s == StatusClosed
}

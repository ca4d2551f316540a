package dispatcher

// Event kinds routed by the dispatcher. Anything else is ignored.
const (
	KindCreateProject = "create_project"
	KindUpdateProject = "update_project"
	KindCreateTask    = "create_task"
	KindUpdateTask    = "update_task"
)

// Event is the loosely-typed payload consumed from the tracker topic.
// Every field except the kind discriminator is optional; pointer fields
// distinguish "absent" from a zero value, which matters for the
// update_task branch precedence.
type Event struct {
	Key           string `json:"key"`
	Title         string `json:"title,omitempty"`
	ParticipantID *int64 `json:"participant_id,omitempty"`
	IsActive      *bool  `json:"is_active,omitempty"`
	ProjectTitle  string `json:"project_title,omitempty"`
	Status        string `json:"status,omitempty"`
	ExecutorID    *int64 `json:"executor_id,omitempty"`
	ExecutorName  string `json:"executor_name,omitempty"`
	AssignerID    *int64 `json:"assigner_id,omitempty"`
}

// participants collects the executor and assigner ids carried by the
// event, skipping absent ones.
func (e *Event) participants() []int64 {
	var ids []int64
	if e.ExecutorID != nil {
		ids = append(ids, *e.ExecutorID)
	}
	if e.AssignerID != nil {
		ids = append(ids, *e.AssignerID)
	}
	return ids
}

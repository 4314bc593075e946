package model

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyManual Frequency = "manual"
	FrequencyOnce   Frequency = "once"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyManual, FrequencyOnce:
		return true
	}
	return false
}

type TaskState string

const (
	TaskNotRequested TaskState = "Not Requested"
	TaskPending      TaskState = "Pending"
	TaskComplete     TaskState = "Complete"
)

const DefaultTaskIcon = "mdi:clipboard-list-outline"

type TaskDefinition struct {
	Slug        string    `json:"slug" yaml:"slug"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description,omitempty"`
	Frequency   Frequency `json:"frequency" yaml:"frequency"`
	Assignees   []string  `json:"assignees" yaml:"assignees"`
	Points      int       `json:"points" yaml:"points"`
	Icon        string    `json:"icon" yaml:"icon,omitempty"`
}

// HasAssignee reports whether assignee is in the task's assignee list.
func (t TaskDefinition) HasAssignee(assignee string) bool {
	for _, a := range t.Assignees {
		if a == assignee {
			return true
		}
	}
	return false
}

// TaskStateRow is one row of the task state table. Requested records whether
// the pair has ever been moved to Pending or Complete.
type TaskStateRow struct {
	Assignee  string    `json:"assignee"`
	TaskSlug  string    `json:"task_slug"`
	State     TaskState `json:"state"`
	Requested bool      `json:"requested"`
}

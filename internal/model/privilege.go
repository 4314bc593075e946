package model

import "time"

type Behavior string

const (
	BehaviorAutomatic Behavior = "automatic"
	BehaviorManual    Behavior = "manual"
)

func (b Behavior) Valid() bool {
	return b == BehaviorAutomatic || b == BehaviorManual
}

type PrivilegeState string

const (
	PrivilegeEnabled             PrivilegeState = "Enabled"
	PrivilegeDisabled            PrivilegeState = "Disabled"
	PrivilegeTemporarilyDisabled PrivilegeState = "Temporarily Disabled"
)

const DefaultPrivilegeIcon = "mdi:star"

type PrivilegeDefinition struct {
	Slug        string   `json:"slug" yaml:"slug"`
	Name        string   `json:"name" yaml:"name"`
	Icon        string   `json:"icon" yaml:"icon,omitempty"`
	Behavior    Behavior `json:"behavior" yaml:"behavior"`
	LinkedTasks []string `json:"linked_tasks" yaml:"linked_tasks,omitempty"`
	Assignees   []string `json:"assignees" yaml:"assignees"`
}

func (p PrivilegeDefinition) HasAssignee(assignee string) bool {
	for _, a := range p.Assignees {
		if a == assignee {
			return true
		}
	}
	return false
}

// PrivilegeStateRow is one row of the privilege state table. DisableUntil is
// only set while State is PrivilegeTemporarilyDisabled.
type PrivilegeStateRow struct {
	Assignee      string         `json:"assignee"`
	PrivilegeSlug string         `json:"privilege_slug"`
	State         PrivilegeState `json:"state"`
	DisableUntil  *time.Time     `json:"disable_until,omitempty"`
}

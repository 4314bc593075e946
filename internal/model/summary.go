package model

import "time"

type PrivilegeSummary struct {
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	Icon         string         `json:"icon"`
	Behavior     Behavior       `json:"behavior"`
	LinkedTasks  []string       `json:"linked_tasks"`
	State        PrivilegeState `json:"state"`
	DisableUntil *time.Time     `json:"disable_until,omitempty"`
}

// Summary is the read-only per-assignee view.
type Summary struct {
	Assignee          string             `json:"assignee"`
	TotalTasks        int                `json:"total_tasks"`
	PendingCount      int                `json:"pending_count"`
	CompleteCount     int                `json:"complete_count"`
	NotRequestedCount int                `json:"not_requested_count"`
	PendingTasks      []string           `json:"pending_tasks"`
	CompleteTasks     []string           `json:"complete_tasks"`
	NotRequestedTasks []string           `json:"not_requested_tasks"`
	AllTasks          []string           `json:"all_tasks"`
	TotalPoints       int64              `json:"total_points"`
	PointsEarned      int64              `json:"points_earned"`
	PointsMissed      int64              `json:"points_missed"`
	PointsPossible    int64              `json:"points_possible"`
	Privileges        []PrivilegeSummary `json:"privileges"`
}

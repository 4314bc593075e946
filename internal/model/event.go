package model

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventTaskCompleted     EventKind = "task_completed"
	EventTaskPending       EventKind = "task_pending"
	EventTaskNotRequested  EventKind = "task_not_requested"
	EventPointsMissed      EventKind = "points_missed"
	EventPointsAdjusted    EventKind = "points_adjusted"
	EventPointsReset       EventKind = "points_reset"
	EventPrivilegeChanged  EventKind = "privilege_changed"
	EventTaskRemoved       EventKind = "task_removed"
	EventDayStarted        EventKind = "day_started"
	EventDefinitionChanged EventKind = "definition_changed"
)

// Event records a committed engine change. Points is the signed ledger delta
// where the event touched the ledger.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       EventKind `json:"kind"`
	Assignee   string    `json:"assignee,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	Points     int64     `json:"points,omitempty"`
	State      string    `json:"state,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id on the event.
func NewEvent(kind EventKind, assignee, slug string, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		Assignee:   assignee,
		Slug:       slug,
		OccurredAt: at,
	}
}

// AffectsLedger reports whether the event changed a ledger accumulator.
func (e Event) AffectsLedger() bool {
	switch e.Kind {
	case EventPointsMissed, EventPointsAdjusted, EventPointsReset:
		return true
	case EventTaskCompleted, EventTaskPending:
		return e.Points != 0
	}
	return false
}

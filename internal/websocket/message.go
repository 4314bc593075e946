package websocket

import (
	"fmt"
	"strings"

	"github.com/dukerupert/chorechart/internal/model"
)

// Message is the live feed notification pushed to clients.
type Message struct {
	Type     string         `json:"type"`
	Entity   string         `json:"entity"`
	Action   string         `json:"action"`
	Assignee string         `json:"assignee,omitempty"`
	Slug     string         `json:"slug,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, assignee, slug string, extra map[string]any) Message {
	return Message{
		Type:     fmt.Sprintf("%s_%s", entity, action),
		Entity:   entity,
		Action:   action,
		Assignee: assignee,
		Slug:     slug,
		Extra:    extra,
	}
}

// FromEvent maps an engine event onto the feed. Kinds are named
// entity_action, so task_not_requested becomes entity task, action
// not_requested. Events that moved a ledger accumulator carry
// extra.ledger so clients know to refetch point totals.
func FromEvent(ev model.Event) Message {
	entity, action, _ := strings.Cut(string(ev.Kind), "_")
	extra := map[string]any{
		"event_id":    ev.ID.String(),
		"occurred_at": ev.OccurredAt,
	}
	if ev.Points != 0 {
		extra["points"] = ev.Points
	}
	if ev.AffectsLedger() {
		extra["ledger"] = true
	}
	if ev.State != "" {
		extra["state"] = ev.State
	}
	return NewMessage(entity, action, ev.Assignee, ev.Slug, extra)
}

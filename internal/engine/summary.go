package engine

import (
	"fmt"
	"slices"

	"github.com/dukerupert/chorechart/internal/model"
)

// Summary builds the per-assignee view from the committed state. It never
// mutates: expired temporary disables and automatic privileges are
// evaluated on the fly.
func (e *Engine) Summary(assignee string) (*model.Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.knownAssigneeLocked(assignee) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchAssignee, assignee)
	}
	return e.summaryLocked(assignee), nil
}

// Summaries returns a summary for every known assignee.
func (e *Engine) Summaries() []model.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	assignees := e.assigneesLocked()
	out := make([]model.Summary, 0, len(assignees))
	for _, a := range assignees {
		out = append(out, *e.summaryLocked(a))
	}
	return out
}

func (e *Engine) summaryLocked(assignee string) *model.Summary {
	s := &model.Summary{
		Assignee:          assignee,
		PendingTasks:      []string{},
		CompleteTasks:     []string{},
		NotRequestedTasks: []string{},
		AllTasks:          []string{},
		Privileges:        []model.PrivilegeSummary{},
	}

	for _, t := range e.tasksForLocked(assignee) {
		s.AllTasks = append(s.AllTasks, t.Slug)
		switch e.taskStateLocked(assignee, t.Slug) {
		case model.TaskPending:
			s.PendingTasks = append(s.PendingTasks, t.Slug)
		case model.TaskComplete:
			s.CompleteTasks = append(s.CompleteTasks, t.Slug)
		default:
			s.NotRequestedTasks = append(s.NotRequestedTasks, t.Slug)
		}
	}
	s.TotalTasks = len(s.AllTasks)
	s.PendingCount = len(s.PendingTasks)
	s.CompleteCount = len(s.CompleteTasks)
	s.NotRequestedCount = len(s.NotRequestedTasks)

	if entry, ok := e.ledger[assignee]; ok {
		s.TotalPoints = entry.TotalPoints
		s.PointsEarned = entry.PointsEarned
		s.PointsMissed = entry.PointsMissed
		s.PointsPossible = entry.PointsPossible()
	}

	for _, p := range e.privilegesForLocked(assignee) {
		row := e.privilegeStates[key{assignee: assignee, slug: p.Slug}]
		state, until := e.effectiveStateLocked(assignee, p, row)
		ps := model.PrivilegeSummary{
			Slug:        p.Slug,
			Name:        p.Name,
			Icon:        p.Icon,
			Behavior:    p.Behavior,
			LinkedTasks: slices.Clone(p.LinkedTasks),
			State:       state,
		}
		if until != nil {
			u := *until
			ps.DisableUntil = &u
		}
		if ps.LinkedTasks == nil {
			ps.LinkedTasks = []string{}
		}
		s.Privileges = append(s.Privileges, ps)
	}
	return s
}

// TaskState returns the current state of the pair.
func (e *Engine) TaskState(assignee, slug string) (model.TaskState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.lookupTaskLocked(assignee, slug); err != nil {
		return "", err
	}
	return e.taskStateLocked(assignee, slug), nil
}

// PrivilegeState returns the observable state of the pair.
func (e *Engine) PrivilegeState(assignee, slug string) (model.PrivilegeState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	def, ok := e.privileges[slug]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPrivilege, slug)
	}
	if !def.HasAssignee(assignee) {
		return "", fmt.Errorf("%w: %q does not hold %s", ErrNoSuchAssignee, assignee, slug)
	}
	state, _ := e.effectiveStateLocked(assignee, def, e.privilegeStates[key{assignee: assignee, slug: slug}])
	return state, nil
}

package engine

import (
	"fmt"
	"slices"

	"github.com/dukerupert/chorechart/internal/model"
)

// MarkComplete moves the pair to Complete and credits the task's points to
// total and earned, unless it was already Complete.
func (e *Engine) MarkComplete(assignee, slug string) error {
	return e.transition(assignee, slug, model.TaskComplete)
}

// MarkPending moves the pair to Pending. Leaving Complete debits the points
// credited on completion; the result may go negative.
func (e *Engine) MarkPending(assignee, slug string) error {
	return e.transition(assignee, slug, model.TaskPending)
}

// MarkNotRequested moves the pair to Not Requested with no point effect.
func (e *Engine) MarkNotRequested(assignee, slug string) error {
	return e.transition(assignee, slug, model.TaskNotRequested)
}

func (e *Engine) MarkCompleteAll(slug string) (*BatchResult, error) {
	return e.transitionAll(slug, e.MarkComplete)
}

func (e *Engine) MarkPendingAll(slug string) (*BatchResult, error) {
	return e.transitionAll(slug, e.MarkPending)
}

func (e *Engine) MarkNotRequestedAll(slug string) (*BatchResult, error) {
	return e.transitionAll(slug, e.MarkNotRequested)
}

func (e *Engine) transition(assignee, slug string, next model.TaskState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setTaskStateLocked(assignee, slug, next)
}

func (e *Engine) transitionAll(slug string, fn func(assignee, slug string) error) (*BatchResult, error) {
	e.mu.Lock()
	def, ok := e.tasks[slug]
	var assignees []string
	if ok {
		assignees = slices.Clone(def.Assignees)
	}
	e.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, slug)
	}
	return fanOut(assignees, func(a string) error { return fn(a, slug) }), nil
}

func (e *Engine) lookupTaskLocked(assignee, slug string) (model.TaskDefinition, error) {
	def, ok := e.tasks[slug]
	if !ok {
		return def, fmt.Errorf("%w: %s", ErrUnknownTask, slug)
	}
	if !def.HasAssignee(assignee) {
		return def, fmt.Errorf("%w: %q is not assigned to %s", ErrNoSuchAssignee, assignee, slug)
	}
	return def, nil
}

// taskRowLocked returns the state row for the pair, creating a Not Requested
// row on first reference.
func (e *Engine) taskRowLocked(assignee, slug string) *taskRow {
	k := key{assignee: assignee, slug: slug}
	row, ok := e.taskStates[k]
	if !ok {
		row = &taskRow{state: model.TaskNotRequested}
		e.taskStates[k] = row
	}
	return row
}

func (e *Engine) taskStateLocked(assignee, slug string) model.TaskState {
	if row, ok := e.taskStates[key{assignee: assignee, slug: slug}]; ok {
		return row.state
	}
	return model.TaskNotRequested
}

func (e *Engine) setTaskStateLocked(assignee, slug string, next model.TaskState) error {
	def, err := e.lookupTaskLocked(assignee, slug)
	if err != nil {
		return err
	}

	row := e.taskRowLocked(assignee, slug)
	prev := row.state
	row.state = next
	switch next {
	case model.TaskPending, model.TaskComplete:
		row.requested = true
	case model.TaskNotRequested:
		row.requested = false
	}
	if prev == next {
		return nil
	}

	ev := model.NewEvent(eventForState(next), assignee, slug, e.now())
	ev.State = string(next)

	points := int64(def.Points)
	entry := e.entryLocked(assignee)
	switch {
	case next == model.TaskComplete:
		entry.TotalPoints += points
		entry.PointsEarned += points
		ev.Points = points
	case next == model.TaskPending && prev == model.TaskComplete:
		entry.TotalPoints -= points
		entry.PointsEarned -= points
		ev.Points = -points
	}
	e.emit(ev)

	e.logger.Debug("task transition",
		"assignee", assignee, "task", slug, "from", prev, "to", next, "points", ev.Points)

	e.reevaluateAssigneeLocked(assignee)
	return nil
}

func eventForState(s model.TaskState) model.EventKind {
	switch s {
	case model.TaskComplete:
		return model.EventTaskCompleted
	case model.TaskPending:
		return model.EventTaskPending
	}
	return model.EventTaskNotRequested
}

// ResetCompleted moves every Complete task of the assignee back to Not
// Requested without touching the ledger. Like MarkNotRequested it clears
// the requested flag, so a daily task stays Not Requested at rollover.
func (e *Engine) ResetCompleted(assignee string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.knownAssigneeLocked(assignee) {
		return fmt.Errorf("%w: %s", ErrNoSuchAssignee, assignee)
	}

	count := 0
	for _, t := range e.tasksForLocked(assignee) {
		row, ok := e.taskStates[key{assignee: assignee, slug: t.Slug}]
		if !ok || row.state != model.TaskComplete {
			continue
		}
		row.state = model.TaskNotRequested
		row.requested = false
		ev := model.NewEvent(model.EventTaskNotRequested, assignee, t.Slug, e.now())
		ev.State = string(model.TaskNotRequested)
		e.emit(ev)
		count++
	}
	if count > 0 {
		e.reevaluateAssigneeLocked(assignee)
	}
	e.logger.Info("reset completed tasks", "assignee", assignee, "count", count)
	return nil
}

func (e *Engine) ResetCompletedAll() *BatchResult {
	return fanOut(e.Assignees(), e.ResetCompleted)
}

package engine

import (
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
)

// StartNewDay settles the assignee's day. The steps run in a fixed order:
// Pending tasks are tallied into points_missed while the pre-reset states
// are still in place, then states reset by frequency (manual to Not
// Requested, requested daily tasks to Pending, once tasks removed), then
// privileges are recomputed. Complete tasks were credited at mark time.
func (e *Engine) StartNewDay(assignee string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.knownAssigneeLocked(assignee) {
		return fmt.Errorf("%w: %s", ErrNoSuchAssignee, assignee)
	}

	tasks := e.tasksForLocked(assignee)
	now := e.now()

	var missed int64
	for _, t := range tasks {
		if e.taskStateLocked(assignee, t.Slug) != model.TaskPending {
			continue
		}
		missed += int64(t.Points)
		ev := model.NewEvent(model.EventPointsMissed, assignee, t.Slug, now)
		ev.Points = int64(t.Points)
		e.emit(ev)
	}
	if missed != 0 {
		e.entryLocked(assignee).PointsMissed += missed
	}

	var removed int
	for _, t := range tasks {
		switch t.Frequency {
		case model.FrequencyManual:
			e.resetRowLocked(assignee, t.Slug, model.TaskNotRequested)
		case model.FrequencyDaily:
			row := e.taskRowLocked(assignee, t.Slug)
			if row.requested {
				e.resetRowLocked(assignee, t.Slug, model.TaskPending)
			} else {
				e.resetRowLocked(assignee, t.Slug, model.TaskNotRequested)
			}
		case model.FrequencyOnce:
			e.unassignTaskLocked(assignee, t.Slug)
			removed++
		}
	}

	e.reevaluateAssigneeLocked(assignee)

	ev := model.NewEvent(model.EventDayStarted, assignee, "", now)
	ev.Points = missed
	e.emit(ev)

	e.logger.Info("started new day", "assignee", assignee, "missed", missed, "removed_tasks", removed)
	return nil
}

// StartNewDayAll rolls every known assignee over independently.
func (e *Engine) StartNewDayAll() *BatchResult {
	return fanOut(e.Assignees(), e.StartNewDay)
}

func (e *Engine) resetRowLocked(assignee, slug string, state model.TaskState) {
	row := e.taskRowLocked(assignee, slug)
	if row.state == state {
		return
	}
	row.state = state
	ev := model.NewEvent(eventForState(state), assignee, slug, e.now())
	ev.State = string(state)
	e.emit(ev)
}

// unassignTaskLocked drops the assignee from the task and its state row.
// The definition itself goes away with its last assignee.
func (e *Engine) unassignTaskLocked(assignee, slug string) {
	def, ok := e.tasks[slug]
	if !ok {
		return
	}
	delete(e.taskStates, key{assignee: assignee, slug: slug})

	remaining := make([]string, 0, len(def.Assignees))
	for _, a := range def.Assignees {
		if a != assignee {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) == 0 {
		e.deleteTaskLocked(slug)
		return
	}
	def.Assignees = remaining
	e.tasks[slug] = def
	e.emit(model.NewEvent(model.EventTaskRemoved, assignee, slug, e.now()))
}

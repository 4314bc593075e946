package engine

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

func (e *Engine) lookupPrivilegeLocked(assignee, slug string) (model.PrivilegeDefinition, *privilegeRow, error) {
	def, ok := e.privileges[slug]
	if !ok {
		return def, nil, fmt.Errorf("%w: %s", ErrUnknownPrivilege, slug)
	}
	if !def.HasAssignee(assignee) {
		return def, nil, fmt.Errorf("%w: %q does not hold %s", ErrNoSuchAssignee, assignee, slug)
	}
	return def, e.privilegeRowLocked(assignee, def), nil
}

// privilegeRowLocked returns the row for the pair, creating it at its
// baseline state on first reference.
func (e *Engine) privilegeRowLocked(assignee string, def model.PrivilegeDefinition) *privilegeRow {
	k := key{assignee: assignee, slug: def.Slug}
	row, ok := e.privilegeStates[k]
	if !ok {
		row = &privilegeRow{state: e.baselineLocked(assignee, def)}
		e.privilegeStates[k] = row
	}
	return row
}

// computeAutomaticLocked reports Enabled when every linked task the assignee
// holds is Complete. With no linked tasks, every task that has been requested
// (not in Not Requested) must be Complete.
func (e *Engine) computeAutomaticLocked(assignee string, def model.PrivilegeDefinition) model.PrivilegeState {
	if len(def.LinkedTasks) == 0 {
		for _, t := range e.tasksForLocked(assignee) {
			s := e.taskStateLocked(assignee, t.Slug)
			if s != model.TaskNotRequested && s != model.TaskComplete {
				return model.PrivilegeDisabled
			}
		}
		return model.PrivilegeEnabled
	}

	for _, slug := range def.LinkedTasks {
		t, ok := e.tasks[slug]
		if !ok || !t.HasAssignee(assignee) {
			continue
		}
		if e.taskStateLocked(assignee, slug) != model.TaskComplete {
			return model.PrivilegeDisabled
		}
	}
	return model.PrivilegeEnabled
}

// baselineLocked is the state a privilege returns to once no temporary
// disable applies. Manual privileges come back Enabled.
func (e *Engine) baselineLocked(assignee string, def model.PrivilegeDefinition) model.PrivilegeState {
	if def.Behavior == model.BehaviorAutomatic {
		return e.computeAutomaticLocked(assignee, def)
	}
	return model.PrivilegeEnabled
}

func (e *Engine) expired(row *privilegeRow) bool {
	return row.state == model.PrivilegeTemporarilyDisabled && row.until != nil && !e.now().Before(*row.until)
}

// effectiveStateLocked is the observable state without mutating the row.
func (e *Engine) effectiveStateLocked(assignee string, def model.PrivilegeDefinition, row *privilegeRow) (model.PrivilegeState, *time.Time) {
	if row == nil {
		return e.baselineLocked(assignee, def), nil
	}
	if e.expired(row) {
		return e.baselineLocked(assignee, def), nil
	}
	if row.state == model.PrivilegeTemporarilyDisabled {
		return row.state, row.until
	}
	if def.Behavior == model.BehaviorAutomatic {
		return e.computeAutomaticLocked(assignee, def), nil
	}
	return row.state, nil
}

func (e *Engine) setPrivilegeLocked(assignee string, def model.PrivilegeDefinition, row *privilegeRow, state model.PrivilegeState, until *time.Time) {
	changed := row.state != state
	row.state = state
	row.until = until
	if !changed && state != model.PrivilegeTemporarilyDisabled {
		return
	}
	ev := model.NewEvent(model.EventPrivilegeChanged, assignee, def.Slug, e.now())
	ev.State = string(state)
	e.emit(ev)
	e.logger.Debug("privilege state", "assignee", assignee, "privilege", def.Slug, "state", state)
}

// reevaluateLocked recomputes one privilege row. An active temporary
// disable is left in place; an expired one is cleared.
func (e *Engine) reevaluateLocked(assignee string, def model.PrivilegeDefinition) {
	row := e.privilegeRowLocked(assignee, def)
	if row.state == model.PrivilegeTemporarilyDisabled {
		if !e.expired(row) {
			return
		}
		e.setPrivilegeLocked(assignee, def, row, e.baselineLocked(assignee, def), nil)
		return
	}
	if def.Behavior != model.BehaviorAutomatic {
		return
	}
	e.setPrivilegeLocked(assignee, def, row, e.computeAutomaticLocked(assignee, def), nil)
}

func (e *Engine) reevaluateAssigneeLocked(assignee string) {
	for _, p := range e.privilegesForLocked(assignee) {
		e.reevaluateLocked(assignee, p)
	}
}

// Reevaluate recomputes every privilege the assignee holds and clears
// expired temporary disables.
func (e *Engine) Reevaluate(assignee string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.knownAssigneeLocked(assignee) {
		return fmt.Errorf("%w: %s", ErrNoSuchAssignee, assignee)
	}
	e.reevaluateAssigneeLocked(assignee)
	return nil
}

func (e *Engine) ReevaluateAll() *BatchResult {
	return fanOut(e.Assignees(), e.Reevaluate)
}

// EnablePrivilege sets a manual privilege to Enabled. On an automatic
// privilege it only clears a temporary disable.
func (e *Engine) EnablePrivilege(assignee, slug string) error {
	return e.setExplicit(assignee, slug, model.PrivilegeEnabled)
}

// DisablePrivilege sets a manual privilege to Disabled. On an automatic
// privilege it only clears a temporary disable.
func (e *Engine) DisablePrivilege(assignee, slug string) error {
	return e.setExplicit(assignee, slug, model.PrivilegeDisabled)
}

func (e *Engine) setExplicit(assignee, slug string, state model.PrivilegeState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, row, err := e.lookupPrivilegeLocked(assignee, slug)
	if err != nil {
		return err
	}
	if def.Behavior == model.BehaviorManual {
		e.setPrivilegeLocked(assignee, def, row, state, nil)
		return nil
	}
	if row.state != model.PrivilegeTemporarilyDisabled {
		return fmt.Errorf("%w: %s is automatic and follows its linked tasks", ErrInvalidBehaviorOperation, slug)
	}
	e.setPrivilegeLocked(assignee, def, row, e.computeAutomaticLocked(assignee, def), nil)
	return nil
}

// TemporarilyDisablePrivilege overrides the privilege to Temporarily
// Disabled until now+d. Expiry is observed lazily on read or recompute.
func (e *Engine) TemporarilyDisablePrivilege(assignee, slug string, d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if d <= 0 || d > MaxDisableDuration {
		return fmt.Errorf("%w: duration %s must be positive and at most %s", ErrOutOfRangeAdjustment, d, MaxDisableDuration)
	}
	def, row, err := e.lookupPrivilegeLocked(assignee, slug)
	if err != nil {
		return err
	}
	if e.expired(row) {
		return fmt.Errorf("%w: temporary disable on %s has expired, re-evaluate first", ErrInvalidBehaviorOperation, slug)
	}

	until := e.now().Add(d)
	e.setPrivilegeLocked(assignee, def, row, model.PrivilegeTemporarilyDisabled, &until)
	return nil
}

// AdjustTemporaryDisable shifts the expiry of an active temporary disable.
// When the new expiry is at or before now the privilege returns to its
// baseline immediately.
func (e *Engine) AdjustTemporaryDisable(assignee, slug string, delta time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if delta > MaxDisableDuration || delta < -MaxDisableDuration {
		return fmt.Errorf("%w: shift %s exceeds ±%s", ErrOutOfRangeAdjustment, delta, MaxDisableDuration)
	}
	def, row, err := e.lookupPrivilegeLocked(assignee, slug)
	if err != nil {
		return err
	}
	if row.state != model.PrivilegeTemporarilyDisabled || row.until == nil {
		return fmt.Errorf("%w: %s is not temporarily disabled", ErrInvalidBehaviorOperation, slug)
	}
	if e.expired(row) {
		return fmt.Errorf("%w: temporary disable on %s has expired, re-evaluate first", ErrInvalidBehaviorOperation, slug)
	}

	until := row.until.Add(delta)
	if !until.After(e.now()) {
		e.setPrivilegeLocked(assignee, def, row, e.baselineLocked(assignee, def), nil)
		return nil
	}
	e.setPrivilegeLocked(assignee, def, row, model.PrivilegeTemporarilyDisabled, &until)
	return nil
}

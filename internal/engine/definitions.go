package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dukerupert/chorechart/internal/model"
)

// UpsertTaskDefinition creates or replaces a task definition. State rows of
// dropped assignees are removed; new assignees get a Not Requested row.
func (e *Engine) UpsertTaskDefinition(def model.TaskDefinition) error {
	if err := def.Normalize(); err != nil {
		return err
	}
	def.Assignees = slices.Clone(def.Assignees)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.upsertTaskLocked(def)
	return nil
}

func (e *Engine) upsertTaskLocked(def model.TaskDefinition) {
	affected := slices.Clone(def.Assignees)
	if old, ok := e.tasks[def.Slug]; ok {
		for _, a := range old.Assignees {
			if !def.HasAssignee(a) {
				delete(e.taskStates, key{assignee: a, slug: def.Slug})
				affected = append(affected, a)
			}
		}
	}
	e.tasks[def.Slug] = def
	for _, a := range def.Assignees {
		e.taskRowLocked(a, def.Slug)
	}
	for _, a := range affected {
		e.reevaluateAssigneeLocked(a)
	}
	e.emit(model.NewEvent(model.EventDefinitionChanged, "", def.Slug, e.now()))
}

// RemoveTaskDefinition deletes the task, its state rows, and its slug from
// every privilege's linked tasks.
func (e *Engine) RemoveTaskDefinition(slug string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tasks[slug]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, slug)
	}
	e.deleteTaskLocked(slug)
	return nil
}

func (e *Engine) deleteTaskLocked(slug string) {
	def := e.tasks[slug]
	delete(e.tasks, slug)
	for _, a := range def.Assignees {
		delete(e.taskStates, key{assignee: a, slug: slug})
	}
	for ps, p := range e.privileges {
		if !slices.Contains(p.LinkedTasks, slug) {
			continue
		}
		p.LinkedTasks = slices.DeleteFunc(slices.Clone(p.LinkedTasks), func(s string) bool { return s == slug })
		e.privileges[ps] = p
	}
	for _, a := range def.Assignees {
		e.reevaluateAssigneeLocked(a)
	}
	e.emit(model.NewEvent(model.EventTaskRemoved, "", slug, e.now()))
	e.logger.Info("task removed", "task", slug)
}

// UpsertPrivilegeDefinition creates or replaces a privilege. Every linked
// task must already exist.
func (e *Engine) UpsertPrivilegeDefinition(def model.PrivilegeDefinition) error {
	if err := def.Normalize(); err != nil {
		return err
	}
	def.Assignees = slices.Clone(def.Assignees)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range def.LinkedTasks {
		if _, ok := e.tasks[l]; !ok {
			return fmt.Errorf("%w: privilege %q links non-existent task %q", ErrInvalidDefinition, def.Slug, l)
		}
	}
	e.upsertPrivilegeLocked(def)
	return nil
}

func (e *Engine) upsertPrivilegeLocked(def model.PrivilegeDefinition) {
	if old, ok := e.privileges[def.Slug]; ok {
		for _, a := range old.Assignees {
			if !def.HasAssignee(a) {
				delete(e.privilegeStates, key{assignee: a, slug: def.Slug})
			}
		}
	}
	e.privileges[def.Slug] = def
	for _, a := range def.Assignees {
		e.reevaluateLocked(a, def)
	}
	e.emit(model.NewEvent(model.EventDefinitionChanged, "", def.Slug, e.now()))
}

func (e *Engine) RemovePrivilegeDefinition(slug string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	def, ok := e.privileges[slug]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPrivilege, slug)
	}
	delete(e.privileges, slug)
	for _, a := range def.Assignees {
		delete(e.privilegeStates, key{assignee: a, slug: slug})
	}
	e.emit(model.NewEvent(model.EventDefinitionChanged, "", slug, e.now()))
	return nil
}

// ReplaceDefinitions reconciles the engine with a complete definition set,
// as delivered by a reload of the definition file. The whole set is
// validated before anything is applied.
func (e *Engine) ReplaceDefinitions(tasks []model.TaskDefinition, privileges []model.PrivilegeDefinition) error {
	taskSet := make(map[string]model.TaskDefinition, len(tasks))
	for _, t := range tasks {
		if err := t.Normalize(); err != nil {
			return err
		}
		if _, dup := taskSet[t.Slug]; dup {
			return fmt.Errorf("%w: duplicate task slug %q", ErrInvalidDefinition, t.Slug)
		}
		t.Assignees = slices.Clone(t.Assignees)
		taskSet[t.Slug] = t
	}
	privSet := make(map[string]model.PrivilegeDefinition, len(privileges))
	for _, p := range privileges {
		if err := p.Normalize(); err != nil {
			return err
		}
		if _, dup := privSet[p.Slug]; dup {
			return fmt.Errorf("%w: duplicate privilege slug %q", ErrInvalidDefinition, p.Slug)
		}
		for _, l := range p.LinkedTasks {
			if _, ok := taskSet[l]; !ok {
				return fmt.Errorf("%w: privilege %q links non-existent task %q", ErrInvalidDefinition, p.Slug, l)
			}
		}
		p.Assignees = slices.Clone(p.Assignees)
		privSet[p.Slug] = p
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for slug := range e.privileges {
		if _, ok := privSet[slug]; !ok {
			def := e.privileges[slug]
			delete(e.privileges, slug)
			for _, a := range def.Assignees {
				delete(e.privilegeStates, key{assignee: a, slug: slug})
			}
		}
	}
	for slug := range e.tasks {
		if _, ok := taskSet[slug]; !ok {
			e.deleteTaskLocked(slug)
		}
	}
	for _, t := range sortedValues(taskSet) {
		e.upsertTaskLocked(t)
	}
	for _, p := range sortedValues(privSet) {
		e.upsertPrivilegeLocked(p)
	}
	e.logger.Info("definitions replaced", "tasks", len(taskSet), "privileges", len(privSet))
	return nil
}

// Definitions returns copies of every definition, ordered by slug.
func (e *Engine) Definitions() ([]model.TaskDefinition, []model.PrivilegeDefinition) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks := make([]model.TaskDefinition, 0, len(e.tasks))
	for _, t := range sortedValues(e.tasks) {
		t.Assignees = slices.Clone(t.Assignees)
		tasks = append(tasks, t)
	}
	privileges := make([]model.PrivilegeDefinition, 0, len(e.privileges))
	for _, p := range sortedValues(e.privileges) {
		p.Assignees = slices.Clone(p.Assignees)
		p.LinkedTasks = slices.Clone(p.LinkedTasks)
		privileges = append(privileges, p)
	}
	return tasks, privileges
}

// Task returns the definition for slug.
func (e *Engine) Task(slug string) (model.TaskDefinition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[slug]
	t.Assignees = slices.Clone(t.Assignees)
	return t, ok
}

func (e *Engine) Privilege(slug string) (model.PrivilegeDefinition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.privileges[slug]
	p.Assignees = slices.Clone(p.Assignees)
	p.LinkedTasks = slices.Clone(p.LinkedTasks)
	return p, ok
}

func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

// LedgerRepository is the durability contract for the points ledger.
type LedgerRepository interface {
	LoadLedger(ctx context.Context) ([]model.LedgerEntry, error)
	SaveLedger(ctx context.Context, entries []model.LedgerEntry) error
}

// StateRepository persists the task and privilege state tables.
type StateRepository interface {
	LoadTaskStates(ctx context.Context) ([]model.TaskStateRow, error)
	SaveTaskStates(ctx context.Context, rows []model.TaskStateRow) error
	LoadPrivilegeStates(ctx context.Context) ([]model.PrivilegeStateRow, error)
	SavePrivilegeStates(ctx context.Context, rows []model.PrivilegeStateRow) error
}

type Repository interface {
	LedgerRepository
	StateRepository
}

// SnapshotRepository saves a whole Snapshot atomically. Flush prefers it
// over the per-table saves when the repository provides it.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
}

// Snapshot is a consistent copy of the mutable tables.
type Snapshot struct {
	Ledger          []model.LedgerEntry
	TaskStates      []model.TaskStateRow
	PrivilegeStates []model.PrivilegeStateRow
}

// Snapshot copies the tables under the engine lock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var s Snapshot
	for _, entry := range e.ledger {
		s.Ledger = append(s.Ledger, *entry)
	}
	slices.SortFunc(s.Ledger, func(a, b model.LedgerEntry) int { return cmp.Compare(a.Assignee, b.Assignee) })

	for k, row := range e.taskStates {
		s.TaskStates = append(s.TaskStates, model.TaskStateRow{
			Assignee:  k.assignee,
			TaskSlug:  k.slug,
			State:     row.state,
			Requested: row.requested,
		})
	}
	slices.SortFunc(s.TaskStates, func(a, b model.TaskStateRow) int {
		return cmp.Or(cmp.Compare(a.Assignee, b.Assignee), cmp.Compare(a.TaskSlug, b.TaskSlug))
	})

	for k, row := range e.privilegeStates {
		r := model.PrivilegeStateRow{Assignee: k.assignee, PrivilegeSlug: k.slug, State: row.state}
		if row.until != nil {
			u := *row.until
			r.DisableUntil = &u
		}
		s.PrivilegeStates = append(s.PrivilegeStates, r)
	}
	slices.SortFunc(s.PrivilegeStates, func(a, b model.PrivilegeStateRow) int {
		return cmp.Or(cmp.Compare(a.Assignee, b.Assignee), cmp.Compare(a.PrivilegeSlug, b.PrivilegeSlug))
	})
	return s
}

// Load restores the ledger and state tables from repo. Call it after the
// definitions are in place: rows for pairs that no longer exist are
// dropped and privileges are recomputed.
func (e *Engine) Load(ctx context.Context, repo Repository) error {
	entries, err := repo.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	taskRows, err := repo.LoadTaskStates(ctx)
	if err != nil {
		return fmt.Errorf("load task states: %w", err)
	}
	privRows, err := repo.LoadPrivilegeStates(ctx)
	if err != nil {
		return fmt.Errorf("load privilege states: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger = make(map[string]*model.LedgerEntry, len(entries))
	for _, entry := range entries {
		e.ledger[entry.Assignee] = &entry
	}

	for _, r := range taskRows {
		def, ok := e.tasks[r.TaskSlug]
		if !ok || !def.HasAssignee(r.Assignee) {
			continue
		}
		e.taskStates[key{assignee: r.Assignee, slug: r.TaskSlug}] = &taskRow{state: r.State, requested: r.Requested}
	}

	for _, r := range privRows {
		def, ok := e.privileges[r.PrivilegeSlug]
		if !ok || !def.HasAssignee(r.Assignee) {
			continue
		}
		row := &privilegeRow{state: r.State}
		if r.DisableUntil != nil {
			u := *r.DisableUntil
			row.until = &u
		}
		if row.state == model.PrivilegeTemporarilyDisabled && row.until == nil {
			row.state = e.baselineLocked(r.Assignee, def)
		}
		e.privilegeStates[key{assignee: r.Assignee, slug: r.PrivilegeSlug}] = row
	}

	for _, a := range e.assigneesLocked() {
		e.reevaluateAssigneeLocked(a)
	}
	e.outbox = nil

	e.logger.Info("engine loaded",
		"ledger_entries", len(entries), "task_states", len(taskRows), "privilege_states", len(privRows))
	return nil
}

// Flush writes a snapshot of the ledger and state tables to repo.
func (e *Engine) Flush(ctx context.Context, repo Repository) error {
	start := time.Now()
	s := e.Snapshot()
	if sr, ok := repo.(SnapshotRepository); ok {
		if err := sr.SaveSnapshot(ctx, s); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		e.logger.Debug("engine flushed", "duration", time.Since(start))
		return nil
	}
	if err := repo.SaveLedger(ctx, s.Ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	if err := repo.SaveTaskStates(ctx, s.TaskStates); err != nil {
		return fmt.Errorf("save task states: %w", err)
	}
	if err := repo.SavePrivilegeStates(ctx, s.PrivilegeStates); err != nil {
		return fmt.Errorf("save privilege states: %w", err)
	}
	e.logger.Debug("engine flushed", "duration", time.Since(start))
	return nil
}

package engine

import (
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
)

// AdjustPoints adds delta to the assignee's total only. Earned and missed
// are left alone.
func (e *Engine) AdjustPoints(assignee string, delta int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if delta > e.maxAdjustment || delta < -e.maxAdjustment {
		return fmt.Errorf("%w: %d exceeds ±%d", ErrOutOfRangeAdjustment, delta, e.maxAdjustment)
	}
	if !e.knownAssigneeLocked(assignee) {
		return fmt.Errorf("%w: %s", ErrNoSuchAssignee, assignee)
	}

	entry := e.entryLocked(assignee)
	entry.TotalPoints += delta

	ev := model.NewEvent(model.EventPointsAdjusted, assignee, "", e.now())
	ev.Points = delta
	e.emit(ev)

	e.logger.Info("points adjusted", "assignee", assignee, "delta", delta, "total", entry.TotalPoints)
	return nil
}

// ResetPoints zeroes earned and missed, and total as well when resetTotal is
// set.
func (e *Engine) ResetPoints(assignee string, resetTotal bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.knownAssigneeLocked(assignee) {
		return fmt.Errorf("%w: %s", ErrNoSuchAssignee, assignee)
	}

	entry := e.entryLocked(assignee)
	entry.PointsEarned = 0
	entry.PointsMissed = 0
	if resetTotal {
		entry.TotalPoints = 0
	}

	ev := model.NewEvent(model.EventPointsReset, assignee, "", e.now())
	if resetTotal {
		ev.State = "total"
	}
	e.emit(ev)

	e.logger.Info("points reset", "assignee", assignee, "reset_total", resetTotal)
	return nil
}

func (e *Engine) ResetPointsAll(resetTotal bool) *BatchResult {
	return fanOut(e.Assignees(), func(a string) error { return e.ResetPoints(a, resetTotal) })
}

// Ledger returns a copy of the assignee's ledger entry. Unknown assignees
// yield a zero entry.
func (e *Engine) Ledger(assignee string) model.LedgerEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.ledger[assignee]; ok {
		return *entry
	}
	return model.LedgerEntry{Assignee: assignee}
}

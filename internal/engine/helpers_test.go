package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, tasks []model.TaskDefinition, privileges []model.PrivilegeDefinition) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)}
	e := New(
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err := e.ReplaceDefinitions(tasks, privileges); err != nil {
		t.Fatalf("replace definitions: %v", err)
	}
	e.DrainEvents()
	return e, clock
}

func assertLedger(t *testing.T, e *Engine, assignee string, total, earned, missed int64) {
	t.Helper()
	got := e.Ledger(assignee)
	if got.TotalPoints != total || got.PointsEarned != earned || got.PointsMissed != missed {
		t.Errorf("%s ledger = total %d earned %d missed %d, want %d %d %d",
			assignee, got.TotalPoints, got.PointsEarned, got.PointsMissed, total, earned, missed)
	}
	if got.PointsPossible() != got.PointsEarned+got.PointsMissed {
		t.Errorf("%s possible = %d, want earned+missed", assignee, got.PointsPossible())
	}
}

func assertTaskState(t *testing.T, e *Engine, assignee, slug string, want model.TaskState) {
	t.Helper()
	got, err := e.TaskState(assignee, slug)
	if err != nil {
		t.Fatalf("task state %s/%s: %v", assignee, slug, err)
	}
	if got != want {
		t.Errorf("%s/%s state = %q, want %q", assignee, slug, got, want)
	}
}

func assertPrivilegeState(t *testing.T, e *Engine, assignee, slug string, want model.PrivilegeState) {
	t.Helper()
	got, err := e.PrivilegeState(assignee, slug)
	if err != nil {
		t.Fatalf("privilege state %s/%s: %v", assignee, slug, err)
	}
	if got != want {
		t.Errorf("%s/%s privilege = %q, want %q", assignee, slug, got, want)
	}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type memoryRepo struct {
	ledger     []model.LedgerEntry
	tasks      []model.TaskStateRow
	privileges []model.PrivilegeStateRow
	saves      int
	failSave   bool
}

func (m *memoryRepo) LoadLedger(ctx context.Context) ([]model.LedgerEntry, error) {
	return m.ledger, nil
}

func (m *memoryRepo) SaveLedger(ctx context.Context, entries []model.LedgerEntry) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.saves++
	m.ledger = entries
	return nil
}

func (m *memoryRepo) LoadTaskStates(ctx context.Context) ([]model.TaskStateRow, error) {
	return m.tasks, nil
}

func (m *memoryRepo) SaveTaskStates(ctx context.Context, rows []model.TaskStateRow) error {
	m.tasks = rows
	return nil
}

func (m *memoryRepo) LoadPrivilegeStates(ctx context.Context) ([]model.PrivilegeStateRow, error) {
	return m.privileges, nil
}

func (m *memoryRepo) SavePrivilegeStates(ctx context.Context, rows []model.PrivilegeStateRow) error {
	m.privileges = rows
	return nil
}

type snapshotRepo struct {
	memoryRepo
	snapshots []Snapshot
}

func (r *snapshotRepo) SaveSnapshot(ctx context.Context, s Snapshot) error {
	r.snapshots = append(r.snapshots, s)
	return nil
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

func TestFlushAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tasks := []model.TaskDefinition{dishes()}
	privileges := []model.PrivilegeDefinition{{Slug: "dessert", Behavior: model.BehaviorManual, Assignees: []string{"alice"}}}

	e, clock := newTestEngine(t, tasks, privileges)
	mustDo(t, e.MarkComplete("alice", "dishes"))
	mustDo(t, e.MarkPending("bob", "dishes"))
	mustDo(t, e.StartNewDay("bob"))
	mustDo(t, e.TemporarilyDisablePrivilege("alice", "dessert", time.Hour))

	repo := &memoryRepo{}
	mustDo(t, e.Flush(ctx, repo))

	restored, _ := newTestEngine(t, tasks, privileges)
	restored.now = clock.Now
	mustDo(t, restored.Load(ctx, repo))

	assertLedger(t, restored, "alice", 3, 3, 0)
	assertLedger(t, restored, "bob", 0, 0, 3)
	assertTaskState(t, restored, "alice", "dishes", model.TaskComplete)
	assertTaskState(t, restored, "bob", "dishes", model.TaskPending)
	assertPrivilegeState(t, restored, "alice", "dessert", model.PrivilegeTemporarilyDisabled)

	// The requested flag survives, so bob's daily task keeps cycling.
	mustDo(t, restored.StartNewDay("bob"))
	assertTaskState(t, restored, "bob", "dishes", model.TaskPending)
	assertLedger(t, restored, "bob", 0, 0, 6)
}

func TestLoadDropsOrphanRows(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{
		ledger: []model.LedgerEntry{{Assignee: "zed", TotalPoints: 9}},
		tasks: []model.TaskStateRow{
			{Assignee: "alice", TaskSlug: "dishes", State: model.TaskComplete, Requested: true},
			{Assignee: "alice", TaskSlug: "gone", State: model.TaskPending},
		},
	}
	e, _ := newTestEngine(t, []model.TaskDefinition{dishes()}, nil)
	mustDo(t, e.Load(ctx, repo))

	for _, r := range e.Snapshot().TaskStates {
		if r.TaskSlug == "gone" {
			t.Errorf("orphan row kept: %+v", r)
		}
	}
	// Ledger entries outlive their tasks.
	assertLedger(t, e, "zed", 9, 0, 0)
}

func TestFlushReportsRepositoryError(t *testing.T) {
	e, _ := newTestEngine(t, []model.TaskDefinition{dishes()}, nil)
	if err := e.Flush(context.Background(), &memoryRepo{failSave: true}); err == nil {
		t.Fatal("expected flush error")
	}
}

func TestFlushPrefersSnapshotRepository(t *testing.T) {
	e, _ := newTestEngine(t, []model.TaskDefinition{dishes()}, nil)
	mustDo(t, e.MarkComplete("alice", "dishes"))

	repo := &snapshotRepo{}
	mustDo(t, e.Flush(context.Background(), repo))

	if repo.saves != 0 {
		t.Errorf("per-table saves = %d, want 0", repo.saves)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(repo.snapshots))
	}
	var alice *model.LedgerEntry
	for i, entry := range repo.snapshots[0].Ledger {
		if entry.Assignee == "alice" {
			alice = &repo.snapshots[0].Ledger[i]
		}
	}
	if alice == nil || alice.TotalPoints != 3 {
		t.Errorf("alice ledger = %+v, want total 3", alice)
	}
}

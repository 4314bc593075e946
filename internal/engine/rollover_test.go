package engine

import (
	"errors"
	"testing"

	"github.com/dukerupert/chorechart/internal/model"
)

func TestStartNewDayTalliesPendingBeforeReset(t *testing.T) {
	trash := model.TaskDefinition{Slug: "trash", Frequency: model.FrequencyDaily, Assignees: []string{"alice"}, Points: 5}
	e, _ := newTestEngine(t, []model.TaskDefinition{trash}, nil)

	mustDo(t, e.MarkPending("alice", "trash"))
	mustDo(t, e.StartNewDay("alice"))

	assertLedger(t, e, "alice", 0, 0, 5)
	assertTaskState(t, e, "alice", "trash", model.TaskPending)

	// The reset state is Pending again, so a second rollover with no work
	// tallies from the new day only.
	mustDo(t, e.StartNewDay("alice"))
	assertLedger(t, e, "alice", 0, 0, 10)
}

func TestStartNewDayMissedExcludesPostResetState(t *testing.T) {
	// A manual task reset to Not Requested must not be tallied, even though
	// a daily task next to it is reset to Pending in the same rollover.
	tasks := []model.TaskDefinition{
		{Slug: "laundry", Frequency: model.FrequencyManual, Assignees: []string{"alice"}, Points: 5},
		{Slug: "dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice"}, Points: 3},
	}
	e, _ := newTestEngine(t, tasks, nil)
	mustDo(t, e.MarkPending("alice", "laundry"))
	mustDo(t, e.MarkComplete("alice", "dishes"))

	mustDo(t, e.StartNewDay("alice"))
	assertLedger(t, e, "alice", 3, 3, 5)
	assertTaskState(t, e, "alice", "laundry", model.TaskNotRequested)
	assertTaskState(t, e, "alice", "dishes", model.TaskPending)

	var missed []model.Event
	for _, ev := range e.DrainEvents() {
		if ev.Kind == model.EventPointsMissed {
			missed = append(missed, ev)
		}
	}
	if len(missed) != 1 || missed[0].Slug != "laundry" || missed[0].Points != 5 {
		t.Errorf("missed events = %+v, want one for laundry worth 5", missed)
	}
}

func TestDishesScenario(t *testing.T) {
	d := model.TaskDefinition{Slug: "dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice"}, Points: 3}
	e, _ := newTestEngine(t, []model.TaskDefinition{d}, nil)

	mustDo(t, e.MarkComplete("alice", "dishes"))
	assertLedger(t, e, "alice", 3, 3, 0)

	mustDo(t, e.StartNewDay("alice"))
	assertTaskState(t, e, "alice", "dishes", model.TaskPending)
	assertLedger(t, e, "alice", 3, 3, 0)

	mustDo(t, e.StartNewDay("alice"))
	assertLedger(t, e, "alice", 3, 3, 3)
}

func TestDailyBehavesAsManualUntilRequested(t *testing.T) {
	d := model.TaskDefinition{Slug: "dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice"}, Points: 3}
	e, _ := newTestEngine(t, []model.TaskDefinition{d}, nil)

	mustDo(t, e.StartNewDay("alice"))
	assertTaskState(t, e, "alice", "dishes", model.TaskNotRequested)

	mustDo(t, e.MarkPending("alice", "dishes"))
	mustDo(t, e.StartNewDay("alice"))
	assertTaskState(t, e, "alice", "dishes", model.TaskPending)

	// Explicitly not requesting the task stops the daily cycle.
	mustDo(t, e.MarkNotRequested("alice", "dishes"))
	mustDo(t, e.StartNewDay("alice"))
	assertTaskState(t, e, "alice", "dishes", model.TaskNotRequested)
}

func TestResetCompletedStopsDailyCycle(t *testing.T) {
	d := model.TaskDefinition{Slug: "dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice"}, Points: 3}
	e, _ := newTestEngine(t, []model.TaskDefinition{d}, nil)

	mustDo(t, e.MarkComplete("alice", "dishes"))
	mustDo(t, e.ResetCompleted("alice"))
	mustDo(t, e.StartNewDay("alice"))

	assertTaskState(t, e, "alice", "dishes", model.TaskNotRequested)
	assertLedger(t, e, "alice", 3, 3, 0)
}

func TestStartNewDayRemovesOnceTasks(t *testing.T) {
	tasks := []model.TaskDefinition{
		{Slug: "shelves", Frequency: model.FrequencyOnce, Assignees: []string{"alice", "bob"}, Points: 4},
		{Slug: "dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice", "bob"}, Points: 1},
	}
	privileges := []model.PrivilegeDefinition{
		{Slug: "tv", LinkedTasks: []string{"shelves", "dishes"}, Assignees: []string{"alice", "bob"}},
	}
	e, _ := newTestEngine(t, tasks, privileges)
	mustDo(t, e.MarkPending("alice", "shelves"))

	mustDo(t, e.StartNewDay("alice"))
	assertLedger(t, e, "alice", 0, 0, 4)
	if _, err := e.TaskState("alice", "shelves"); !errors.Is(err, ErrNoSuchAssignee) {
		t.Errorf("alice shelves err = %v, want ErrNoSuchAssignee", err)
	}
	if def, ok := e.Task("shelves"); !ok || len(def.Assignees) != 1 || def.Assignees[0] != "bob" {
		t.Errorf("shelves definition = %+v, want bob only", def)
	}

	mustDo(t, e.StartNewDay("bob"))
	if _, ok := e.Task("shelves"); ok {
		t.Error("expected shelves definition to be removed after its last assignee rolled over")
	}
	p, _ := e.Privilege("tv")
	if len(p.LinkedTasks) != 1 || p.LinkedTasks[0] != "dishes" {
		t.Errorf("tv linked tasks = %v, want [dishes]", p.LinkedTasks)
	}
}

func TestStartNewDayRecomputesPrivileges(t *testing.T) {
	tasks := []model.TaskDefinition{
		{Slug: "dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice"}, Points: 1},
	}
	privileges := []model.PrivilegeDefinition{
		{Slug: "tv", LinkedTasks: []string{"dishes"}, Assignees: []string{"alice"}},
	}
	e, _ := newTestEngine(t, tasks, privileges)
	mustDo(t, e.MarkComplete("alice", "dishes"))
	assertPrivilegeState(t, e, "alice", "tv", model.PrivilegeEnabled)

	mustDo(t, e.StartNewDay("alice"))
	assertPrivilegeState(t, e, "alice", "tv", model.PrivilegeDisabled)
}

func TestStartNewDayAllPartialFailureFree(t *testing.T) {
	e, _ := newTestEngine(t, []model.TaskDefinition{dishes()}, nil)
	mustDo(t, e.MarkPending("alice", "dishes"))
	mustDo(t, e.MarkPending("bob", "dishes"))

	res := e.StartNewDayAll()
	if res.Err() != nil {
		t.Fatalf("rollover all: %v", res.Err())
	}
	assertLedger(t, e, "alice", 0, 0, 3)
	assertLedger(t, e, "bob", 0, 0, 3)

	if err := e.StartNewDay("carol"); !errors.Is(err, ErrNoSuchAssignee) {
		t.Errorf("unknown assignee err = %v, want ErrNoSuchAssignee", err)
	}
}

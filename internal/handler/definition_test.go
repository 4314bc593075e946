package handler

import (
	"net/http"
	"testing"

	"github.com/dukerupert/chorechart/internal/definition"
	"github.com/dukerupert/chorechart/internal/model"
)

func TestCreateTaskDefinition(t *testing.T) {
	env := setupHandlerTest(t)

	rec := env.do(t, http.MethodPost, "/api/definitions/tasks", map[string]any{
		"slug":      "Laundry",
		"name":      "Laundry",
		"frequency": "manual",
		"assignees": []string{"carol"},
	})
	expectStatus(t, rec, http.StatusCreated)
	got := decode[model.TaskDefinition](t, rec)
	if got.Slug != "laundry" || got.Points != definition.DefaultPoints || got.Icon != model.DefaultTaskIcon {
		t.Errorf("created = %+v", got)
	}

	state, err := env.engine.TaskState("carol", "laundry")
	if err != nil {
		t.Fatalf("task state: %v", err)
	}
	if state != model.TaskNotRequested {
		t.Errorf("new pair state = %q, want Not Requested", state)
	}

	f, err := definition.Load(env.defsPath)
	if err != nil {
		t.Fatalf("load saved definitions: %v", err)
	}
	if len(f.Tasks) != 3 {
		t.Errorf("saved tasks = %d, want 3", len(f.Tasks))
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/definitions/tasks", map[string]any{
		"slug": "laundry", "frequency": "manual", "assignees": []string{"carol"},
	}), http.StatusConflict)
}

func TestCreateTaskDefinitionInvalid(t *testing.T) {
	env := setupHandlerTest(t)

	cases := []map[string]any{
		{"slug": "bad slug!", "frequency": "daily", "assignees": []string{"a"}},
		{"slug": "x", "frequency": "weekly", "assignees": []string{"a"}},
		{"slug": "x", "frequency": "daily", "assignees": []string{}},
		{"slug": "x", "frequency": "daily", "assignees": []string{"a"}, "points": -2},
	}
	for _, body := range cases {
		rec := env.do(t, http.MethodPost, "/api/definitions/tasks", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateTaskKeepsUnspecifiedFields(t *testing.T) {
	env := setupHandlerTest(t)

	rec := env.do(t, http.MethodPut, "/api/definitions/tasks/dishes", map[string]any{"points": 5})
	expectStatus(t, rec, http.StatusOK)
	got := decode[model.TaskDefinition](t, rec)
	if got.Points != 5 {
		t.Errorf("points = %d, want 5", got.Points)
	}
	if got.Name != "Dishes" || got.Frequency != model.FrequencyDaily || len(got.Assignees) != 2 {
		t.Errorf("unspecified fields changed: %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodPut, "/api/definitions/tasks/vacuum", map[string]any{"points": 1}), http.StatusNotFound)
}

func TestUpdateTaskDropsAssignee(t *testing.T) {
	env := setupHandlerTest(t)

	rec := env.do(t, http.MethodPut, "/api/definitions/tasks/dishes", map[string]any{"assignees": []string{"alice"}})
	expectStatus(t, rec, http.StatusOK)

	if _, err := env.engine.TaskState("bob", "dishes"); err == nil {
		t.Error("expected bob's dishes row to be gone")
	}
}

func TestDeleteTaskPrunesLinks(t *testing.T) {
	env := setupHandlerTest(t)

	expectStatus(t, env.do(t, http.MethodDelete, "/api/definitions/tasks/dishes", nil), http.StatusNoContent)

	p, ok := env.engine.Privilege("screen_time")
	if !ok {
		t.Fatal("screen_time should survive")
	}
	if len(p.LinkedTasks) != 0 {
		t.Errorf("linked tasks = %v, want none", p.LinkedTasks)
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/api/definitions/tasks/dishes", nil), http.StatusNotFound)
}

func TestPrivilegeDefinitionCRUD(t *testing.T) {
	env := setupHandlerTest(t)

	rec := env.do(t, http.MethodPost, "/api/definitions/privileges", map[string]any{
		"slug":         "gaming",
		"linked_tasks": []string{"dishes"},
		"assignees":    []string{"bob"},
	})
	expectStatus(t, rec, http.StatusCreated)
	got := decode[model.PrivilegeDefinition](t, rec)
	if got.Behavior != model.BehaviorAutomatic || got.Icon != model.DefaultPrivilegeIcon {
		t.Errorf("created = %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/definitions/privileges", map[string]any{
		"slug": "movies", "linked_tasks": []string{"nope"}, "assignees": []string{"bob"},
	}), http.StatusBadRequest)

	rec = env.do(t, http.MethodPut, "/api/definitions/privileges/gaming", map[string]any{"behavior": "manual"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.PrivilegeDefinition](t, rec); got.Behavior != model.BehaviorManual || len(got.LinkedTasks) != 1 {
		t.Errorf("updated = %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/api/definitions/privileges/gaming", nil), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/definitions/privileges/gaming", nil), http.StatusNotFound)

	rec = env.do(t, http.MethodGet, "/api/definitions", nil)
	expectStatus(t, rec, http.StatusOK)
	defs := decode[definitionsResponse](t, rec)
	if len(defs.Tasks) != 2 || len(defs.Privileges) != 2 {
		t.Errorf("definitions = %d tasks, %d privileges", len(defs.Tasks), len(defs.Privileges))
	}
}

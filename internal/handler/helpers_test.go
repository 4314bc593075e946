package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/engine"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/websocket"
)

type testEnv struct {
	engine   *engine.Engine
	repo     *store.Repository
	journal  *store.JournalStore
	hub      *websocket.Hub
	defsPath string
	now      time.Time
	mux      *http.ServeMux
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		repo:     store.NewRepository(db),
		journal:  store.NewJournalStore(db),
		hub:      websocket.NewHub(logger),
		defsPath: filepath.Join(t.TempDir(), "defs.yaml"),
		now:      time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC),
	}
	env.engine = engine.New(
		engine.WithClock(func() time.Time { return env.now }),
		engine.WithLogger(logger),
		engine.WithMaxAdjustment(1000),
	)
	err = env.engine.ReplaceDefinitions(
		[]model.TaskDefinition{
			{Slug: "dishes", Name: "Dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice", "bob"}, Points: 3},
			{Slug: "trash", Name: "Trash", Frequency: model.FrequencyOnce, Assignees: []string{"alice"}, Points: 1},
		},
		[]model.PrivilegeDefinition{
			{Slug: "screen_time", Name: "Screen Time", Behavior: model.BehaviorAutomatic, LinkedTasks: []string{"dishes"}, Assignees: []string{"alice"}},
			{Slug: "dessert", Name: "Dessert", Behavior: model.BehaviorManual, Assignees: []string{"alice", "bob"}},
		},
	)
	if err != nil {
		t.Fatalf("replace definitions: %v", err)
	}
	env.engine.DrainEvents()

	c := NewCommitter(CommitterConfig{
		Engine:          env.engine,
		Repository:      env.repo,
		Journal:         env.journal,
		Hub:             env.hub,
		DefinitionsPath: env.defsPath,
		Logger:          logger,
	})

	tasks := NewTaskHandler(env.engine, c)
	day := NewDayHandler(env.engine, c)
	points := NewPointsHandler(env.engine, c)
	privileges := NewPrivilegeHandler(env.engine, c)
	assignees := NewAssigneeHandler(env.engine, c, env.journal, logger)
	defs := NewDefinitionHandler(env.engine, c)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/assignees", assignees.List)
	mux.HandleFunc("GET /api/assignees/{assignee}/summary", assignees.Summary)
	mux.HandleFunc("GET /api/assignees/{assignee}/journal", assignees.Journal)
	mux.HandleFunc("GET /api/summaries", assignees.Summaries)
	mux.HandleFunc("POST /api/refresh", assignees.Refresh)
	mux.HandleFunc("POST /api/tasks/{slug}/complete", tasks.Complete)
	mux.HandleFunc("POST /api/tasks/{slug}/pending", tasks.Pending)
	mux.HandleFunc("POST /api/tasks/{slug}/not-requested", tasks.NotRequested)
	mux.HandleFunc("POST /api/tasks/reset-completed", tasks.ResetCompleted)
	mux.HandleFunc("POST /api/day/start", day.Start)
	mux.HandleFunc("POST /api/points/adjust", points.Adjust)
	mux.HandleFunc("POST /api/points/reset", points.Reset)
	mux.HandleFunc("POST /api/privileges/{slug}/enable", privileges.Enable)
	mux.HandleFunc("POST /api/privileges/{slug}/disable", privileges.Disable)
	mux.HandleFunc("POST /api/privileges/{slug}/temporarily-disable", privileges.TemporarilyDisable)
	mux.HandleFunc("POST /api/privileges/{slug}/adjust-temporary-disable", privileges.AdjustTemporaryDisable)
	mux.HandleFunc("GET /api/definitions", defs.List)
	mux.HandleFunc("POST /api/definitions/tasks", defs.CreateTask)
	mux.HandleFunc("PUT /api/definitions/tasks/{slug}", defs.UpdateTask)
	mux.HandleFunc("DELETE /api/definitions/tasks/{slug}", defs.DeleteTask)
	mux.HandleFunc("POST /api/definitions/privileges", defs.CreatePrivilege)
	mux.HandleFunc("PUT /api/definitions/privileges/{slug}", defs.UpdatePrivilege)
	mux.HandleFunc("DELETE /api/definitions/privileges/{slug}", defs.DeletePrivilege)
	env.mux = mux
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

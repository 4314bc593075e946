package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/engine"
	"github.com/dukerupert/chorechart/internal/middleware"
	"github.com/dukerupert/chorechart/internal/model"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := engine.New(engine.WithLogger(logger))
	err = e.ReplaceDefinitions(
		[]model.TaskDefinition{{Slug: "dishes", Frequency: model.FrequencyDaily, Assignees: []string{"alice"}, Points: 2}},
		nil,
	)
	if err != nil {
		t.Fatalf("replace definitions: %v", err)
	}
	e.DrainEvents()
	return New(db, e, filepath.Join(t.TempDir(), "defs.yaml"), logger)
}

func TestHealth(t *testing.T) {
	srv := setupServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["assignees"] != float64(1) {
		t.Errorf("assignees = %v, want 1", body["assignees"])
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
}

func TestRouterCommandRoundTrip(t *testing.T) {
	srv := setupServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/dishes/complete", strings.NewReader(`{"assignee":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assignees/alice/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var s model.Summary
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.TotalPoints != 2 || s.CompleteCount != 1 {
		t.Errorf("summary = %+v, want 2 points and 1 complete", s)
	}
}

func TestRouterMethodMismatch(t *testing.T) {
	srv := setupServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/day/start", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/engine"
	"github.com/dukerupert/chorechart/internal/handler"
	"github.com/dukerupert/chorechart/internal/middleware"
	"github.com/dukerupert/chorechart/internal/store"
	ws "github.com/dukerupert/chorechart/internal/websocket"
)

type Server struct {
	db          *sql.DB
	engine      *engine.Engine
	hub         *ws.Hub
	committer   *handler.Committer
	taskH       *handler.TaskHandler
	dayH        *handler.DayHandler
	pointsH     *handler.PointsHandler
	privilegeH  *handler.PrivilegeHandler
	assigneeH   *handler.AssigneeHandler
	definitionH *handler.DefinitionHandler
	logger      *slog.Logger
}

// New wires the handlers around a loaded engine. definitionsPath is where
// definition edits are written back; empty disables the write-back.
func New(db *sql.DB, e *engine.Engine, definitionsPath string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	journal := store.NewJournalStore(db)

	committer := handler.NewCommitter(handler.CommitterConfig{
		Engine:          e,
		Repository:      store.NewRepository(db),
		Journal:         journal,
		Hub:             hub,
		DefinitionsPath: definitionsPath,
		Logger:          logger,
	})

	return &Server{
		db:          db,
		engine:      e,
		hub:         hub,
		committer:   committer,
		taskH:       handler.NewTaskHandler(e, committer),
		dayH:        handler.NewDayHandler(e, committer),
		pointsH:     handler.NewPointsHandler(e, committer),
		privilegeH:  handler.NewPrivilegeHandler(e, committer),
		assigneeH:   handler.NewAssigneeHandler(e, committer, journal, logger.With("component", "assignee")),
		definitionH: handler.NewDefinitionHandler(e, committer),
		logger:      logger,
	}
}

// Committer returns the committer shared by the handlers, for background
// triggers that mutate the engine.
func (s *Server) Committer() *handler.Committer {
	return s.committer
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Read side
	mux.HandleFunc("GET /api/assignees", s.assigneeH.List)
	mux.HandleFunc("GET /api/assignees/{assignee}/summary", s.assigneeH.Summary)
	mux.HandleFunc("GET /api/assignees/{assignee}/journal", s.assigneeH.Journal)
	mux.HandleFunc("GET /api/summaries", s.assigneeH.Summaries)
	mux.HandleFunc("POST /api/refresh", s.assigneeH.Refresh)

	// Task commands
	mux.HandleFunc("POST /api/tasks/{slug}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{slug}/pending", s.taskH.Pending)
	mux.HandleFunc("POST /api/tasks/{slug}/not-requested", s.taskH.NotRequested)
	mux.HandleFunc("POST /api/tasks/reset-completed", s.taskH.ResetCompleted)
	mux.HandleFunc("POST /api/day/start", s.dayH.Start)

	// Points
	mux.HandleFunc("POST /api/points/adjust", s.pointsH.Adjust)
	mux.HandleFunc("POST /api/points/reset", s.pointsH.Reset)

	// Privileges
	mux.HandleFunc("POST /api/privileges/{slug}/enable", s.privilegeH.Enable)
	mux.HandleFunc("POST /api/privileges/{slug}/disable", s.privilegeH.Disable)
	mux.HandleFunc("POST /api/privileges/{slug}/temporarily-disable", s.privilegeH.TemporarilyDisable)
	mux.HandleFunc("POST /api/privileges/{slug}/adjust-temporary-disable", s.privilegeH.AdjustTemporaryDisable)

	// Definitions
	mux.HandleFunc("GET /api/definitions", s.definitionH.List)
	mux.HandleFunc("POST /api/definitions/tasks", s.definitionH.CreateTask)
	mux.HandleFunc("PUT /api/definitions/tasks/{slug}", s.definitionH.UpdateTask)
	mux.HandleFunc("DELETE /api/definitions/tasks/{slug}", s.definitionH.DeleteTask)
	mux.HandleFunc("POST /api/definitions/privileges", s.definitionH.CreatePrivilege)
	mux.HandleFunc("PUT /api/definitions/privileges/{slug}", s.definitionH.UpdatePrivilege)
	mux.HandleFunc("DELETE /api/definitions/privileges/{slug}", s.definitionH.DeletePrivilege)

	var h http.Handler = mux
	h = middleware.Recover(s.logger.With("component", "http"))(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.RequestID(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := map[string]any{
		"status":    "ok",
		"assignees": len(s.engine.Assignees()),
		"clients":   s.hub.ClientCount(),
	}
	if err := s.db.PingContext(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		resp["status"] = "degraded"
		resp["database"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

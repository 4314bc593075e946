package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/chorechart/internal/engine"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

// AssigneeHandler serves the read side: assignee list, summaries and the
// ledger journal, plus the explicit refresh command.
type AssigneeHandler struct {
	engine    *engine.Engine
	committer *Committer
	journal   *store.JournalStore
	logger    *slog.Logger
}

func NewAssigneeHandler(e *engine.Engine, c *Committer, js *store.JournalStore, logger *slog.Logger) *AssigneeHandler {
	return &AssigneeHandler{engine: e, committer: c, journal: js, logger: logger}
}

type ledgerResponse struct {
	model.LedgerEntry
	PointsPossible int64 `json:"points_possible"`
}

func ledgerView(e model.LedgerEntry) ledgerResponse {
	return ledgerResponse{LedgerEntry: e, PointsPossible: e.PointsPossible()}
}

func (h *AssigneeHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Assignees())
}

func (h *AssigneeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Summary(r.PathValue("assignee"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AssigneeHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Summaries())
}

func (h *AssigneeHandler) Journal(w http.ResponseWriter, r *http.Request) {
	assignee := r.PathValue("assignee")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.journal.ListByAssignee(r.Context(), assignee, limit)
	if err != nil {
		h.logger.Error("list journal", "assignee", assignee, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to list journal")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Refresh recomputes privileges for one assignee, or all of them.
func (h *AssigneeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req assigneeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.normalize()

	if req.Assignee != "" {
		if err := h.engine.Reevaluate(req.Assignee); err != nil {
			writeError(w, err)
			return
		}
		if !commitOrFail(h.committer, w, r) {
			return
		}
		summary, err := h.engine.Summary(req.Assignee)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	res := h.engine.ReevaluateAll()
	if !commitOrFail(h.committer, w, r) {
		return
	}
	writeBatch(w, res)
}

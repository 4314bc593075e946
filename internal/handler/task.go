package handler

import (
	"net/http"
	"strings"

	"github.com/dukerupert/chorechart/internal/engine"
)

type TaskHandler struct {
	engine    *engine.Engine
	committer *Committer
}

func NewTaskHandler(e *engine.Engine, c *Committer) *TaskHandler {
	return &TaskHandler{engine: e, committer: c}
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.MarkComplete, h.engine.MarkCompleteAll)
}

func (h *TaskHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.MarkPending, h.engine.MarkPendingAll)
}

func (h *TaskHandler) NotRequested(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.MarkNotRequested, h.engine.MarkNotRequestedAll)
}

func (h *TaskHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	one func(assignee, slug string) error,
	all func(slug string) (*engine.BatchResult, error),
) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	if slug == "" {
		writeMessage(w, http.StatusBadRequest, "task slug is required")
		return
	}
	var req assigneeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.normalize()

	if req.Assignee != "" {
		if err := one(req.Assignee, slug); err != nil {
			writeError(w, err)
			return
		}
		if !commitOrFail(h.committer, w, r) {
			return
		}
		state, _ := h.engine.TaskState(req.Assignee, slug)
		writeJSON(w, http.StatusOK, map[string]string{"assignee": req.Assignee, "slug": slug, "state": string(state)})
		return
	}

	res, err := all(slug)
	if err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	writeBatch(w, res)
}

// ResetCompleted moves Complete tasks back to Not Requested without
// touching the ledger.
func (h *TaskHandler) ResetCompleted(w http.ResponseWriter, r *http.Request) {
	var req assigneeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.normalize()

	if req.Assignee != "" {
		if err := h.engine.ResetCompleted(req.Assignee); err != nil {
			writeError(w, err)
			return
		}
		if !commitOrFail(h.committer, w, r) {
			return
		}
		writeBatch(w, &engine.BatchResult{Succeeded: []string{req.Assignee}})
		return
	}

	res := h.engine.ResetCompletedAll()
	if !commitOrFail(h.committer, w, r) {
		return
	}
	writeBatch(w, res)
}

package handler

import (
	"net/http"

	"github.com/dukerupert/chorechart/internal/engine"
)

type DayHandler struct {
	engine    *engine.Engine
	committer *Committer
}

func NewDayHandler(e *engine.Engine, c *Committer) *DayHandler {
	return &DayHandler{engine: e, committer: c}
}

// Start runs the day rollover for one assignee, or for all of them when
// the body names none.
func (h *DayHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req assigneeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.normalize()

	if req.Assignee != "" {
		if err := h.engine.StartNewDay(req.Assignee); err != nil {
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

	res := h.engine.StartNewDayAll()
	if !commitOrFail(h.committer, w, r) {
		return
	}
	writeBatch(w, res)
}

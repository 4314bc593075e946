package handler

import (
	"net/http"
	"strings"

	"github.com/dukerupert/chorechart/internal/engine"
)

type PointsHandler struct {
	engine    *engine.Engine
	committer *Committer
}

func NewPointsHandler(e *engine.Engine, c *Committer) *PointsHandler {
	return &PointsHandler{engine: e, committer: c}
}

type adjustRequest struct {
	Assignee string `json:"assignee"`
	Delta    int64  `json:"delta"`
}

func (h *PointsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Assignee = strings.TrimSpace(req.Assignee)
	if req.Assignee == "" {
		writeMessage(w, http.StatusBadRequest, "assignee is required")
		return
	}

	if err := h.engine.AdjustPoints(req.Assignee, req.Delta); err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	writeJSON(w, http.StatusOK, ledgerView(h.engine.Ledger(req.Assignee)))
}

type resetRequest struct {
	Assignee   string `json:"assignee"`
	ResetTotal bool   `json:"reset_total"`
}

func (h *PointsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Assignee != "" {
		if err := h.engine.ResetPoints(req.Assignee, req.ResetTotal); err != nil {
			writeError(w, err)
			return
		}
		if !commitOrFail(h.committer, w, r) {
			return
		}
		writeJSON(w, http.StatusOK, ledgerView(h.engine.Ledger(req.Assignee)))
		return
	}

	res := h.engine.ResetPointsAll(req.ResetTotal)
	if !commitOrFail(h.committer, w, r) {
		return
	}
	writeBatch(w, res)
}

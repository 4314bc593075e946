package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/engine"
)

type PrivilegeHandler struct {
	engine    *engine.Engine
	committer *Committer
}

func NewPrivilegeHandler(e *engine.Engine, c *Committer) *PrivilegeHandler {
	return &PrivilegeHandler{engine: e, committer: c}
}

type privilegeRequest struct {
	Assignee string `json:"assignee"`
	Minutes  int64  `json:"minutes"`
}

func (h *PrivilegeHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(assignee, slug string, _ int64) error {
		return h.engine.EnablePrivilege(assignee, slug)
	})
}

func (h *PrivilegeHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(assignee, slug string, _ int64) error {
		return h.engine.DisablePrivilege(assignee, slug)
	})
}

func (h *PrivilegeHandler) TemporarilyDisable(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(assignee, slug string, minutes int64) error {
		d, err := minutesDuration(minutes)
		if err != nil {
			return err
		}
		return h.engine.TemporarilyDisablePrivilege(assignee, slug, d)
	})
}

// AdjustTemporaryDisable shifts an active temporary disable by a signed
// number of minutes.
func (h *PrivilegeHandler) AdjustTemporaryDisable(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(assignee, slug string, minutes int64) error {
		d, err := minutesDuration(minutes)
		if err != nil {
			return err
		}
		return h.engine.AdjustTemporaryDisable(assignee, slug, d)
	})
}

// minutesDuration converts request minutes, rejecting values whose
// magnitude exceeds engine.MaxDisableDuration before they can overflow.
func minutesDuration(minutes int64) (time.Duration, error) {
	limit := int64(engine.MaxDisableDuration / time.Minute)
	if minutes > limit || minutes < -limit {
		return 0, fmt.Errorf("%w: %d minutes exceeds ±%d", engine.ErrOutOfRangeAdjustment, minutes, limit)
	}
	return time.Duration(minutes) * time.Minute, nil
}

func (h *PrivilegeHandler) apply(w http.ResponseWriter, r *http.Request, fn func(assignee, slug string, minutes int64) error) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	if slug == "" {
		writeMessage(w, http.StatusBadRequest, "privilege slug is required")
		return
	}
	var req privilegeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Assignee = strings.TrimSpace(req.Assignee)
	if req.Assignee == "" {
		writeMessage(w, http.StatusBadRequest, "assignee is required")
		return
	}

	if err := fn(req.Assignee, slug, req.Minutes); err != nil {
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
	for _, p := range summary.Privileges {
		if p.Slug == slug {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

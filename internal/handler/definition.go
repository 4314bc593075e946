package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dukerupert/chorechart/internal/definition"
	"github.com/dukerupert/chorechart/internal/engine"
	"github.com/dukerupert/chorechart/internal/model"
)

// DefinitionHandler serves create, update and delete for task and
// privilege definitions. Updates keep any field the request leaves out.
type DefinitionHandler struct {
	engine    *engine.Engine
	committer *Committer
}

func NewDefinitionHandler(e *engine.Engine, c *Committer) *DefinitionHandler {
	return &DefinitionHandler{engine: e, committer: c}
}

type definitionsResponse struct {
	Tasks      []model.TaskDefinition      `json:"tasks"`
	Privileges []model.PrivilegeDefinition `json:"privileges"`
}

func (h *DefinitionHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, privileges := h.engine.Definitions()
	writeJSON(w, http.StatusOK, definitionsResponse{Tasks: tasks, Privileges: privileges})
}

type taskRequest struct {
	Slug        string    `json:"slug"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Frequency   *string   `json:"frequency"`
	Assignees   *[]string `json:"assignees"`
	Points      *int      `json:"points"`
	Icon        *string   `json:"icon"`
}

func (req taskRequest) apply(def *model.TaskDefinition) {
	if req.Name != nil {
		def.Name = *req.Name
	}
	if req.Description != nil {
		def.Description = *req.Description
	}
	if req.Frequency != nil {
		def.Frequency = model.Frequency(*req.Frequency)
	}
	if req.Assignees != nil {
		def.Assignees = *req.Assignees
	}
	if req.Points != nil {
		def.Points = *req.Points
	}
	if req.Icon != nil {
		def.Icon = *req.Icon
	}
}

func (h *DefinitionHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	slug, err := model.NormalizeSlug(req.Slug)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, exists := h.engine.Task(slug); exists {
		writeMessage(w, http.StatusConflict, fmt.Sprintf("task %q already exists", slug))
		return
	}

	def := model.TaskDefinition{Slug: slug, Points: definition.DefaultPoints}
	req.apply(&def)
	if err := h.engine.UpsertTaskDefinition(def); err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	created, _ := h.engine.Task(slug)
	writeJSON(w, http.StatusCreated, created)
}

func (h *DefinitionHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	existing, ok := h.engine.Task(slug)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", engine.ErrUnknownTask, slug))
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.apply(&existing)
	if err := h.engine.UpsertTaskDefinition(existing); err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	updated, _ := h.engine.Task(slug)
	writeJSON(w, http.StatusOK, updated)
}

func (h *DefinitionHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	if err := h.engine.RemoveTaskDefinition(slug); err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type privilegeDefinitionRequest struct {
	Slug        string    `json:"slug"`
	Name        *string   `json:"name"`
	Icon        *string   `json:"icon"`
	Behavior    *string   `json:"behavior"`
	LinkedTasks *[]string `json:"linked_tasks"`
	Assignees   *[]string `json:"assignees"`
}

func (req privilegeDefinitionRequest) apply(def *model.PrivilegeDefinition) {
	if req.Name != nil {
		def.Name = *req.Name
	}
	if req.Icon != nil {
		def.Icon = *req.Icon
	}
	if req.Behavior != nil {
		def.Behavior = model.Behavior(*req.Behavior)
	}
	if req.LinkedTasks != nil {
		def.LinkedTasks = *req.LinkedTasks
	}
	if req.Assignees != nil {
		def.Assignees = *req.Assignees
	}
}

func (h *DefinitionHandler) CreatePrivilege(w http.ResponseWriter, r *http.Request) {
	var req privilegeDefinitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	slug, err := model.NormalizeSlug(req.Slug)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, exists := h.engine.Privilege(slug); exists {
		writeMessage(w, http.StatusConflict, fmt.Sprintf("privilege %q already exists", slug))
		return
	}

	def := model.PrivilegeDefinition{Slug: slug}
	req.apply(&def)
	if err := h.engine.UpsertPrivilegeDefinition(def); err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	created, _ := h.engine.Privilege(slug)
	writeJSON(w, http.StatusCreated, created)
}

func (h *DefinitionHandler) UpdatePrivilege(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	existing, ok := h.engine.Privilege(slug)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", engine.ErrUnknownPrivilege, slug))
		return
	}

	var req privilegeDefinitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.apply(&existing)
	if err := h.engine.UpsertPrivilegeDefinition(existing); err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	updated, _ := h.engine.Privilege(slug)
	writeJSON(w, http.StatusOK, updated)
}

func (h *DefinitionHandler) DeletePrivilege(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	if err := h.engine.RemovePrivilegeDefinition(slug); err != nil {
		writeError(w, err)
		return
	}
	if !commitOrFail(h.committer, w, r) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

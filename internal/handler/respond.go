package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dukerupert/chorechart/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps engine error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownTask),
		errors.Is(err, engine.ErrUnknownPrivilege),
		errors.Is(err, engine.ErrNoSuchAssignee):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidBehaviorOperation):
		return http.StatusConflict
	case errors.Is(err, engine.ErrOutOfRangeAdjustment),
		errors.Is(err, engine.ErrInvalidDefinition):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeMessage(w, status, msg)
}

type batchResponse struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// writeBatch reports a fan-out result. When every assignee failed the
// status follows the first failure.
func writeBatch(w http.ResponseWriter, res *engine.BatchResult) {
	resp := batchResponse{Succeeded: res.Succeeded, Failed: res.Errors()}
	if resp.Succeeded == nil {
		resp.Succeeded = []string{}
	}
	status := http.StatusOK
	if len(res.Succeeded) == 0 && len(res.Failed) > 0 {
		status = statusFor(res.Err())
	}
	writeJSON(w, status, resp)
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type assigneeRequest struct {
	Assignee string `json:"assignee"`
}

func (a *assigneeRequest) normalize() {
	a.Assignee = strings.TrimSpace(a.Assignee)
}

// Package handler exposes tracker.Service as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/goalpost/internal/model"
	"github.com/dukerupert/goalpost/internal/tracker"
	"github.com/dukerupert/goalpost/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and reported as "failed to <op>".
func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrNoUser):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user"})
	default:
		logger.Error(op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to " + op})
	}
}

type cascadeFailure struct {
	Entity string `json:"entity"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error"`
}

type cascadeReport struct {
	Op        string           `json:"op"`
	ParentID  string           `json:"parent_id"`
	Attempted int              `json:"attempted"`
	Failures  []cascadeFailure `json:"failures"`
}

// asCascade reports whether err is a partial cascade failure. The primary
// write behind such an error is committed.
func asCascade(err error) (*cascadeReport, bool) {
	var cerr *tracker.CascadeError
	if !errors.As(err, &cerr) {
		return nil, false
	}
	report := &cascadeReport{Op: cerr.Op, ParentID: cerr.ParentID, Attempted: cerr.Attempted}
	for _, f := range cerr.Failures {
		report.Failures = append(report.Failures, cascadeFailure{Entity: f.Entity, ID: f.ID, Error: f.Err.Error()})
	}
	return report, true
}

func writeCascade(w http.ResponseWriter, logger *slog.Logger, report *cascadeReport, body map[string]any) {
	logger.Warn("partial cascade", "op", report.Op, "parent_id", report.ParentID, "failed", len(report.Failures))
	if body == nil {
		body = map[string]any{}
	}
	body["cascade"] = report
	writeJSON(w, http.StatusMultiStatus, body)
}

func publish(hub *websocket.Hub, entity websocket.Entity, action websocket.Action, id string) {
	if hub != nil {
		hub.Publish(entity, action, id)
	}
}

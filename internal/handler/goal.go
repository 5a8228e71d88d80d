package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/goalpost/internal/model"
	"github.com/dukerupert/goalpost/internal/tracker"
	"github.com/dukerupert/goalpost/internal/websocket"
)

type GoalHandler struct {
	svc    *tracker.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGoalHandler(svc *tracker.Service, hub *websocket.Hub, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{svc: svc, hub: hub, logger: logger}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.ListActiveGoals(r.Context())
	if err != nil {
		writeError(w, h.logger, "list goals", err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in tracker.CreateGoalInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	g, err := h.svc.CreateGoal(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, "create goal", err)
		return
	}
	publish(h.hub, websocket.EntityGoal, websocket.ActionCreated, g.ID)
	writeJSON(w, http.StatusCreated, g)
}

// Update applies a partial update. A recolor that could not reach every task
// answers 207 with the updated goal and the failures.
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in tracker.UpdateGoalInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = r.PathValue("id")

	g, err := h.svc.UpdateGoal(r.Context(), in)
	if report, ok := asCascade(err); ok {
		publish(h.hub, websocket.EntityGoal, websocket.ActionUpdated, g.ID)
		writeCascade(w, h.logger, report, map[string]any{"goal": g})
		return
	}
	if err != nil {
		writeError(w, h.logger, "update goal", err)
		return
	}
	publish(h.hub, websocket.EntityGoal, websocket.ActionUpdated, g.ID)
	writeJSON(w, http.StatusOK, g)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.svc.DeleteGoal(r.Context(), id)
	if report, ok := asCascade(err); ok {
		publish(h.hub, websocket.EntityGoal, websocket.ActionDeleted, id)
		writeCascade(w, h.logger, report, nil)
		return
	}
	if err != nil {
		writeError(w, h.logger, "delete goal", err)
		return
	}
	publish(h.hub, websocket.EntityGoal, websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

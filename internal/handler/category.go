package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/goalpost/internal/model"
	"github.com/dukerupert/goalpost/internal/tracker"
	"github.com/dukerupert/goalpost/internal/websocket"
)

type CategoryHandler struct {
	svc    *tracker.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewCategoryHandler(svc *tracker.Service, hub *websocket.Hub, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, hub: hub, logger: logger}
}

func (h *CategoryHandler) ListByGoal(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategoriesByGoal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "list categories", err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in tracker.CreateCategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.GoalID = r.PathValue("id")
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	c, err := h.svc.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, "create category", err)
		return
	}
	publish(h.hub, websocket.EntityCategory, websocket.ActionCreated, c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in tracker.UpdateCategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = r.PathValue("id")
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	c, err := h.svc.UpdateCategory(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, "update category", err)
		return
	}
	publish(h.hub, websocket.EntityCategory, websocket.ActionUpdated, c.ID)
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.svc.DeleteCategory(r.Context(), id)
	if report, ok := asCascade(err); ok {
		publish(h.hub, websocket.EntityCategory, websocket.ActionDeleted, id)
		writeCascade(w, h.logger, report, nil)
		return
	}
	if err != nil {
		writeError(w, h.logger, "delete category", err)
		return
	}
	publish(h.hub, websocket.EntityCategory, websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

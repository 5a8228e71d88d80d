package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/goalpost/internal/model"
	"github.com/dukerupert/goalpost/internal/tracker"
	"github.com/dukerupert/goalpost/internal/websocket"
)

type TaskHandler struct {
	svc    *tracker.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(svc *tracker.Service, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, hub: hub, logger: logger}
}

// List serves ?date=YYYY-MM-DD or the inclusive range ?start=&end=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var tasks []model.Task
	var err error
	switch {
	case q.Get("date") != "":
		tasks, err = h.svc.ListTasksByDate(r.Context(), q.Get("date"))
	case q.Get("start") != "" && q.Get("end") != "":
		tasks, err = h.svc.ListTasksByDateRange(r.Context(), q.Get("start"), q.Get("end"))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date or start and end are required"})
		return
	}
	if err != nil {
		writeError(w, h.logger, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in tracker.CreateTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	t, err := h.svc.CreateTask(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, "create task", err)
		return
	}
	publish(h.hub, websocket.EntityTask, websocket.ActionCreated, t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in tracker.UpdateTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = r.PathValue("id")
	if in.Title.Set && strings.TrimSpace(in.Title.Value) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title must not be empty"})
		return
	}

	t, err := h.svc.UpdateTask(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, "update task", err)
		return
	}
	publish(h.hub, websocket.EntityTask, websocket.ActionUpdated, t.ID)
	writeJSON(w, http.StatusOK, t)
}

type doneRequest struct {
	Done bool `json:"done"`
}

func (h *TaskHandler) SetDone(w http.ResponseWriter, r *http.Request) {
	var req doneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.svc.ToggleTaskDone(r.Context(), r.PathValue("id"), req.Done)
	if err != nil {
		writeError(w, h.logger, "toggle task", err)
		return
	}
	publish(h.hub, websocket.EntityTask, websocket.ActionUpdated, t.ID)
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.DeleteTask(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete task", err)
		return
	}
	publish(h.hub, websocket.EntityTask, websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

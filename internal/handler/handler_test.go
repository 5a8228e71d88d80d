package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/goalpost/internal/database"
	"github.com/dukerupert/goalpost/internal/middleware"
	"github.com/dukerupert/goalpost/internal/model"
	"github.com/dukerupert/goalpost/internal/store"
	"github.com/dukerupert/goalpost/internal/tracker"
	"github.com/dukerupert/goalpost/internal/websocket"
)

// failingUpdates fails every task Update.
type failingUpdates struct {
	tracker.TaskRepository
}

func (failingUpdates) Update(context.Context, *model.Task) error {
	return errors.New("read-only")
}

type testAPI struct {
	handler http.Handler
	hub     *websocket.Hub
	tasks   *store.TaskStore
}

func setupAPI(t *testing.T, wrapTasks func(tracker.TaskRepository) tracker.TaskRepository) *testAPI {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	taskStore := store.NewTaskStore(db)
	var tasks tracker.TaskRepository = taskStore
	if wrapTasks != nil {
		tasks = wrapTasks(tasks)
	}
	logger := slog.Default()
	svc := tracker.NewService(store.NewGoalStore(db), store.NewCategoryStore(db), tasks, logger)
	hub := websocket.NewHub(logger)

	goals := NewGoalHandler(svc, hub, logger)
	categories := NewCategoryHandler(svc, hub, logger)
	taskH := NewTaskHandler(svc, hub, logger)
	reports := NewReportHandler(svc, logger, func() time.Time {
		return time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/goals", goals.List)
	mux.HandleFunc("POST /api/goals", goals.Create)
	mux.HandleFunc("PUT /api/goals/{id}", goals.Update)
	mux.HandleFunc("DELETE /api/goals/{id}", goals.Delete)
	mux.HandleFunc("GET /api/goals/{id}/categories", categories.ListByGoal)
	mux.HandleFunc("POST /api/goals/{id}/categories", categories.Create)
	mux.HandleFunc("PUT /api/categories/{id}", categories.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", categories.Delete)
	mux.HandleFunc("GET /api/tasks", taskH.List)
	mux.HandleFunc("POST /api/tasks", taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", taskH.Update)
	mux.HandleFunc("POST /api/tasks/{id}/done", taskH.SetDone)
	mux.HandleFunc("DELETE /api/tasks/{id}", taskH.Delete)
	mux.HandleFunc("GET /api/week", reports.Week)
	mux.HandleFunc("GET /api/stats/weekly", reports.WeeklyStats)

	return &testAPI{handler: middleware.WithUser("local")(mux), hub: hub, tasks: taskStore}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func (a *testAPI) createGoal(t *testing.T, name, color string) model.Goal {
	t.Helper()
	rec := a.do(t, "POST", "/api/goals", map[string]any{
		"name": name, "type": "ongoing", "start_date": "2024-01-01", "importance": 3, "color": color,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body)
	}
	return decode[model.Goal](t, rec)
}

func (a *testAPI) createTask(t *testing.T, title, date string, goalID *string) model.Task {
	t.Helper()
	rec := a.do(t, "POST", "/api/tasks", map[string]any{"title": title, "date": date, "goal_id": goalID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task status = %d, body %s", rec.Code, rec.Body)
	}
	return decode[model.Task](t, rec)
}

func TestGoalLifecycle(t *testing.T) {
	api := setupAPI(t, nil)

	g := api.createGoal(t, "Fitness", "#111111")
	if g.UserID != "local" {
		t.Errorf("user_id = %q, want %q", g.UserID, "local")
	}

	rec := api.do(t, "GET", "/api/goals", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if goals := decode[[]model.Goal](t, rec); len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(goals))
	}

	rec = api.do(t, "PUT", "/api/goals/"+g.ID, map[string]any{"name": "Health"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[model.Goal](t, rec); got.Name != "Health" || got.Color != "#111111" {
		t.Errorf("updated = %+v", got)
	}

	rec = api.do(t, "DELETE", "/api/goals/"+g.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = api.do(t, "GET", "/api/goals", nil)
	if goals := decode[[]model.Goal](t, rec); len(goals) != 0 {
		t.Errorf("expected empty list, got %d", len(goals))
	}
}

func TestGoalErrors(t *testing.T) {
	api := setupAPI(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad json", "POST", "/api/goals", "{", http.StatusBadRequest},
		{"missing name", "POST", "/api/goals", map[string]any{"type": "ongoing"}, http.StatusBadRequest},
		{"bad type", "POST", "/api/goals", map[string]any{"name": "x", "type": "someday", "start_date": "2024-01-01", "importance": 1}, http.StatusBadRequest},
		{"unknown goal", "PUT", "/api/goals/missing", map[string]any{"name": "x"}, http.StatusNotFound},
		{"delete unknown", "DELETE", "/api/goals/missing", nil, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestGoalDeletePartialCascade(t *testing.T) {
	api := setupAPI(t, func(r tracker.TaskRepository) tracker.TaskRepository {
		return failingUpdates{r}
	})

	g := api.createGoal(t, "Fitness", "#111111")
	api.createTask(t, "Run", "2024-01-02", &g.ID)

	rec := api.do(t, "DELETE", "/api/goals/"+g.ID, nil)
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusMultiStatus, rec.Body)
	}
	body := decode[struct {
		Cascade cascadeReport `json:"cascade"`
	}](t, rec)
	if body.Cascade.Attempted != 1 || len(body.Cascade.Failures) != 1 {
		t.Errorf("cascade = %+v", body.Cascade)
	}
	if body.Cascade.Failures[0].Entity != "task" {
		t.Errorf("failure entity = %q, want task", body.Cascade.Failures[0].Entity)
	}

	rec = api.do(t, "GET", "/api/goals", nil)
	if goals := decode[[]model.Goal](t, rec); len(goals) != 0 {
		t.Error("goal delete should be committed despite the cascade failure")
	}
}

func TestGoalRecolorPartialCascade(t *testing.T) {
	api := setupAPI(t, func(r tracker.TaskRepository) tracker.TaskRepository {
		return failingUpdates{r}
	})

	g := api.createGoal(t, "Fitness", "#111111")
	api.createTask(t, "Run", "2024-01-02", &g.ID)

	rec := api.do(t, "PUT", "/api/goals/"+g.ID, map[string]any{"color": "#222222"})
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMultiStatus)
	}
	body := decode[struct {
		Goal model.Goal `json:"goal"`
	}](t, rec)
	if body.Goal.Color != "#222222" {
		t.Errorf("goal color = %q, want %q", body.Goal.Color, "#222222")
	}
}

func TestCategoryRoutes(t *testing.T) {
	api := setupAPI(t, nil)
	g := api.createGoal(t, "Fitness", "#111111")

	rec := api.do(t, "POST", "/api/goals/"+g.ID+"/categories", map[string]any{"name": "Cardio"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	c := decode[model.Category](t, rec)
	if c.GoalID != g.ID {
		t.Errorf("goal_id = %q, want %q", c.GoalID, g.ID)
	}

	rec = api.do(t, "PUT", "/api/categories/"+c.ID, map[string]any{"name": "Endurance"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	rec = api.do(t, "GET", "/api/goals/"+g.ID+"/categories", nil)
	cats := decode[[]model.Category](t, rec)
	if len(cats) != 1 || cats[0].Name != "Endurance" {
		t.Errorf("categories = %+v", cats)
	}

	rec = api.do(t, "DELETE", "/api/categories/"+c.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = api.do(t, "PUT", "/api/categories/missing", map[string]any{"name": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update unknown status = %d, want 404", rec.Code)
	}
}

func TestTaskRoutes(t *testing.T) {
	api := setupAPI(t, nil)

	task := api.createTask(t, "Run", "2024-01-02", nil)
	api.createTask(t, "Read", "2024-01-05", nil)
	api.createTask(t, "Later", "2024-02-01", nil)

	rec := api.do(t, "GET", "/api/tasks?date=2024-01-02", nil)
	if tasks := decode[[]model.Task](t, rec); len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("by date = %+v", tasks)
	}

	rec = api.do(t, "GET", "/api/tasks?start=2024-01-01&end=2024-01-07", nil)
	if tasks := decode[[]model.Task](t, rec); len(tasks) != 2 {
		t.Errorf("by range: got %d tasks, want 2", len(tasks))
	}

	rec = api.do(t, "GET", "/api/tasks", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no filter status = %d, want 400", rec.Code)
	}
	rec = api.do(t, "GET", "/api/tasks?date=01/02/2024", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}

	rec = api.do(t, "POST", "/api/tasks/"+task.ID+"/done", map[string]any{"done": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("done status = %d", rec.Code)
	}
	if got := decode[model.Task](t, rec); !got.Done || got.DoneAt == nil {
		t.Errorf("done task = %+v", got)
	}

	rec = api.do(t, "PUT", "/api/tasks/"+task.ID, map[string]any{"description": "5k"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	got := decode[model.Task](t, rec)
	if got.Description == nil || *got.Description != "5k" || got.Title != "Run" || !got.Done {
		t.Errorf("updated task = %+v", got)
	}

	rec = api.do(t, "PUT", "/api/tasks/"+task.ID, map[string]any{"title": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400", rec.Code)
	}

	rec = api.do(t, "DELETE", "/api/tasks/"+task.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = api.do(t, "POST", "/api/tasks/missing/done", map[string]any{"done": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("toggle unknown status = %d, want 404", rec.Code)
	}
}

func TestWeek(t *testing.T) {
	api := setupAPI(t, nil)

	rec := api.do(t, "GET", "/api/week", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	week := decode[weekResponse](t, rec)
	if week.Start != "2024-01-01" || week.End != "2024-01-07" || len(week.Days) != 7 {
		t.Errorf("week = %+v", week)
	}

	rec = api.do(t, "GET", "/api/week?date=2024-01-07", nil)
	if week := decode[weekResponse](t, rec); week.Start != "2024-01-01" {
		t.Errorf("sunday week start = %q, want 2024-01-01", week.Start)
	}

	rec = api.do(t, "GET", "/api/week?date=soon", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
}

func TestWeeklyStats(t *testing.T) {
	api := setupAPI(t, nil)

	g := api.createGoal(t, "Fitness", "#111111")
	done := api.createTask(t, "Run", "2024-01-02", &g.ID)
	api.createTask(t, "Swim", "2024-01-03", &g.ID)
	api.do(t, "POST", "/api/tasks/"+done.ID+"/done", map[string]any{"done": true})

	rec := api.do(t, "GET", "/api/stats/weekly", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	report := decode[tracker.WeeklyReport](t, rec)
	if len(report.Stats) != 1 || report.Stats[0].Count != 1 || report.Stats[0].GoalName != "Fitness" {
		t.Errorf("stats = %+v", report.Stats)
	}

	rec = api.do(t, "GET", "/api/stats/weekly?done_only=false", nil)
	report = decode[tracker.WeeklyReport](t, rec)
	if len(report.Stats) != 1 || report.Stats[0].Count != 2 {
		t.Errorf("stats with open tasks = %+v", report.Stats)
	}

	rec = api.do(t, "GET", "/api/stats/weekly?done_only=maybe", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad flag status = %d, want 400", rec.Code)
	}
}

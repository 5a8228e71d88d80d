package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/goalpost/internal/handler"
	"github.com/dukerupert/goalpost/internal/middleware"
	"github.com/dukerupert/goalpost/internal/tracker"
	ws "github.com/dukerupert/goalpost/internal/websocket"
)

// Config holds the transport settings that do not come from the service.
type Config struct {
	UserID string
	// OriginPatterns lists cross-origin hosts allowed on the change feed.
	OriginPatterns []string
	// Now overrides the clock used for "today" defaults.
	Now func() time.Time
}

type Server struct {
	hub            *ws.Hub
	goalH          *handler.GoalHandler
	categoryH      *handler.CategoryHandler
	taskH          *handler.TaskHandler
	reportH        *handler.ReportHandler
	userID         string
	originPatterns []string
	logger         *slog.Logger
}

func New(svc *tracker.Service, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	return &Server{
		hub:            hub,
		goalH:          handler.NewGoalHandler(svc, hub, logger.With("component", "goal")),
		categoryH:      handler.NewCategoryHandler(svc, hub, logger.With("component", "category")),
		taskH:          handler.NewTaskHandler(svc, hub, logger.With("component", "task")),
		reportH:        handler.NewReportHandler(svc, logger.With("component", "report"), cfg.Now),
		userID:         cfg.UserID,
		originPatterns: cfg.OriginPatterns,
		logger:         logger,
	}
}

// Hub returns the change feed hub so callers can close it on shutdown.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.originPatterns))

	mux.HandleFunc("GET /api/goals", s.goalH.List)
	mux.HandleFunc("POST /api/goals", s.goalH.Create)
	mux.HandleFunc("PUT /api/goals/{id}", s.goalH.Update)
	mux.HandleFunc("DELETE /api/goals/{id}", s.goalH.Delete)

	mux.HandleFunc("GET /api/goals/{id}/categories", s.categoryH.ListByGoal)
	mux.HandleFunc("POST /api/goals/{id}/categories", s.categoryH.Create)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("POST /api/tasks/{id}/done", s.taskH.SetDone)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	mux.HandleFunc("GET /api/week", s.reportH.Week)
	mux.HandleFunc("GET /api/stats/weekly", s.reportH.WeeklyStats)

	var h http.Handler = mux
	h = middleware.WithUser(s.userID)(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"subscribers": s.hub.SubscriberCount(),
	})
}

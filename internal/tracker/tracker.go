// Package tracker implements the goal, category and task operations on top
// of the repository contracts. Handlers and commands call into Service and
// never reach a repository directly.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/goalpost/internal/auth"
	"github.com/dukerupert/goalpost/internal/model"
	"github.com/google/uuid"
)

// GoalRepository persists goals. GetByID returns (nil, nil) when the id is
// unknown and includes soft-deleted goals; ListActive excludes them.
type GoalRepository interface {
	Create(ctx context.Context, g *model.Goal) error
	Update(ctx context.Context, g *model.Goal) error
	GetByID(ctx context.Context, id string) (*model.Goal, error)
	ListActive(ctx context.Context) ([]model.Goal, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	GetByID(ctx context.Context, id string) (*model.Category, error)
	ListByGoal(ctx context.Context, goalID string) ([]model.Category, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// TaskRepository persists tasks. Every List method excludes soft-deleted tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *model.Task) error
	Update(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByGoal(ctx context.Context, goalID string) ([]model.Task, error)
	ListByCategory(ctx context.Context, categoryID string) ([]model.Task, error)
	ListByDate(ctx context.Context, date string) ([]model.Task, error)
	ListByDateRange(ctx context.Context, start, end string) ([]model.Task, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

type Service struct {
	goals      GoalRepository
	categories CategoryRepository
	tasks      TaskRepository
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

type Option func(*Service)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces random UUIDs as the source of new ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(goals GoalRepository, categories CategoryRepository, tasks TaskRepository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		goals:      goals,
		categories: categories,
		tasks:      tasks,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func userFrom(ctx context.Context) (string, error) {
	id := auth.UserID(ctx)
	if id == "" {
		return "", model.ErrNoUser
	}
	return id, nil
}

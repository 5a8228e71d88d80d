package tracker

import (
	"context"
	"fmt"

	"github.com/dukerupert/goalpost/internal/calendar"
	"github.com/dukerupert/goalpost/internal/model"
)

type CreateTaskInput struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Description *string `json:"description"`
	GoalID      *string `json:"goal_id"`
	CategoryID  *string `json:"category_id"`
	Color       string  `json:"color"`
}

type UpdateTaskInput struct {
	ID          string            `json:"-"`
	Title       Optional[string]  `json:"title"`
	Date        Optional[string]  `json:"date"`
	Description Optional[*string] `json:"description"`
	GoalID      Optional[*string] `json:"goal_id"`
	CategoryID  Optional[*string] `json:"category_id"`
	Color       Optional[string]  `json:"color"`
}

// goalColor returns the color of the goal a task is being assigned to, or
// fallback when the goal is unknown.
func (s *Service) goalColor(ctx context.Context, goalID *string, fallback string) (string, error) {
	if goalID == nil {
		return fallback, nil
	}
	g, err := s.goals.GetByID(ctx, *goalID)
	if err != nil {
		return "", fmt.Errorf("get goal: %w", err)
	}
	if g == nil {
		return fallback, nil
	}
	return g.Color, nil
}

// CreateTask stores a new open task for the context user. A task assigned to
// a known goal takes that goal's color.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*model.Task, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := calendar.ParseDate(in.Date); err != nil {
		return nil, err
	}

	color := in.Color
	if color == "" {
		color = model.DefaultTaskColor
	}
	if color, err = s.goalColor(ctx, in.GoalID, color); err != nil {
		return nil, err
	}

	now := s.now()
	t := &model.Task{
		ID:          s.newID(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		GoalID:      in.GoalID,
		CategoryID:  in.CategoryID,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// ToggleTaskDone sets the done flag. DoneAt becomes now when done and is
// cleared otherwise, in the same write.
func (s *Service) ToggleTaskDone(ctx context.Context, id string, done bool) (*model.Task, error) {
	existing, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	now := s.now()
	updated := *existing
	updated.SetDone(done, now)
	updated.UpdatedAt = now
	if err := s.tasks.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	return &updated, nil
}

// UpdateTask merges the supplied fields over the stored task. Goal and
// category ids are not checked; moving the task to a known goal adopts the
// goal's color.
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (*model.Task, error) {
	existing, err := s.tasks.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("task %s: %w", in.ID, model.ErrNotFound)
	}

	updated := *existing
	updated.Title = in.Title.Or(existing.Title)
	updated.Date = in.Date.Or(existing.Date)
	updated.Description = in.Description.Or(existing.Description)
	updated.GoalID = in.GoalID.Or(existing.GoalID)
	updated.CategoryID = in.CategoryID.Or(existing.CategoryID)
	updated.Color = in.Color.Or(existing.Color)

	if _, err := calendar.ParseDate(updated.Date); err != nil {
		return nil, err
	}
	if in.GoalID.Set {
		if updated.Color, err = s.goalColor(ctx, updated.GoalID, updated.Color); err != nil {
			return nil, err
		}
	}

	updated.UpdatedAt = s.now()
	if err := s.tasks.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &updated, nil
}

// DeleteTask soft-deletes the task. Unknown ids are a no-op.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.tasks.SoftDelete(ctx, id, s.now()); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *Service) ListTasksByDate(ctx context.Context, date string) ([]model.Task, error) {
	if _, err := calendar.ParseDate(date); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListTasksByDateRange returns active tasks dated within [start, end].
func (s *Service) ListTasksByDateRange(ctx context.Context, start, end string) ([]model.Task, error) {
	if _, err := calendar.ParseDate(start); err != nil {
		return nil, err
	}
	if _, err := calendar.ParseDate(end); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

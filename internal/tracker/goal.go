package tracker

import (
	"context"
	"fmt"

	"github.com/dukerupert/goalpost/internal/calendar"
	"github.com/dukerupert/goalpost/internal/model"
)

type CreateGoalInput struct {
	Name       string         `json:"name"`
	Type       model.GoalType `json:"type"`
	StartDate  string         `json:"start_date"`
	EndDate    *string        `json:"end_date"`
	Importance int            `json:"importance"`
	Color      string         `json:"color"`
}

type UpdateGoalInput struct {
	ID         string                   `json:"-"`
	Name       Optional[string]         `json:"name"`
	Type       Optional[model.GoalType] `json:"type"`
	StartDate  Optional[string]         `json:"start_date"`
	EndDate    Optional[*string]        `json:"end_date"`
	Importance Optional[int]            `json:"importance"`
	Color      Optional[string]         `json:"color"`
}

func validateGoal(g *model.Goal) error {
	if !g.Type.Valid() {
		return fmt.Errorf("%w: goal type %q", model.ErrInvalidInput, g.Type)
	}
	if g.Importance < 1 || g.Importance > 5 {
		return fmt.Errorf("%w: importance %d not in 1..5", model.ErrInvalidInput, g.Importance)
	}
	if _, err := calendar.ParseDate(g.StartDate); err != nil {
		return err
	}
	if g.EndDate != nil {
		if _, err := calendar.ParseDate(*g.EndDate); err != nil {
			return err
		}
	}
	return nil
}

// CreateGoal stores a new goal owned by the context user. Ongoing goals never
// keep an end date.
func (s *Service) CreateGoal(ctx context.Context, in CreateGoalInput) (*model.Goal, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	g := &model.Goal{
		ID:         s.newID(),
		UserID:     userID,
		Name:       in.Name,
		Type:       in.Type,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Importance: in.Importance,
		Color:      in.Color,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	g.NormalizeEndDate()
	if err := validateGoal(g); err != nil {
		return nil, err
	}

	if err := s.goals.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

// UpdateGoal merges the supplied fields over the stored goal. A color change
// is propagated to every active task of the goal. If some of those task
// writes fail, the updated goal is returned together with a *CascadeError.
func (s *Service) UpdateGoal(ctx context.Context, in UpdateGoalInput) (*model.Goal, error) {
	existing, err := s.goals.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("goal %s: %w", in.ID, model.ErrNotFound)
	}

	if in.Color.Set && in.Color.Value == "" {
		return nil, fmt.Errorf("%w: goal color must not be empty", model.ErrInvalidInput)
	}

	updated := *existing
	updated.Name = in.Name.Or(existing.Name)
	updated.Type = in.Type.Or(existing.Type)
	updated.StartDate = in.StartDate.Or(existing.StartDate)
	updated.EndDate = in.EndDate.Or(existing.EndDate)
	updated.Importance = in.Importance.Or(existing.Importance)
	updated.Color = in.Color.Or(existing.Color)
	updated.NormalizeEndDate()
	if err := validateGoal(&updated); err != nil {
		return nil, err
	}

	now := s.now()
	updated.UpdatedAt = now
	if err := s.goals.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	if updated.Color == existing.Color {
		return &updated, nil
	}

	c := s.newCascade("recolor goal", updated.ID)
	tasks, err := s.tasks.ListByGoal(ctx, updated.ID)
	if err != nil {
		c.abort("tasks", err)
		return &updated, c.result()
	}
	for _, t := range tasks {
		t.Color = updated.Color
		t.UpdatedAt = now
		c.record("task", t.ID, s.tasks.Update(ctx, &t))
	}
	return &updated, c.result()
}

// DeleteGoal soft-deletes the goal, detaches its active tasks (clearing goal,
// category and color) and soft-deletes its active categories. Unknown ids are
// a no-op. Dependent write failures are reported as a *CascadeError after all
// writes have been attempted.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	now := s.now()
	if err := s.goals.SoftDelete(ctx, id, now); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	c := s.newCascade("delete goal", id)

	tasks, err := s.tasks.ListByGoal(ctx, id)
	if err != nil {
		c.abort("tasks", err)
	}
	for _, t := range tasks {
		t.Detach()
		t.UpdatedAt = now
		c.record("task", t.ID, s.tasks.Update(ctx, &t))
	}

	categories, err := s.categories.ListByGoal(ctx, id)
	if err != nil {
		c.abort("categories", err)
	}
	for _, cat := range categories {
		c.record("category", cat.ID, s.categories.SoftDelete(ctx, cat.ID, now))
	}

	return c.result()
}

func (s *Service) ListActiveGoals(ctx context.Context) ([]model.Goal, error) {
	goals, err := s.goals.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// GetGoal returns the goal with id, soft-deleted or not.
func (s *Service) GetGoal(ctx context.Context, id string) (*model.Goal, error) {
	g, err := s.goals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("goal %s: %w", id, model.ErrNotFound)
	}
	return g, nil
}

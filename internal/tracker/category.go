package tracker

import (
	"context"
	"fmt"

	"github.com/dukerupert/goalpost/internal/model"
)

type CreateCategoryInput struct {
	GoalID string `json:"goal_id"`
	Name   string `json:"name"`
}

type UpdateCategoryInput struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

// CreateCategory stores a new category under GoalID. The goal is not checked
// for existence.
func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryInput) (*model.Category, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if in.GoalID == "" {
		return nil, fmt.Errorf("%w: goal id is required", model.ErrInvalidInput)
	}

	now := s.now()
	c := &model.Category{
		ID:        s.newID(),
		UserID:    userID,
		GoalID:    in.GoalID,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// UpdateCategory renames a category. The owning goal never changes.
func (s *Service) UpdateCategory(ctx context.Context, in UpdateCategoryInput) (*model.Category, error) {
	existing, err := s.categories.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("category %s: %w", in.ID, model.ErrNotFound)
	}

	updated := *existing
	updated.Name = in.Name
	updated.UpdatedAt = s.now()
	if err := s.categories.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &updated, nil
}

// DeleteCategory soft-deletes the category and clears it from every active
// task that references it. Unknown ids are a no-op.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	now := s.now()
	if err := s.categories.SoftDelete(ctx, id, now); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	c := s.newCascade("delete category", id)
	tasks, err := s.tasks.ListByCategory(ctx, id)
	if err != nil {
		c.abort("tasks", err)
		return c.result()
	}
	for _, t := range tasks {
		t.CategoryID = nil
		t.UpdatedAt = now
		c.record("task", t.ID, s.tasks.Update(ctx, &t))
	}
	return c.result()
}

func (s *Service) ListCategoriesByGoal(ctx context.Context, goalID string) ([]model.Category, error) {
	categories, err := s.categories.ListByGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

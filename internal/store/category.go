package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(scanner interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := scanner.Scan(&c.ID, &c.UserID, &c.GoalID, &c.Name, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.DeletedAt, err = scanNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const categoryCols = `id, user_id, goal_id, name, created_at, updated_at, deleted_at`

func categoryArgs(c *model.Category) []any {
	return []any{
		c.ID, c.UserID, c.GoalID, c.Name,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt), nullTime(c.DeletedAt),
	}
}

func (s *CategoryStore) Create(ctx context.Context, c *model.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		categoryArgs(c)...,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", translateInsertErr(err, c.ID))
	}
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, c *model.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id, goal_id = excluded.goal_id, name = excluded.name,
		   created_at = excluded.created_at, updated_at = excluded.updated_at,
		   deleted_at = excluded.deleted_at`,
		categoryArgs(c)...,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) ListByGoal(ctx context.Context, goalID string) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryCols+` FROM categories
		 WHERE goal_id = ? AND deleted_at IS NULL
		 ORDER BY created_at ASC, id ASC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories by goal: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *CategoryStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	ts := formatTime(at)
	_, err := s.db.ExecContext(ctx, `UPDATE categories SET deleted_at = ?, updated_at = ? WHERE id = ?`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	return nil
}

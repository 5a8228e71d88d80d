package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	var endDate, deletedAt sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&g.ID, &g.UserID, &g.Name, &g.Type, &g.StartDate, &endDate,
		&g.Importance, &g.Color, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	g.EndDate = stringPtr(endDate)
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if g.DeletedAt, err = scanNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

const goalCols = `id, user_id, name, type, start_date, end_date, importance, color, created_at, updated_at, deleted_at`

func goalArgs(g *model.Goal) []any {
	return []any{
		g.ID, g.UserID, g.Name, string(g.Type), g.StartDate, nullString(g.EndDate),
		g.Importance, g.Color, formatTime(g.CreatedAt), formatTime(g.UpdatedAt), nullTime(g.DeletedAt),
	}
}

func (s *GoalStore) Create(ctx context.Context, g *model.Goal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goalArgs(g)...,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", translateInsertErr(err, g.ID))
	}
	return nil
}

// Update writes the full record, inserting it if the id is unknown.
func (s *GoalStore) Update(ctx context.Context, g *model.Goal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id, name = excluded.name, type = excluded.type,
		   start_date = excluded.start_date, end_date = excluded.end_date,
		   importance = excluded.importance, color = excluded.color,
		   created_at = excluded.created_at, updated_at = excluded.updated_at,
		   deleted_at = excluded.deleted_at`,
		goalArgs(g)...,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// GetByID returns the goal including soft-deleted ones, or nil if absent.
func (s *GoalStore) GetByID(ctx context.Context, id string) (*model.Goal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+goalCols+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) ListActive(ctx context.Context) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalCols+` FROM goals WHERE deleted_at IS NULL ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// SoftDelete stamps deleted_at and updated_at. Unknown ids are ignored.
func (s *GoalStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	ts := formatTime(at)
	_, err := s.db.ExecContext(ctx, `UPDATE goals SET deleted_at = ?, updated_at = ? WHERE id = ?`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("soft delete goal: %w", err)
	}
	return nil
}

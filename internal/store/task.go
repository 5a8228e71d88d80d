package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var description, goalID, categoryID, doneAt, deletedAt sql.NullString
	var createdAt, updatedAt string
	var done int

	err := scanner.Scan(
		&t.ID, &t.UserID, &t.Title, &description, &t.Date, &goalID, &categoryID,
		&t.Color, &done, &doneAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Done = done != 0
	t.Description = stringPtr(description)
	t.GoalID = stringPtr(goalID)
	t.CategoryID = stringPtr(categoryID)
	if t.DoneAt, err = scanNullTime(doneAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if t.DeletedAt, err = scanNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, user_id, title, description, date, goal_id, category_id, color, done, done_at, created_at, updated_at, deleted_at`

func taskArgs(t *model.Task) []any {
	var done int
	if t.Done {
		done = 1
	}
	return []any{
		t.ID, t.UserID, t.Title, nullString(t.Description), t.Date,
		nullString(t.GoalID), nullString(t.CategoryID), t.Color, done, nullTime(t.DoneAt),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), nullTime(t.DeletedAt),
	}
}

func (s *TaskStore) Create(ctx context.Context, t *model.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		taskArgs(t)...,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", translateInsertErr(err, t.ID))
	}
	return nil
}

func (s *TaskStore) Update(ctx context.Context, t *model.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id, title = excluded.title, description = excluded.description,
		   date = excluded.date, goal_id = excluded.goal_id, category_id = excluded.category_id,
		   color = excluded.color, done = excluded.done, done_at = excluded.done_at,
		   created_at = excluded.created_at, updated_at = excluded.updated_at,
		   deleted_at = excluded.deleted_at`,
		taskArgs(t)...,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByGoal(ctx context.Context, goalID string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by goal", `goal_id = ?`, goalID)
}

func (s *TaskStore) ListByCategory(ctx context.Context, categoryID string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by category", `category_id = ?`, categoryID)
}

func (s *TaskStore) ListByDate(ctx context.Context, date string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by date", `date = ?`, date)
}

// ListByDateRange returns tasks dated within [start, end]. Dates are
// YYYY-MM-DD, so text comparison is calendar comparison.
func (s *TaskStore) ListByDateRange(ctx context.Context, start, end string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by date range", `date >= ? AND date <= ?`, start, end)
}

func (s *TaskStore) list(ctx context.Context, op, where string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks
		 WHERE `+where+` AND deleted_at IS NULL
		 ORDER BY date ASC, created_at ASC, id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	ts := formatTime(at)
	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ?`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("soft delete task: %w", err)
	}
	return nil
}

package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type taskRow struct {
	ID          string     `gorm:"primaryKey;size:64"`
	UserID      string     `gorm:"size:64;not null;index"`
	Title       string     `gorm:"not null"`
	Description *string    `gorm:"type:text"`
	Date        string     `gorm:"size:10;not null;index"`
	GoalID      *string    `gorm:"size:64;index"`
	CategoryID  *string    `gorm:"size:64;index"`
	Color       string     `gorm:"size:32;not null"`
	Done        bool       `gorm:"not null;index"`
	DoneAt      *time.Time
	CreatedAt   time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime:false"`
	DeletedAt   *time.Time `gorm:"index"`
}

func (taskRow) TableName() string { return "tasks" }

func fromTask(t *model.Task) *taskRow {
	return &taskRow{
		ID: t.ID, UserID: t.UserID, Title: t.Title, Description: t.Description, Date: t.Date,
		GoalID: t.GoalID, CategoryID: t.CategoryID, Color: t.Color, Done: t.Done, DoneAt: utcPtr(t.DoneAt),
		CreatedAt: t.CreatedAt.UTC(), UpdatedAt: t.UpdatedAt.UTC(), DeletedAt: utcPtr(t.DeletedAt),
	}
}

func (r *taskRow) model() *model.Task {
	return &model.Task{
		ID: r.ID, UserID: r.UserID, Title: r.Title, Description: r.Description, Date: r.Date,
		GoalID: r.GoalID, CategoryID: r.CategoryID, Color: r.Color, Done: r.Done, DoneAt: utcPtr(r.DoneAt),
		CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(), DeletedAt: utcPtr(r.DeletedAt),
	}
}

type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) Create(ctx context.Context, t *model.Task) error {
	if err := s.db.WithContext(ctx).Create(fromTask(t)).Error; err != nil {
		return fmt.Errorf("insert task: %w", translateInsertErr(err, t.ID))
	}
	return nil
}

func (s *TaskStore) Update(ctx context.Context, t *model.Task) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(fromTask(t)).Error
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return row.model(), nil
}

func (s *TaskStore) ListByGoal(ctx context.Context, goalID string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by goal", s.db.Where("goal_id = ?", goalID))
}

func (s *TaskStore) ListByCategory(ctx context.Context, categoryID string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by category", s.db.Where("category_id = ?", categoryID))
}

func (s *TaskStore) ListByDate(ctx context.Context, date string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by date", s.db.Where("date = ?", date))
}

// ListByDateRange returns tasks dated within [start, end].
func (s *TaskStore) ListByDateRange(ctx context.Context, start, end string) ([]model.Task, error) {
	return s.list(ctx, "list tasks by date range", s.db.Where("date >= ? AND date <= ?", start, end))
}

func (s *TaskStore) list(ctx context.Context, op string, scope *gorm.DB) ([]model.Task, error) {
	var rows []taskRow
	err := scope.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("date ASC").Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tasks := make([]model.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, *rows[i].model())
	}
	return tasks, nil
}

func (s *TaskStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return softDelete(ctx, s.db, &taskRow{}, "task", id, at)
}

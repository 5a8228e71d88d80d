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

type categoryRow struct {
	ID        string     `gorm:"primaryKey;size:64"`
	UserID    string     `gorm:"size:64;not null;index"`
	GoalID    string     `gorm:"size:64;not null;index"`
	Name      string     `gorm:"not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime:false"`
	DeletedAt *time.Time `gorm:"index"`
}

func (categoryRow) TableName() string { return "categories" }

func fromCategory(c *model.Category) *categoryRow {
	return &categoryRow{
		ID: c.ID, UserID: c.UserID, GoalID: c.GoalID, Name: c.Name,
		CreatedAt: c.CreatedAt.UTC(), UpdatedAt: c.UpdatedAt.UTC(), DeletedAt: utcPtr(c.DeletedAt),
	}
}

func (r *categoryRow) model() *model.Category {
	return &model.Category{
		ID: r.ID, UserID: r.UserID, GoalID: r.GoalID, Name: r.Name,
		CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(), DeletedAt: utcPtr(r.DeletedAt),
	}
}

type CategoryStore struct {
	db *gorm.DB
}

func NewCategoryStore(db *gorm.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) Create(ctx context.Context, c *model.Category) error {
	if err := s.db.WithContext(ctx).Create(fromCategory(c)).Error; err != nil {
		return fmt.Errorf("insert category: %w", translateInsertErr(err, c.ID))
	}
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, c *model.Category) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(fromCategory(c)).Error
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*model.Category, error) {
	var row categoryRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return row.model(), nil
}

func (s *CategoryStore) ListByGoal(ctx context.Context, goalID string) ([]model.Category, error) {
	var rows []categoryRow
	err := s.db.WithContext(ctx).
		Where("goal_id = ? AND deleted_at IS NULL", goalID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list categories by goal: %w", err)
	}
	categories := make([]model.Category, 0, len(rows))
	for i := range rows {
		categories = append(categories, *rows[i].model())
	}
	return categories, nil
}

func (s *CategoryStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return softDelete(ctx, s.db, &categoryRow{}, "category", id, at)
}

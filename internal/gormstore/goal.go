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

// Timestamps are managed by the tracker service, so gorm's automatic
// tracking is switched off on every row type.
type goalRow struct {
	ID         string     `gorm:"primaryKey;size:64"`
	UserID     string     `gorm:"size:64;not null;index"`
	Name       string     `gorm:"not null"`
	Type       string     `gorm:"size:16;not null"`
	StartDate  string     `gorm:"size:10;not null"`
	EndDate    *string    `gorm:"size:10"`
	Importance int        `gorm:"not null"`
	Color      string     `gorm:"size:32;not null"`
	CreatedAt  time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime:false"`
	DeletedAt  *time.Time `gorm:"index"`
}

func (goalRow) TableName() string { return "goals" }

func fromGoal(g *model.Goal) *goalRow {
	return &goalRow{
		ID: g.ID, UserID: g.UserID, Name: g.Name, Type: string(g.Type),
		StartDate: g.StartDate, EndDate: g.EndDate, Importance: g.Importance, Color: g.Color,
		CreatedAt: g.CreatedAt.UTC(), UpdatedAt: g.UpdatedAt.UTC(), DeletedAt: utcPtr(g.DeletedAt),
	}
}

func (r *goalRow) model() *model.Goal {
	return &model.Goal{
		ID: r.ID, UserID: r.UserID, Name: r.Name, Type: model.GoalType(r.Type),
		StartDate: r.StartDate, EndDate: r.EndDate, Importance: r.Importance, Color: r.Color,
		CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(), DeletedAt: utcPtr(r.DeletedAt),
	}
}

type GoalStore struct {
	db *gorm.DB
}

func NewGoalStore(db *gorm.DB) *GoalStore {
	return &GoalStore{db: db}
}

func (s *GoalStore) Create(ctx context.Context, g *model.Goal) error {
	if err := s.db.WithContext(ctx).Create(fromGoal(g)).Error; err != nil {
		return fmt.Errorf("insert goal: %w", translateInsertErr(err, g.ID))
	}
	return nil
}

// Update writes the full record, inserting it if the id is unknown.
func (s *GoalStore) Update(ctx context.Context, g *model.Goal) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(fromGoal(g)).Error
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (s *GoalStore) GetByID(ctx context.Context, id string) (*model.Goal, error) {
	var row goalRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return row.model(), nil
}

func (s *GoalStore) ListActive(ctx context.Context) ([]model.Goal, error) {
	var rows []goalRow
	err := s.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goals := make([]model.Goal, 0, len(rows))
	for i := range rows {
		goals = append(goals, *rows[i].model())
	}
	return goals, nil
}

func (s *GoalStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return softDelete(ctx, s.db, &goalRow{}, "goal", id, at)
}

func softDelete(ctx context.Context, db *gorm.DB, row any, entity, id string, at time.Time) error {
	at = at.UTC()
	err := db.WithContext(ctx).Model(row).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": at, "updated_at": at}).Error
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", entity, err)
	}
	return nil
}

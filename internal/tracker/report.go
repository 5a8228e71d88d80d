package tracker

import (
	"context"
	"fmt"

	"github.com/dukerupert/goalpost/internal/calendar"
	"github.com/dukerupert/goalpost/internal/model"
	"github.com/dukerupert/goalpost/internal/stats"
)

type WeeklyReport struct {
	Range model.WeekRange        `json:"range"`
	Stats []model.WeeklyGoalStat `json:"stats"`
}

// WeeklyStats aggregates the tasks of the week containing date by goal and
// labels each group with its goal's current name.
func (s *Service) WeeklyStats(ctx context.Context, date string, doneOnly bool) (*WeeklyReport, error) {
	week, err := calendar.WeekRange(date)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasksByDateRange(ctx, week.Start, week.End)
	if err != nil {
		return nil, err
	}
	goals, err := s.ListActiveGoals(ctx)
	if err != nil {
		return nil, err
	}

	groups := stats.ComputeWeekly(tasks, stats.Options{IncludeOpen: !doneOnly})
	stats.LabelGoals(groups, goals)
	if groups == nil {
		groups = []model.WeeklyGoalStat{}
	}
	return &WeeklyReport{Range: week, Stats: groups}, nil
}

var demoTasks = []struct {
	title  string
	offset int
}{
	{"Morning stretch, 10 minutes", 0},
	{"Write code for 20 minutes", 0},
	{"Read for 15 minutes", 1},
	{"Review and plan", 2},
}

// SeedDemo creates a handful of sample tasks around today when the store has
// no active tasks at all. It returns how many tasks were created.
func (s *Service) SeedDemo(ctx context.Context, today string) (int, error) {
	existing, err := s.ListTasksByDateRange(ctx, "0000-01-01", "9999-12-31")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, d := range demoTasks {
		date, err := calendar.AddDays(today, d.offset)
		if err != nil {
			return created, err
		}
		if _, err := s.CreateTask(ctx, CreateTaskInput{Title: d.title, Date: date, Color: model.DefaultTaskColor}); err != nil {
			return created, fmt.Errorf("seed %q: %w", d.title, err)
		}
		created++
	}
	s.logger.Info("seeded demo tasks", "count", created, "today", today)
	return created, nil
}

// Package stats aggregates task lists into per-goal weekly counts.
package stats

import (
	"slices"

	"github.com/dukerupert/goalpost/internal/model"
)

const unassignedKey = ""

// Options controls ComputeWeekly. The zero value counts done tasks only.
type Options struct {
	IncludeOpen bool
}

// ComputeWeekly groups tasks by goal and counts them, largest group first.
// Tasks without a goal fall into one unassigned bucket. Groups with equal
// counts keep the order in which they first appear in tasks.
//
// Goal groups take the color of their first task and an empty name; see
// LabelGoals.
func ComputeWeekly(tasks []model.Task, opts Options) []model.WeeklyGoalStat {
	index := make(map[string]int)
	var groups []model.WeeklyGoalStat

	for _, t := range tasks {
		if !opts.IncludeOpen && !t.Done {
			continue
		}

		key := unassignedKey
		if t.GoalID != nil {
			key = *t.GoalID
		}

		i, ok := index[key]
		if !ok {
			stat := model.WeeklyGoalStat{
				GoalName: model.UnassignedLabel,
				Color:    model.NeutralColor,
			}
			if t.GoalID != nil {
				id := *t.GoalID
				stat.GoalID = &id
				stat.GoalName = ""
				stat.Color = t.Color
			}
			i = len(groups)
			index[key] = i
			groups = append(groups, stat)
		}
		groups[i].Count++
	}

	slices.SortStableFunc(groups, func(a, b model.WeeklyGoalStat) int {
		return b.Count - a.Count
	})
	return groups
}

// LabelGoals fills GoalName for goal groups from goals. Groups whose goal is
// not in goals keep an empty name.
func LabelGoals(groups []model.WeeklyGoalStat, goals []model.Goal) {
	names := make(map[string]string, len(goals))
	for _, g := range goals {
		names[g.ID] = g.Name
	}
	for i := range groups {
		if groups[i].GoalID == nil {
			continue
		}
		groups[i].GoalName = names[*groups[i].GoalID]
	}
}

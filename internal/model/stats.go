package model

// UnassignedLabel names the weekly stats bucket for tasks without a goal.
const UnassignedLabel = "Unassigned"

// WeeklyGoalStat is the number of tasks attributed to one goal in a week.
// GoalID is nil for the unassigned bucket.
type WeeklyGoalStat struct {
	GoalID   *string `json:"goal_id"`
	GoalName string  `json:"goal_name"`
	Color    string  `json:"color"`
	Count    int     `json:"count"`
}

// WeekRange is a Monday..Sunday span of calendar dates, both inclusive.
type WeekRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

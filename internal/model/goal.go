package model

import "time"

type GoalType string

const (
	GoalTypeOngoing GoalType = "ongoing"
	GoalTypeProject GoalType = "project"
)

// Valid reports whether t is one of the known goal types.
func (t GoalType) Valid() bool {
	return t == GoalTypeOngoing || t == GoalTypeProject
}

type Goal struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Type       GoalType   `json:"type"`
	StartDate  string     `json:"start_date"`
	EndDate    *string    `json:"end_date"`
	Importance int        `json:"importance"`
	Color      string     `json:"color"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at"`
}

// Active reports whether the goal has not been soft-deleted.
func (g *Goal) Active() bool {
	return g.DeletedAt == nil
}

// NormalizeEndDate clears EndDate for ongoing goals. Only projects carry an end date.
func (g *Goal) NormalizeEndDate() {
	if g.Type != GoalTypeProject {
		g.EndDate = nil
	}
}

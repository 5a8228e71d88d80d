package model

import "time"

const (
	// NeutralColor is applied to tasks detached from a deleted goal and to
	// the unassigned bucket in weekly stats.
	NeutralColor = "#94a3b8"
	// DefaultTaskColor is used for free tasks when the caller picks no color.
	DefaultTaskColor = "#0ea5e9"
)

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Date        string     `json:"date"`
	GoalID      *string    `json:"goal_id"`
	CategoryID  *string    `json:"category_id"`
	Color       string     `json:"color"`
	Done        bool       `json:"done"`
	DoneAt      *time.Time `json:"done_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

func (t *Task) Active() bool {
	return t.DeletedAt == nil
}

// SetDone sets Done and keeps DoneAt in step with it: DoneAt is at when done,
// nil otherwise.
func (t *Task) SetDone(done bool, at time.Time) {
	t.Done = done
	if done {
		t.DoneAt = &at
	} else {
		t.DoneAt = nil
	}
}

// Detach unlinks the task from its goal and category and resets its color.
func (t *Task) Detach() {
	t.GoalID = nil
	t.CategoryID = nil
	t.Color = NeutralColor
}

package model

import "time"

type Category struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	GoalID    string     `json:"goal_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

func (c *Category) Active() bool {
	return c.DeletedAt == nil
}

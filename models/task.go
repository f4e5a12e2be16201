package models

import "time"

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Priorities lists the accepted priority values.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a to-do item belonging to one user, optionally linked to an account.
type Task struct {
	ID          string     `gorm:"primaryKey;size:24" json:"_id"`
	CreatedAt   time.Time  `gorm:"index:idx_tasks_user_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	UserID      string     `gorm:"size:24;not null;index:idx_tasks_user_created,priority:1" json:"userId"`
	AccountID   *string    `gorm:"size:24;index" json:"accountId,omitempty"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"size:500" json:"description"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	Priority    string     `gorm:"size:8;not null;default:medium" json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// TaskUpdate carries the fields of a partial task update; nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	DueDate     *time.Time
	AccountID   *string
}

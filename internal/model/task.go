package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is a Kanban column. Any status may move to any other.
type TaskStatus string

const (
	StatusTodo  TaskStatus = "todo"
	StatusDoing TaskStatus = "doing"
	StatusDone  TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	return s == StatusTodo || s == StatusDoing || s == StatusDone
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// DevTask is a Kanban task. It is scoped either directly to a category
// (ProjectID nil) or to a project; in the latter case CategoryID mirrors the
// project's own category.
type DevTask struct {
	ID              string  `gorm:"primaryKey"`
	UserID          string  `gorm:"index"`
	CategoryID      *string `gorm:"index"`
	ProjectID       *string `gorm:"index"`
	Title           string
	Status          TaskStatus   `gorm:"default:todo"`
	Priority        TaskPriority `gorm:"default:medium"`
	DueDate         *time.Time
	OrderIndex      int
	CalendarEventID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (DevTask) TableName() string { return "dev_tasks" }

func (t *DevTask) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

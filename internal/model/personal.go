package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PersonalStatusPending = "pending"
	PersonalStatusDone    = "done"
)

// PersonalTask is a flat to-do item on the Personal deck.
type PersonalTask struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Title     string
	Status    string `gorm:"default:pending"`
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PersonalTask) TableName() string { return "personal_tasks" }

func (t *PersonalTask) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

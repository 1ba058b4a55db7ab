package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project always belongs to a category; tasks, notes and doubts may hang off it.
type Project struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	CategoryID string `gorm:"index"`
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Project) TableName() string { return "dev_projects" }

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

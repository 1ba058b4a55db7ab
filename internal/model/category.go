package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is the top level of the development hierarchy (work, study, side projects).
type Category struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	Name       string
	Color      string
	OrderIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Category) TableName() string { return "dev_categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

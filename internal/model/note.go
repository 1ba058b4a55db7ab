package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is free-form text attached to a category or project. Pinned notes sort first.
type Note struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	CategoryID *string `gorm:"index"`
	ProjectID  *string `gorm:"index"`
	Title      string
	Content    string
	IsPinned   bool `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Note) TableName() string { return "dev_notes" }

func (n *Note) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

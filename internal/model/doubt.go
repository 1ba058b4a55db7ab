package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Doubt is an open question. Resolving it is one-way; there is no unresolve.
type Doubt struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	CategoryID *string `gorm:"index"`
	ProjectID  *string `gorm:"index"`
	Question   string
	Resolved   bool `gorm:"default:false"`
	ResolvedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Doubt) TableName() string { return "dev_doubts" }

func (d *Doubt) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

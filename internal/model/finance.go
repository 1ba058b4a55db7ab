package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Expense is a single spend entry on the Finance deck.
type Expense struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index"`
	Description string
	Category    string
	Amount      float64
	Date        time.Time
	CreatedAt   time.Time
}

func (e *Expense) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Budget caps spending for one expense category; one row per user+category.
type Budget struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index:idx_user_budget_category,unique"`
	Category  string `gorm:"index:idx_user_budget_category,unique"`
	Amount    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Budget) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Habit is a recurring practice. Streak counters are derived from habit logs
// and persisted here so the dashboard can read them without a scan.
type Habit struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	Title         string
	Frequency     string `gorm:"default:daily"`
	TargetCount   int    `gorm:"default:1"`
	CurrentStreak int
	LongestStreak int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (h *Habit) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// HabitLog marks a habit done on one calendar day (CompletedDate is YYYY-MM-DD).
type HabitLog struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	HabitID       string `gorm:"index:idx_habit_date,unique"`
	CompletedDate string `gorm:"index:idx_habit_date,unique"`
	Count         int    `gorm:"default:1"`
	CreatedAt     time.Time
}

func (l *HabitLog) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

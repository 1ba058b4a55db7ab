package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JournalEntry is one dated free-text entry with an optional mood tag.
type JournalEntry struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Content   string
	Mood      string
	CreatedAt time.Time
}

func (JournalEntry) TableName() string { return "journal_entries" }

func (e *JournalEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

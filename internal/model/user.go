package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors an identity from the external auth provider. Subject is the
// provider's stable identifier; every other table is scoped by User.ID.
type User struct {
	ID             string `gorm:"primaryKey"`
	Subject        string `gorm:"uniqueIndex"`
	Name           string
	Email          string
	TelegramChatID int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

package model

import "time"

// CalendarToken holds one user's Google Calendar OAuth credentials.
type CalendarToken struct {
	UserID       string `gorm:"primaryKey"`
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}

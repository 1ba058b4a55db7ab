package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeos/internal/model"
)

// CalendarTokenRepository persists per-user Google Calendar OAuth tokens.
type CalendarTokenRepository struct {
	db *gorm.DB
}

func NewCalendarTokenRepository(db *gorm.DB) *CalendarTokenRepository {
	return &CalendarTokenRepository{db: db}
}

func (r *CalendarTokenRepository) Save(ctx context.Context, tok *model.CalendarToken) error {
	if err := r.db.WithContext(ctx).Save(tok).Error; err != nil {
		return fmt.Errorf("save calendar token: %w", err)
	}
	return nil
}

func (r *CalendarTokenRepository) Find(ctx context.Context, userID string) (*model.CalendarToken, error) {
	var tok model.CalendarToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

func (r *CalendarTokenRepository) Delete(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Delete(&model.CalendarToken{}).Error; err != nil {
		return fmt.Errorf("delete calendar token: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeos/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromSubject finds or creates a user for the identity provider's subject
// and refreshes basic profile fields when present.
func (r *UserRepository) UpsertFromSubject(ctx context.Context, subject, name, email string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("subject = ?", subject).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{}
		if name != "" {
			updates["name"] = name
		}
		if email != "" {
			updates["email"] = email
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
		}
		return &user, nil
	case err == gorm.ErrRecordNotFound:
		user = model.User{
			Subject: subject,
			Name:    name,
			Email:   email,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) FindBySubject(ctx context.Context, subject string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkTelegram stores the chat id used for daily digest delivery.
func (r *UserRepository) LinkTelegram(ctx context.Context, userID string, chatID int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("telegram_chat_id", chatID)
	if res.Error != nil {
		return fmt.Errorf("link telegram: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListWithTelegram returns users who linked a Telegram chat for digests.
func (r *UserRepository) ListWithTelegram(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_chat_id <> 0").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

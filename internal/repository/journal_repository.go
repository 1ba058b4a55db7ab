package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeos/internal/model"
)

// JournalRepository handles journal entries.
type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) List(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *JournalRepository) Create(ctx context.Context, e *model.JournalEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.JournalEntry{})
	if res.Error != nil {
		return fmt.Errorf("delete journal entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *JournalRepository) SearchEntries(ctx context.Context, userID, query string, limit int) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lower(content) LIKE ?", userID, likePattern(query)).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("search journal entries: %w", err)
	}
	return entries, nil
}

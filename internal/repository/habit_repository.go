package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeos/internal/model"
)

// HabitRepository handles habits and their per-day completion logs.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	var habits []model.Habit
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *HabitRepository) ListLogs(ctx context.Context, userID string) ([]model.HabitLog, error) {
	var logs []model.HabitLog
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ListLogsByDate returns the logs recorded on one calendar day (YYYY-MM-DD).
func (r *HabitRepository) ListLogsByDate(ctx context.Context, userID, date string) ([]model.HabitLog, error) {
	var logs []model.HabitLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed_date = ?", userID, date).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *HabitRepository) CreateHabit(ctx context.Context, h *model.Habit) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

// DeleteHabit removes a habit and its logs in one transaction.
func (r *HabitRepository) DeleteHabit(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND habit_id = ?", userID, id).
			Delete(&model.HabitLog{}).Error; err != nil {
			return fmt.Errorf("delete habit logs: %w", err)
		}
		res := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Habit{})
		if res.Error != nil {
			return fmt.Errorf("delete habit: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *HabitRepository) CreateLog(ctx context.Context, l *model.HabitLog) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("create habit log: %w", err)
	}
	return nil
}

func (r *HabitRepository) DeleteLog(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.HabitLog{})
	if res.Error != nil {
		return fmt.Errorf("delete habit log: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStreaks persists recomputed streak counters on the habit row.
func (r *HabitRepository) UpdateStreaks(ctx context.Context, userID, habitID string, current, longest int) (*model.Habit, error) {
	res := r.db.WithContext(ctx).Model(&model.Habit{}).
		Where("user_id = ? AND id = ?", userID, habitID).
		Updates(map[string]interface{}{
			"current_streak": current,
			"longest_streak": longest,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update streaks: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var h model.Habit
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, habitID).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HabitRepository) SearchHabits(ctx context.Context, userID, query string, limit int) ([]model.Habit, error) {
	var habits []model.Habit
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lower(title) LIKE ?", userID, likePattern(query)).
		Limit(limit).
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("search habits: %w", err)
	}
	return habits, nil
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeos/internal/model"
)

// PersonalRepository handles CRUD for the personal task deck.
type PersonalRepository struct {
	db *gorm.DB
}

func NewPersonalRepository(db *gorm.DB) *PersonalRepository {
	return &PersonalRepository{db: db}
}

func (r *PersonalRepository) List(ctx context.Context, userID string) ([]model.PersonalTask, error) {
	var tasks []model.PersonalTask
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("due_date NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *PersonalRepository) ListPending(ctx context.Context, userID string) ([]model.PersonalTask, error) {
	var tasks []model.PersonalTask
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, model.PersonalStatusDone).
		Order("due_date NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *PersonalRepository) Create(ctx context.Context, t *model.PersonalTask) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create personal task: %w", err)
	}
	return nil
}

func (r *PersonalRepository) Update(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.PersonalTask, error) {
	if len(patch) > 0 {
		res := r.db.WithContext(ctx).Model(&model.PersonalTask{}).
			Where("user_id = ? AND id = ?", userID, id).
			Updates(patch)
		if res.Error != nil {
			return nil, fmt.Errorf("update personal task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	var t model.PersonalTask
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PersonalRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.PersonalTask{})
	if res.Error != nil {
		return fmt.Errorf("delete personal task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PersonalRepository) SearchTasks(ctx context.Context, userID, query string, limit int) ([]model.PersonalTask, error) {
	var tasks []model.PersonalTask
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lower(title) LIKE ?", userID, likePattern(query)).
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("search personal tasks: %w", err)
	}
	return tasks, nil
}

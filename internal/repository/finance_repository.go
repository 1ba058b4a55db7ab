package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeos/internal/model"
)

// FinanceRepository handles expenses and budgets.
type FinanceRepository struct {
	db *gorm.DB
}

func NewFinanceRepository(db *gorm.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

func (r *FinanceRepository) ListExpenses(ctx context.Context, userID string) ([]model.Expense, error) {
	var expenses []model.Expense
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("date DESC").
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *FinanceRepository) CreateExpense(ctx context.Context, e *model.Expense) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (r *FinanceRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.Expense{})
	if res.Error != nil {
		return fmt.Errorf("delete expense: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *FinanceRepository) ListBudgets(ctx context.Context, userID string) ([]model.Budget, error) {
	var budgets []model.Budget
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

func (r *FinanceRepository) CreateBudget(ctx context.Context, b *model.Budget) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *FinanceRepository) UpdateBudgetAmount(ctx context.Context, userID, id string, amount float64) (*model.Budget, error) {
	res := r.db.WithContext(ctx).Model(&model.Budget{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("amount", amount)
	if res.Error != nil {
		return nil, fmt.Errorf("update budget: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var b model.Budget
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *FinanceRepository) SearchExpenses(ctx context.Context, userID, query string, limit int) ([]model.Expense, error) {
	var expenses []model.Expense
	like := likePattern(query)
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND (lower(description) LIKE ? OR lower(category) LIKE ?)", userID, like, like).
		Limit(limit).
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("search expenses: %w", err)
	}
	return expenses, nil
}

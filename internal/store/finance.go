package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeos/internal/model"
)

// FinanceRepository is the persistence surface the finance store needs.
type FinanceRepository interface {
	ListExpenses(ctx context.Context, userID string) ([]model.Expense, error)
	CreateExpense(ctx context.Context, e *model.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
	ListBudgets(ctx context.Context, userID string) ([]model.Budget, error)
	CreateBudget(ctx context.Context, b *model.Budget) error
	UpdateBudgetAmount(ctx context.Context, userID, id string, amount float64) (*model.Budget, error)
}

// Finance mirrors expenses and budgets for one principal's session.
type Finance struct {
	repo FinanceRepository
	log  *zap.Logger

	mu       sync.Mutex
	expenses []model.Expense
	budgets  []model.Budget
	loading  bool
	errMsg   string
}

func NewFinance(repo FinanceRepository, log *zap.Logger) *Finance {
	return &Finance{repo: repo, log: log}
}

func (s *Finance) Expenses() []model.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Expense(nil), s.expenses...)
}

func (s *Finance) Budgets() []model.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Budget(nil), s.budgets...)
}

func (s *Finance) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Finance) FetchData(ctx context.Context, userID string) {
	if userID == "" {
		s.setErr(ErrNotAuthenticated)
		return
	}
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	expenses, err := s.repo.ListExpenses(ctx, userID)
	var budgets []model.Budget
	if err == nil {
		budgets, err = s.repo.ListBudgets(ctx, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		s.log.Warn("finance fetch failed", zap.Error(err))
		return
	}
	s.expenses = expenses
	s.budgets = budgets
	s.errMsg = ""
}

type ExpenseInput struct {
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

func (s *Finance) AddExpense(ctx context.Context, userID string, in ExpenseInput) (*model.Expense, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	e := &model.Expense{
		UserID:      userID,
		Description: description,
		Category:    in.Category,
		Amount:      in.Amount,
		Date:        in.Date,
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	// Expenses display newest first.
	s.expenses = append([]model.Expense{*e}, s.expenses...)
	s.mu.Unlock()
	return e, nil
}

func (s *Finance) DeleteExpense(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateBudget creates or updates the budget row for a category.
func (s *Finance) UpdateBudget(ctx context.Context, userID, category string, amount float64) (*model.Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	s.mu.Lock()
	var existing *model.Budget
	for i := range s.budgets {
		if s.budgets[i].Category == category {
			b := s.budgets[i]
			existing = &b
			break
		}
	}
	s.mu.Unlock()

	if existing != nil {
		b, err := s.repo.UpdateBudgetAmount(ctx, userID, existing.ID, amount)
		if err != nil {
			return nil, s.setErr(err)
		}
		s.mu.Lock()
		for i := range s.budgets {
			if s.budgets[i].ID == b.ID {
				s.budgets[i] = *b
				break
			}
		}
		s.mu.Unlock()
		return b, nil
	}

	b := &model.Budget{UserID: userID, Category: category, Amount: amount}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return nil, s.setErr(err)
	}
	s.mu.Lock()
	s.budgets = append(s.budgets, *b)
	s.mu.Unlock()
	return b, nil
}

// TotalSpent sums all cached expenses.
func (s *Finance) TotalSpent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, e := range s.expenses {
		total += e.Amount
	}
	return total
}

// TotalBudget sums all cached budgets.
func (s *Finance) TotalBudget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, b := range s.budgets {
		total += b.Amount
	}
	return total
}

// CategorySpending sums expenses in one category.
func (s *Finance) CategorySpending(category string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, e := range s.expenses {
		if e.Category == category {
			total += e.Amount
		}
	}
	return total
}

func (s *Finance) setErr(err error) error {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.log.Warn("finance store operation failed", zap.Error(err))
	return err
}

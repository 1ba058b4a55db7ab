package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lifeos/internal/model"
)

// Per-domain result caps. Task-like domains get the larger budget; the sum
// bounds a query's aggregate result size.
const (
	capPrimary   = 5
	capSecondary = 3
)

// Domain labels and the deck each result navigates to.
const (
	domainPersonal    = "Personal"
	domainDevelopment = "Development"
	domainNote        = "Note"
	domainDoubt       = "Doubt"
	domainFinance     = "Finance"
	domainHabit       = "Habit"
	domainJournal     = "Journal"
)

type DevSearcher interface {
	SearchTasks(ctx context.Context, userID, query string, limit int) ([]model.DevTask, error)
	SearchNotes(ctx context.Context, userID, query string, limit int) ([]model.Note, error)
	SearchDoubts(ctx context.Context, userID, query string, limit int) ([]model.Doubt, error)
}

type PersonalSearcher interface {
	SearchTasks(ctx context.Context, userID, query string, limit int) ([]model.PersonalTask, error)
}

type FinanceSearcher interface {
	SearchExpenses(ctx context.Context, userID, query string, limit int) ([]model.Expense, error)
}

type HabitSearcher interface {
	SearchHabits(ctx context.Context, userID, query string, limit int) ([]model.Habit, error)
}

type JournalSearcher interface {
	SearchEntries(ctx context.Context, userID, query string, limit int) ([]model.JournalEntry, error)
}

type domain struct {
	label string
	run   func(ctx context.Context, userID, query string) ([]Result, error)
}

// Remote issues live scoped queries against the record store, one per domain,
// concurrently. A domain that fails contributes nothing; the rest still
// answer, so the caller always gets the surviving subset.
type Remote struct {
	domains []domain
	log     *zap.Logger
}

func NewRemote(personal PersonalSearcher, dev DevSearcher, finance FinanceSearcher, habits HabitSearcher, journal JournalSearcher, log *zap.Logger) *Remote {
	return &Remote{
		log: log,
		domains: []domain{
			{domainPersonal, func(ctx context.Context, userID, q string) ([]Result, error) {
				tasks, err := personal.SearchTasks(ctx, userID, q, capPrimary)
				if err != nil {
					return nil, err
				}
				out := make([]Result, 0, len(tasks))
				for _, t := range tasks {
					out = append(out, Result{Domain: domainPersonal, ID: t.ID, Title: t.Title, Target: "/personal"})
				}
				return out, nil
			}},
			{domainDevelopment, func(ctx context.Context, userID, q string) ([]Result, error) {
				tasks, err := dev.SearchTasks(ctx, userID, q, capPrimary)
				if err != nil {
					return nil, err
				}
				out := make([]Result, 0, len(tasks))
				for _, t := range tasks {
					out = append(out, Result{Domain: domainDevelopment, ID: t.ID, Title: t.Title, Subtitle: string(t.Status), Target: "/development"})
				}
				return out, nil
			}},
			{domainNote, func(ctx context.Context, userID, q string) ([]Result, error) {
				notes, err := dev.SearchNotes(ctx, userID, q, capSecondary)
				if err != nil {
					return nil, err
				}
				out := make([]Result, 0, len(notes))
				for _, n := range notes {
					out = append(out, Result{Domain: domainNote, ID: n.ID, Title: n.Title, Subtitle: snippet(n.Content), Target: "/development"})
				}
				return out, nil
			}},
			{domainDoubt, func(ctx context.Context, userID, q string) ([]Result, error) {
				doubts, err := dev.SearchDoubts(ctx, userID, q, capSecondary)
				if err != nil {
					return nil, err
				}
				out := make([]Result, 0, len(doubts))
				for _, d := range doubts {
					out = append(out, Result{Domain: domainDoubt, ID: d.ID, Title: d.Question, Target: "/development"})
				}
				return out, nil
			}},
			{domainFinance, func(ctx context.Context, userID, q string) ([]Result, error) {
				expenses, err := finance.SearchExpenses(ctx, userID, q, capSecondary)
				if err != nil {
					return nil, err
				}
				out := make([]Result, 0, len(expenses))
				for _, e := range expenses {
					out = append(out, Result{
						Domain:   domainFinance,
						ID:       e.ID,
						Title:    e.Description,
						Subtitle: fmt.Sprintf("$%.2f · %s", e.Amount, e.Category),
						Target:   "/finance",
					})
				}
				return out, nil
			}},
			{domainHabit, func(ctx context.Context, userID, q string) ([]Result, error) {
				matched, err := habits.SearchHabits(ctx, userID, q, capSecondary)
				if err != nil {
					return nil, err
				}
				out := make([]Result, 0, len(matched))
				for _, h := range matched {
					out = append(out, Result{Domain: domainHabit, ID: h.ID, Title: h.Title, Target: "/habits"})
				}
				return out, nil
			}},
			{domainJournal, func(ctx context.Context, userID, q string) ([]Result, error) {
				entries, err := journal.SearchEntries(ctx, userID, q, capSecondary)
				if err != nil {
					return nil, err
				}
				out := make([]Result, 0, len(entries))
				for _, e := range entries {
					out = append(out, Result{
						Domain:   domainJournal,
						ID:       e.ID,
						Title:    snippet(e.Content),
						Subtitle: e.CreatedAt.Format("2006-01-02"),
						Target:   "/journal",
					})
				}
				return out, nil
			}},
		},
	}
}

// Search fans out to every domain and concatenates whatever succeeded, in
// domain order. Per-domain errors are logged, never propagated.
func (r *Remote) Search(ctx context.Context, userID, query string) ([]Result, error) {
	buckets := make([][]Result, len(r.domains))
	g, ctx := errgroup.WithContext(ctx)
	for i, d := range r.domains {
		i, d := i, d
		g.Go(func() error {
			results, err := d.run(ctx, userID, query)
			if err != nil {
				r.log.Warn("search domain failed",
					zap.String("domain", d.label),
					zap.Error(err))
				return nil
			}
			buckets[i] = results
			return nil
		})
	}
	_ = g.Wait()

	out := []Result{}
	for _, bucket := range buckets {
		out = append(out, bucket...)
	}
	return out, nil
}

func snippet(content string) string {
	const max = 30
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "…"
}

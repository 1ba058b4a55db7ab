package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeos/internal/model"
)

// DateLayout is the calendar-day format used by habit logs.
const DateLayout = "2006-01-02"

// HabitRepository is the persistence surface the habits store needs.
type HabitRepository interface {
	ListHabits(ctx context.Context, userID string) ([]model.Habit, error)
	ListLogs(ctx context.Context, userID string) ([]model.HabitLog, error)
	CreateHabit(ctx context.Context, h *model.Habit) error
	DeleteHabit(ctx context.Context, userID, id string) error
	CreateLog(ctx context.Context, l *model.HabitLog) error
	DeleteLog(ctx context.Context, userID, id string) error
	UpdateStreaks(ctx context.Context, userID, habitID string, current, longest int) (*model.Habit, error)
}

// Habits mirrors habits and their completion logs for one principal's session.
// Toggling a date recomputes the habit's streak counters from the logs.
type Habits struct {
	repo HabitRepository
	log  *zap.Logger

	mu      sync.Mutex
	habits  []model.Habit
	logs    []model.HabitLog
	loading bool
	errMsg  string
}

func NewHabits(repo HabitRepository, log *zap.Logger) *Habits {
	return &Habits{repo: repo, log: log}
}

func (s *Habits) Habits() []model.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Habit(nil), s.habits...)
}

func (s *Habits) Logs() []model.HabitLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.HabitLog(nil), s.logs...)
}

// HabitLogs returns the cached logs for one habit.
func (s *Habits) HabitLogs(habitID string) []model.HabitLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.HabitLog
	for _, l := range s.logs {
		if l.HabitID == habitID {
			out = append(out, l)
		}
	}
	return out
}

func (s *Habits) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Habits) FetchHabits(ctx context.Context, userID string) {
	if userID == "" {
		s.setErr(ErrNotAuthenticated)
		return
	}
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	habits, err := s.repo.ListHabits(ctx, userID)
	var logs []model.HabitLog
	if err == nil {
		logs, err = s.repo.ListLogs(ctx, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		s.log.Warn("habits fetch failed", zap.Error(err))
		return
	}
	s.habits = habits
	s.logs = logs
	s.errMsg = ""
}

func (s *Habits) AddHabit(ctx context.Context, userID, title, frequency string) (*model.Habit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	if frequency == "" {
		frequency = "daily"
	}

	h := &model.Habit{
		UserID:      userID,
		Title:       title,
		Frequency:   frequency,
		TargetCount: 1,
	}
	if err := s.repo.CreateHabit(ctx, h); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	// Habits display newest first.
	s.habits = append([]model.Habit{*h}, s.habits...)
	s.mu.Unlock()
	return h, nil
}

func (s *Habits) DeleteHabit(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.DeleteHabit(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	habits := s.habits[:0]
	for _, h := range s.habits {
		if h.ID != id {
			habits = append(habits, h)
		}
	}
	s.habits = habits
	logs := s.logs[:0]
	for _, l := range s.logs {
		if l.HabitID != id {
			logs = append(logs, l)
		}
	}
	s.logs = logs
	return nil
}

// ToggleHabit marks a habit done on one day, or undoes it when a log already
// exists for that day, then recomputes and persists the streak counters.
func (s *Habits) ToggleHabit(ctx context.Context, userID, habitID, date string) (*model.Habit, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	known := false
	for i := range s.habits {
		if s.habits[i].ID == habitID {
			known = true
			break
		}
	}
	s.mu.Unlock()
	if !known {
		return nil, s.setErr(fmt.Errorf("unknown habit %q", habitID))
	}

	s.mu.Lock()
	var existing *model.HabitLog
	for i := range s.logs {
		if s.logs[i].HabitID == habitID && s.logs[i].CompletedDate == date {
			l := s.logs[i]
			existing = &l
			break
		}
	}
	s.mu.Unlock()

	if existing != nil {
		if err := s.repo.DeleteLog(ctx, userID, existing.ID); err != nil {
			return nil, s.setErr(err)
		}
		s.mu.Lock()
		logs := s.logs[:0]
		for _, l := range s.logs {
			if l.ID != existing.ID {
				logs = append(logs, l)
			}
		}
		s.logs = logs
		s.mu.Unlock()
	} else {
		l := &model.HabitLog{
			UserID:        userID,
			HabitID:       habitID,
			CompletedDate: date,
			Count:         1,
		}
		if err := s.repo.CreateLog(ctx, l); err != nil {
			return nil, s.setErr(err)
		}
		s.mu.Lock()
		s.logs = append(s.logs, *l)
		s.mu.Unlock()
	}

	current, longest := s.streaksFor(habitID, time.Now().Format(DateLayout))
	h, err := s.repo.UpdateStreaks(ctx, userID, habitID, current, longest)
	if err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	for i := range s.habits {
		if s.habits[i].ID == h.ID {
			s.habits[i] = *h
			break
		}
	}
	s.mu.Unlock()
	return h, nil
}

func (s *Habits) streaksFor(habitID, today string) (int, int) {
	s.mu.Lock()
	var dates []string
	for _, l := range s.logs {
		if l.HabitID == habitID {
			dates = append(dates, l.CompletedDate)
		}
	}
	s.mu.Unlock()
	return computeStreaks(dates, today)
}

// computeStreaks derives the current and longest consecutive-day runs from a
// habit's completion dates. The current streak counts back from today, or from
// yesterday when today is not yet logged.
func computeStreaks(dates []string, today string) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	days := make(map[string]struct{}, len(dates))
	var parsed []time.Time
	for _, d := range dates {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			continue
		}
		if _, dup := days[d]; dup {
			continue
		}
		days[d] = struct{}{}
		parsed = append(parsed, t)
	}
	if len(parsed) == 0 {
		return 0, 0
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(parsed); i++ {
		if parsed[i].Sub(parsed[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	now, err := time.Parse(DateLayout, today)
	if err != nil {
		return 0, longest
	}
	anchor := now
	if _, ok := days[anchor.Format(DateLayout)]; !ok {
		anchor = anchor.AddDate(0, 0, -1)
		if _, ok := days[anchor.Format(DateLayout)]; !ok {
			return 0, longest
		}
	}
	for {
		if _, ok := days[anchor.Format(DateLayout)]; !ok {
			break
		}
		current++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return current, longest
}

func (s *Habits) setErr(err error) error {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.log.Warn("habits store operation failed", zap.Error(err))
	return err
}

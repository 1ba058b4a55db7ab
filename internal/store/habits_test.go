package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lifeos/internal/model"
)

type fakeHabitRepo struct {
	mu     sync.Mutex
	habits []model.Habit
	logs   []model.HabitLog
	fail   bool
	nextID int
}

func (f *fakeHabitRepo) id() string {
	f.nextID++
	return fmt.Sprintf("h-%d", f.nextID)
}

func (f *fakeHabitRepo) ListHabits(_ context.Context, _ string) ([]model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	return append([]model.Habit(nil), f.habits...), nil
}

func (f *fakeHabitRepo) ListLogs(_ context.Context, _ string) ([]model.HabitLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	return append([]model.HabitLog(nil), f.logs...), nil
}

func (f *fakeHabitRepo) CreateHabit(_ context.Context, h *model.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	h.ID = f.id()
	f.habits = append(f.habits, *h)
	return nil
}

func (f *fakeHabitRepo) DeleteHabit(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	for i, h := range f.habits {
		if h.ID == id {
			f.habits = append(f.habits[:i], f.habits[i+1:]...)
			var logs []model.HabitLog
			for _, l := range f.logs {
				if l.HabitID != id {
					logs = append(logs, l)
				}
			}
			f.logs = logs
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeHabitRepo) CreateLog(_ context.Context, l *model.HabitLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	l.ID = f.id()
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeHabitRepo) DeleteLog(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	for i, l := range f.logs {
		if l.ID == id {
			f.logs = append(f.logs[:i], f.logs[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeHabitRepo) UpdateStreaks(_ context.Context, _, habitID string, current, longest int) (*model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	for i := range f.habits {
		if f.habits[i].ID == habitID {
			f.habits[i].CurrentStreak = current
			f.habits[i].LongestStreak = longest
			h := f.habits[i]
			return &h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func newHabitStore(t *testing.T) (*Habits, *fakeHabitRepo) {
	t.Helper()
	repo := &fakeHabitRepo{}
	return NewHabits(repo, zap.NewNop()), repo
}

func day(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format(DateLayout)
}

func TestAddHabitDefaultsToDaily(t *testing.T) {
	s, _ := newHabitStore(t)

	h, err := s.AddHabit(context.Background(), testUser, "read", "")
	require.NoError(t, err)
	assert.Equal(t, "daily", h.Frequency)
	assert.Equal(t, 1, h.TargetCount)
}

func TestAddHabitEmptyTitleIsNoOp(t *testing.T) {
	s, repo := newHabitStore(t)

	h, err := s.AddHabit(context.Background(), testUser, "  ", "daily")
	assert.NoError(t, err)
	assert.Nil(t, h)
	assert.Empty(t, repo.habits)
}

func TestToggleHabitCreatesAndRemovesLog(t *testing.T) {
	s, repo := newHabitStore(t)
	ctx := context.Background()

	h, err := s.AddHabit(ctx, testUser, "run", "daily")
	require.NoError(t, err)

	today := day(0)
	toggled, err := s.ToggleHabit(ctx, testUser, h.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, toggled.CurrentStreak)
	assert.Len(t, repo.logs, 1)

	toggled, err = s.ToggleHabit(ctx, testUser, h.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 0, toggled.CurrentStreak)
	assert.Empty(t, repo.logs)
}

func TestToggleHabitUnknownHabit(t *testing.T) {
	s, _ := newHabitStore(t)

	_, err := s.ToggleHabit(context.Background(), testUser, "ghost", day(0))
	assert.Error(t, err)
	assert.Contains(t, s.Err(), "unknown habit")
}

func TestToggleHabitRejectsBadDate(t *testing.T) {
	s, _ := newHabitStore(t)
	ctx := context.Background()

	h, err := s.AddHabit(ctx, testUser, "run", "daily")
	require.NoError(t, err)

	_, err = s.ToggleHabit(ctx, testUser, h.ID, "yesterday")
	assert.Error(t, err)
}

func TestToggleHabitBuildsStreakAcrossDays(t *testing.T) {
	s, _ := newHabitStore(t)
	ctx := context.Background()

	h, err := s.AddHabit(ctx, testUser, "write", "daily")
	require.NoError(t, err)

	for _, offset := range []int{-2, -1, 0} {
		_, err := s.ToggleHabit(ctx, testUser, h.ID, day(offset))
		require.NoError(t, err)
	}

	habits := s.Habits()
	require.Len(t, habits, 1)
	assert.Equal(t, 3, habits[0].CurrentStreak)
	assert.Equal(t, 3, habits[0].LongestStreak)
}

func TestDeleteHabitDropsItsLogs(t *testing.T) {
	s, _ := newHabitStore(t)
	ctx := context.Background()

	h, err := s.AddHabit(ctx, testUser, "run", "daily")
	require.NoError(t, err)
	_, err = s.ToggleHabit(ctx, testUser, h.ID, day(0))
	require.NoError(t, err)

	require.NoError(t, s.DeleteHabit(ctx, testUser, h.ID))
	assert.Empty(t, s.Habits())
	assert.Empty(t, s.Logs())
}

func TestComputeStreaks(t *testing.T) {
	today := "2026-08-28"

	tests := []struct {
		name    string
		dates   []string
		current int
		longest int
	}{
		{"no logs", nil, 0, 0},
		{"single today", []string{"2026-08-28"}, 1, 1},
		{"run ending today", []string{"2026-08-26", "2026-08-27", "2026-08-28"}, 3, 3},
		{"run ending yesterday still counts", []string{"2026-08-26", "2026-08-27"}, 2, 2},
		{"broken run", []string{"2026-08-20", "2026-08-21", "2026-08-27", "2026-08-28"}, 2, 2},
		{"longest in the past", []string{"2026-08-10", "2026-08-11", "2026-08-12", "2026-08-28"}, 1, 3},
		{"stale run", []string{"2026-08-20", "2026-08-21", "2026-08-22"}, 0, 3},
		{"duplicates ignored", []string{"2026-08-28", "2026-08-28", "2026-08-27"}, 2, 2},
		{"unparseable dates skipped", []string{"garbage", "2026-08-28"}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := computeStreaks(tt.dates, today)
			assert.Equal(t, tt.current, current, "current")
			assert.Equal(t, tt.longest, longest, "longest")
		})
	}
}

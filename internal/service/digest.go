// Package service holds the background-side logic: the daily digest builder
// and the cron scheduler that delivers it.
package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"lifeos/internal/model"
	"lifeos/internal/store"
)

// Notifier delivers one message to a chat.
type Notifier interface {
	Send(chatID int64, text string) error
}

type digestUserRepo interface {
	ListWithTelegram(ctx context.Context) ([]model.User, error)
}

type digestPersonalRepo interface {
	ListPending(ctx context.Context, userID string) ([]model.PersonalTask, error)
}

type digestDevRepo interface {
	ListOpenTasksDueBy(ctx context.Context, userID string, before time.Time) ([]model.DevTask, error)
	CountUnresolvedDoubts(ctx context.Context, userID string) (int64, error)
}

type digestHabitRepo interface {
	ListHabits(ctx context.Context, userID string) ([]model.Habit, error)
	ListLogsByDate(ctx context.Context, userID, date string) ([]model.HabitLog, error)
}

// DigestService builds the morning summary pushed to linked Telegram chats:
// pending personal tasks, dev tasks due today or overdue, open doubts and
// habits still unchecked for the day.
type DigestService struct {
	users    digestUserRepo
	personal digestPersonalRepo
	dev      digestDevRepo
	habits   digestHabitRepo
	notifier Notifier
	log      *zap.Logger
}

func NewDigestService(users digestUserRepo, personal digestPersonalRepo, dev digestDevRepo, habits digestHabitRepo, notifier Notifier, log *zap.Logger) *DigestService {
	return &DigestService{
		users:    users,
		personal: personal,
		dev:      dev,
		habits:   habits,
		notifier: notifier,
		log:      log,
	}
}

// Broadcast sends the digest to every user with a linked chat. A failure for
// one user does not stop delivery to the rest.
func (s *DigestService) Broadcast(ctx context.Context, now time.Time) error {
	users, err := s.users.ListWithTelegram(ctx)
	if err != nil {
		return fmt.Errorf("list digest recipients: %w", err)
	}

	for _, user := range users {
		text, err := s.Summary(ctx, user, now)
		if err != nil {
			s.log.Warn("digest build failed", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
		if err := s.notifier.Send(user.TelegramChatID, text); err != nil {
			s.log.Warn("digest send failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// Summary renders one user's digest as Telegram HTML.
func (s *DigestService) Summary(ctx context.Context, user model.User, now time.Time) (string, error) {
	pending, err := s.personal.ListPending(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("list pending tasks: %w", err)
	}

	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	devDue, err := s.dev.ListOpenTasksDueBy(ctx, user.ID, endOfDay)
	if err != nil {
		return "", fmt.Errorf("list due dev tasks: %w", err)
	}

	doubts, err := s.dev.CountUnresolvedDoubts(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("count doubts: %w", err)
	}

	habits, err := s.habits.ListHabits(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("list habits: %w", err)
	}
	logs, err := s.habits.ListLogsByDate(ctx, user.ID, now.Format(store.DateLayout))
	if err != nil {
		return "", fmt.Errorf("list habit logs: %w", err)
	}
	doneToday := make(map[string]bool, len(logs))
	for _, l := range logs {
		doneToday[l.HabitID] = true
	}
	var unchecked []model.Habit
	for _, h := range habits {
		if !doneToday[h.ID] {
			unchecked = append(unchecked, h)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		switch {
		case pending[i].DueDate == nil && pending[j].DueDate == nil:
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		case pending[i].DueDate == nil:
			return false
		case pending[j].DueDate == nil:
			return true
		default:
			return pending[i].DueDate.Before(*pending[j].DueDate)
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>LifeOS daily digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("✅ <b>Personal tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing pending\n")
	} else {
		for _, task := range pending {
			builder.WriteString(formatPersonalTask(task, now))
		}
	}

	builder.WriteString("\n🛠 <b>Dev tasks due</b>\n")
	if len(devDue) == 0 {
		builder.WriteString("— nothing due today\n")
	} else {
		for _, task := range devDue {
			builder.WriteString(formatDevTask(task, now))
		}
	}

	if doubts > 0 {
		builder.WriteString(fmt.Sprintf("\n❓ <b>%d unresolved doubt(s)</b>\n", doubts))
	}

	builder.WriteString("\n🔁 <b>Habits to check off</b>\n")
	if len(unchecked) == 0 {
		builder.WriteString("— all done, keep the streaks alive\n")
	} else {
		for _, h := range unchecked {
			builder.WriteString(formatHabit(h))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatPersonalTask(task model.PersonalTask, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		switch {
		case now.After(d):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf(" · due %s, <b>overdue</b>", d.Format("2006-01-02")))
		} else {
			sb.WriteString(fmt.Sprintf(" · due %s", d.Format("2006-01-02")))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatDevTask(task model.DevTask, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("• %s <i>[%s]</i>", html.EscapeString(strings.TrimSpace(task.Title)), task.Status))
	if task.DueDate != nil && now.After(*task.DueDate) {
		sb.WriteString(" · <b>overdue</b>")
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatHabit(h model.Habit) string {
	if h.CurrentStreak > 0 {
		return fmt.Sprintf("• %s 🔥%d\n", html.EscapeString(h.Title), h.CurrentStreak)
	}
	return fmt.Sprintf("• %s\n", html.EscapeString(h.Title))
}

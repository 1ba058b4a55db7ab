package server

import (
	"net/http"
	"time"

	"lifeos/internal/model"
)

type habitStreak struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

type dashboardResponse struct {
	PersonalPending  int                 `json:"personal_pending"`
	DevPending       int                 `json:"dev_pending"`
	DueTodayOverdue  []model.DevTask     `json:"due_today_overdue"`
	TotalSpent       float64             `json:"total_spent"`
	TotalBudget      float64             `json:"total_budget"`
	HabitStreaks     []habitStreak       `json:"habit_streaks"`
	LatestEntry      *model.JournalEntry `json:"latest_entry,omitempty"`
	UnresolvedDoubts int                 `json:"unresolved_doubts"`
}

// handleDashboard refreshes every deck and composes the landing-page summary
// from the store selectors.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	ctx := r.Context()
	userID := sess.User.ID

	sess.Development.FetchAll(ctx, userID)
	sess.Personal.FetchTasks(ctx, userID)
	sess.Finance.FetchData(ctx, userID)
	sess.Habits.FetchHabits(ctx, userID)
	sess.Journal.FetchEntries(ctx, userID)

	now := time.Now()

	resp := dashboardResponse{
		PersonalPending: sess.Personal.PendingCount(),
		DevPending:      sess.Development.PendingTaskCount(),
		DueTodayOverdue: sess.Development.DueTodayOrOverdue(now),
		TotalSpent:      sess.Finance.TotalSpent(),
		TotalBudget:     sess.Finance.TotalBudget(),
	}

	for _, h := range sess.Habits.Habits() {
		resp.HabitStreaks = append(resp.HabitStreaks, habitStreak{
			ID:            h.ID,
			Title:         h.Title,
			CurrentStreak: h.CurrentStreak,
			LongestStreak: h.LongestStreak,
		})
	}

	if entries := sess.Journal.Entries(); len(entries) > 0 {
		resp.LatestEntry = &entries[0]
	}

	for _, d := range sess.Development.Doubts() {
		if !d.Resolved {
			resp.UnresolvedDoubts++
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

package server

import (
	"net/http"
	"time"

	"lifeos/internal/store"
)

// Personal deck

func (s *Server) handleListPersonal(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	sess.Personal.FetchTasks(r.Context(), sess.User.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": sess.Personal.Tasks(),
		"error": sess.Personal.Err(),
	})
}

func (s *Server) handleAddPersonal(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.PersonalTaskInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	t, err := sess.Personal.AddTask(r.Context(), sess.User.ID, in)
	created(w, t, t == nil, err)
}

func (s *Server) handleTogglePersonal(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	t, err := sess.Personal.ToggleTask(r.Context(), sess.User.ID, r.PathValue("id"), req.Status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeletePersonal(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Personal.DeleteTask(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Finance deck

func (s *Server) handleFinanceData(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	sess.Finance.FetchData(r.Context(), sess.User.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"expenses":     sess.Finance.Expenses(),
		"budgets":      sess.Finance.Budgets(),
		"total_spent":  sess.Finance.TotalSpent(),
		"total_budget": sess.Finance.TotalBudget(),
		"error":        sess.Finance.Err(),
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.ExpenseInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	e, err := sess.Finance.AddExpense(r.Context(), sess.User.ID, in)
	created(w, e, e == nil, err)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Finance.DeleteExpense(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	b, err := sess.Finance.UpdateBudget(r.Context(), sess.User.ID, r.PathValue("category"), req.Amount)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if b == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Habits deck

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	sess.Habits.FetchHabits(r.Context(), sess.User.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"habits": sess.Habits.Habits(),
		"logs":   sess.Habits.Logs(),
		"error":  sess.Habits.Err(),
	})
}

func (s *Server) handleAddHabit(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var req struct {
		Title     string `json:"title"`
		Frequency string `json:"frequency"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	h, err := sess.Habits.AddHabit(r.Context(), sess.User.ID, req.Title, req.Frequency)
	created(w, h, h == nil, err)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Habits.DeleteHabit(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleHabit flips the habit's completion for a day, defaulting to
// today, and returns the habit with recomputed streaks.
func (s *Server) handleToggleHabit(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var req struct {
		Date string `json:"date"`
	}
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
			return
		}
	}
	if req.Date == "" {
		req.Date = time.Now().Format(store.DateLayout)
	}
	h, err := sess.Habits.ToggleHabit(r.Context(), sess.User.ID, r.PathValue("id"), req.Date)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// Journal deck

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	sess.Journal.FetchEntries(r.Context(), sess.User.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": sess.Journal.Entries(),
		"error":   sess.Journal.Err(),
	})
}

func (s *Server) handleAddJournal(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.JournalEntryInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	e, err := sess.Journal.AddEntry(r.Context(), sess.User.ID, in)
	created(w, e, e == nil, err)
}

func (s *Server) handleDeleteJournal(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Journal.DeleteEntry(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Profile

func (s *Server) handleLinkTelegram(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var req struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	if req.ChatID == 0 {
		writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}
	if err := s.users.LinkTelegram(r.Context(), sess.User.ID, req.ChatID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

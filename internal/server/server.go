// Package server exposes the LifeOS decks over a JSON REST API. Every request
// is scoped to a principal resolved from the bearer token; each principal gets
// a session holding its deck stores and searcher.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lifeos/internal/calendar"
	"lifeos/internal/repository"
)

type ctxKey int

const sessionKey ctxKey = 0

// Server wires the session registry, calendar bridge and route table.
type Server struct {
	sessions *Sessions
	users    *repository.UserRepository
	calendar *calendar.Bridge
	log      *zap.Logger
	mux      *http.ServeMux
}

func New(sessions *Sessions, users *repository.UserRepository, bridge *calendar.Bridge, log *zap.Logger) *Server {
	s := &Server{
		sessions: sessions,
		users:    users,
		calendar: bridge,
		log:      log,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.log.Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Duration("took", time.Since(start)))
}

func (s *Server) routes() {
	auth := s.authenticated

	// development deck
	s.mux.Handle("GET /api/dev", auth(s.handleDevSnapshot))
	s.mux.Handle("PUT /api/dev/selection", auth(s.handleDevSelection))
	s.mux.Handle("POST /api/dev/categories", auth(s.handleAddCategory))
	s.mux.Handle("PATCH /api/dev/categories/{id}", auth(s.handleUpdateCategory))
	s.mux.Handle("DELETE /api/dev/categories/{id}", auth(s.handleDeleteCategory))
	s.mux.Handle("POST /api/dev/projects", auth(s.handleAddProject))
	s.mux.Handle("PATCH /api/dev/projects/{id}", auth(s.handleUpdateProject))
	s.mux.Handle("DELETE /api/dev/projects/{id}", auth(s.handleDeleteProject))
	s.mux.Handle("POST /api/dev/tasks", auth(s.handleAddTask))
	s.mux.Handle("PATCH /api/dev/tasks/{id}", auth(s.handleUpdateTask))
	s.mux.Handle("POST /api/dev/tasks/{id}/move", auth(s.handleMoveTask))
	s.mux.Handle("POST /api/dev/tasks/{id}/calendar", auth(s.handlePushTaskToCalendar))
	s.mux.Handle("DELETE /api/dev/tasks/{id}", auth(s.handleDeleteTask))
	s.mux.Handle("POST /api/dev/notes", auth(s.handleAddNote))
	s.mux.Handle("PATCH /api/dev/notes/{id}", auth(s.handleUpdateNote))
	s.mux.Handle("DELETE /api/dev/notes/{id}", auth(s.handleDeleteNote))
	s.mux.Handle("POST /api/dev/doubts", auth(s.handleAddDoubt))
	s.mux.Handle("POST /api/dev/doubts/{id}/resolve", auth(s.handleResolveDoubt))
	s.mux.Handle("DELETE /api/dev/doubts/{id}", auth(s.handleDeleteDoubt))

	// personal deck
	s.mux.Handle("GET /api/personal/tasks", auth(s.handleListPersonal))
	s.mux.Handle("POST /api/personal/tasks", auth(s.handleAddPersonal))
	s.mux.Handle("PATCH /api/personal/tasks/{id}", auth(s.handleTogglePersonal))
	s.mux.Handle("DELETE /api/personal/tasks/{id}", auth(s.handleDeletePersonal))

	// finance deck
	s.mux.Handle("GET /api/finance", auth(s.handleFinanceData))
	s.mux.Handle("POST /api/finance/expenses", auth(s.handleAddExpense))
	s.mux.Handle("DELETE /api/finance/expenses/{id}", auth(s.handleDeleteExpense))
	s.mux.Handle("PUT /api/finance/budgets/{category}", auth(s.handleUpdateBudget))

	// habits deck
	s.mux.Handle("GET /api/habits", auth(s.handleListHabits))
	s.mux.Handle("POST /api/habits", auth(s.handleAddHabit))
	s.mux.Handle("DELETE /api/habits/{id}", auth(s.handleDeleteHabit))
	s.mux.Handle("POST /api/habits/{id}/toggle", auth(s.handleToggleHabit))

	// journal deck
	s.mux.Handle("GET /api/journal/entries", auth(s.handleListJournal))
	s.mux.Handle("POST /api/journal/entries", auth(s.handleAddJournal))
	s.mux.Handle("DELETE /api/journal/entries/{id}", auth(s.handleDeleteJournal))

	// cross-domain search
	s.mux.Handle("GET /api/search", auth(s.handleSearch))

	// calendar bridge
	s.mux.Handle("GET /api/calendar/auth-url", auth(s.handleCalendarAuthURL))
	s.mux.Handle("GET /api/calendar/callback", auth(s.handleCalendarCallback))
	s.mux.Handle("GET /api/calendar/events", auth(s.handleListEvents))
	s.mux.Handle("POST /api/calendar/events", auth(s.handleCreateEvent))
	s.mux.Handle("PATCH /api/calendar/events/{id}", auth(s.handleUpdateEvent))
	s.mux.Handle("DELETE /api/calendar/events/{id}", auth(s.handleDeleteEvent))
	s.mux.Handle("POST /api/calendar/signout", auth(s.handleCalendarSignOut))

	// dashboard and profile
	s.mux.Handle("GET /api/dashboard", auth(s.handleDashboard))
	s.mux.Handle("POST /api/profile/telegram", auth(s.handleLinkTelegram))
}

// authenticated resolves the bearer token to a user row, upserting on first
// sight, and attaches the principal's session to the request context.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := bearerSubject(r)
		if subject == "" {
			writeError(w, http.StatusUnauthorized, "no authenticated user")
			return
		}

		user, err := s.users.UpsertFromSubject(r.Context(), subject,
			r.Header.Get("X-User-Name"), r.Header.Get("X-User-Email"))
		if err != nil {
			s.log.Error("user upsert failed", zap.String("subject", subject), zap.Error(err))
			writeError(w, http.StatusBadGateway, "resolve user: "+err.Error())
			return
		}

		sess := s.sessions.Get(user)
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next(w, r.WithContext(ctx))
	})
}

func bearerSubject(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func session(r *http.Request) *Session {
	return r.Context().Value(sessionKey).(*Session)
}

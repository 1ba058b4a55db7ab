package server

import (
	"net/http"
	"strconv"
	"time"

	"lifeos/internal/calendar"
)

func (s *Server) handleCalendarAuthURL(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"url": s.calendar.AuthURL(sess.User.ID),
	})
}

// handleCalendarCallback finishes the OAuth dance. Google redirects here with
// the one-time code; the state carries the user id from AuthURL.
func (s *Server) handleCalendarCallback(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}
	if err := s.calendar.Exchange(r.Context(), sess.User.ID, code); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": true})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	sess := session(r)

	var timeMin time.Time
	if raw := r.URL.Query().Get("time_min"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid time_min: "+err.Error())
			return
		}
		timeMin = parsed
	}
	maxResults := int64(0)
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_results: "+err.Error())
			return
		}
		maxResults = n
	}

	events, err := s.calendar.ListEvents(r.Context(), sess.User.ID, timeMin, maxResults)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var desc calendar.EventDescriptor
	if err := decode(r, &desc); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	event, err := s.calendar.CreateEvent(r.Context(), sess.User.ID, desc)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var desc calendar.EventDescriptor
	if err := decode(r, &desc); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	event, err := s.calendar.UpdateEvent(r.Context(), sess.User.ID, r.PathValue("id"), desc)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := s.calendar.DeleteEvent(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCalendarSignOut(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := s.calendar.SignOut(r.Context(), sess.User.ID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

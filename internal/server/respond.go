package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"lifeos/internal/calendar"
	"lifeos/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// errStatus maps a store/backend error onto an HTTP status. Backend failures
// read as a bad gateway because the record store, not this server, refused.
func errStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, calendar.ErrNotConnected):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	writeError(w, errStatus(err), err.Error())
}

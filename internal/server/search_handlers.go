package server

import (
	"errors"
	"net/http"

	"lifeos/internal/search"
)

type searchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// handleSearch funnels the query through the session searcher, so the server
// side gets the same debounce and supersession behavior the dashboard's search
// bar has. A request whose generation loses to a newer keystroke answers 409.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	query := r.URL.Query().Get("q")

	done := sess.Searcher.Submit(r.Context(), sess.User.ID, query)
	select {
	case outcome := <-done:
		if outcome.Err != nil {
			if errors.Is(outcome.Err, search.ErrSuperseded) {
				writeError(w, http.StatusConflict, outcome.Err.Error())
				return
			}
			writeStoreError(w, outcome.Err)
			return
		}
		if outcome.Results == nil {
			outcome.Results = []search.Result{}
		}
		writeJSON(w, http.StatusOK, searchResponse{Query: outcome.Query, Results: outcome.Results})
	case <-r.Context().Done():
		writeError(w, http.StatusRequestTimeout, "request cancelled")
	}
}

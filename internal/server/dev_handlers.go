package server

import (
	"net/http"
	"time"

	"lifeos/internal/calendar"
	"lifeos/internal/model"
	"lifeos/internal/store"
)

func (s *Server) handleDevSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	sess.Development.FetchAll(r.Context(), sess.User.ID)
	writeJSON(w, http.StatusOK, sess.Development.Snapshot())
}

type selectionRequest struct {
	CategoryID *string `json:"category_id"`
	ProjectID  *string `json:"project_id"`
	Tab        *string `json:"tab"`
}

func (s *Server) handleDevSelection(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	if req.CategoryID != nil {
		sess.Development.SelectCategory(*req.CategoryID)
	}
	if req.ProjectID != nil {
		sess.Development.SelectProject(*req.ProjectID)
	}
	if req.Tab != nil {
		sess.Development.SelectTab(store.Tab(*req.Tab))
	}
	writeJSON(w, http.StatusOK, sess.Development.Snapshot())
}

// created writes the standard outcome of a store Add call: 201 with the
// record, 204 when validation silently dropped the input, or the mapped error.
func created(w http.ResponseWriter, record interface{}, isNil bool, err error) {
	switch {
	case err != nil:
		writeStoreError(w, err)
	case isNil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusCreated, record)
	}
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.CategoryInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	c, err := sess.Development.AddCategory(r.Context(), sess.User.ID, in)
	created(w, c, c == nil, err)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	patch := map[string]interface{}{}
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	c, err := sess.Development.UpdateCategory(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Development.DeleteCategory(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.ProjectInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	p, err := sess.Development.AddProject(r.Context(), sess.User.ID, in)
	created(w, p, p == nil, err)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	patch := map[string]interface{}{}
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	p, err := sess.Development.UpdateProject(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Development.DeleteProject(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.TaskInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	t, err := sess.Development.AddTask(r.Context(), sess.User.ID, in)
	created(w, t, t == nil, err)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	patch := map[string]interface{}{}
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	t, err := sess.Development.UpdateTask(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type moveTaskRequest struct {
	Status     model.TaskStatus `json:"status"`
	OrderIndex *int             `json:"order_index"`
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var req moveTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	t, err := sess.Development.MoveTask(r.Context(), sess.User.ID, r.PathValue("id"), req.Status, req.OrderIndex)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if t == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Development.DeleteTask(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePushTaskToCalendar mirrors a due-dated task onto the user's Google
// Calendar and records the event id on the task.
func (s *Server) handlePushTaskToCalendar(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	id := r.PathValue("id")

	var task *model.DevTask
	for _, t := range sess.Development.Tasks() {
		if t.ID == id {
			task = &t
			break
		}
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if task.DueDate == nil {
		writeError(w, http.StatusBadRequest, "task has no due date")
		return
	}

	start := *task.DueDate
	event, err := s.calendar.CreateEvent(r.Context(), sess.User.ID, calendar.EventDescriptor{
		Summary: task.Title,
		Start:   calendar.EventTime{DateTime: start.Format(time.RFC3339), TimeZone: start.Location().String()},
		End:     calendar.EventTime{DateTime: start.Add(time.Hour).Format(time.RFC3339), TimeZone: start.Location().String()},
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	updated, err := sess.Development.UpdateTask(r.Context(), sess.User.ID, id,
		map[string]interface{}{"calendar_event_id": event.Id})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.NoteInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	n, err := sess.Development.AddNote(r.Context(), sess.User.ID, in)
	created(w, n, n == nil, err)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	patch := map[string]interface{}{}
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	n, err := sess.Development.UpdateNote(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Development.DeleteNote(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddDoubt(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var in store.DoubtInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	d, err := sess.Development.AddDoubt(r.Context(), sess.User.ID, in)
	created(w, d, d == nil, err)
}

func (s *Server) handleResolveDoubt(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	d, err := sess.Development.ResolveDoubt(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDoubt(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := sess.Development.DeleteDoubt(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

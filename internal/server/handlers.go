package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/gymtrack/internal/catalog"
	"github.com/claude/gymtrack/internal/models"
	"github.com/claude/gymtrack/internal/routine"
	"github.com/claude/gymtrack/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"login":   c.Login,
		"user_id": c.UserID,
	})
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	list, err := c.Catalog.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	var draft models.ExerciseDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	created, err := c.Catalog.Create(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return
	}
	var patch models.ExercisePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := c.Catalog.Update(r.Context(), id, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return
	}
	if err := c.Catalog.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// mustComponents resolves the per-user components or writes a 500.
func (s *Server) mustComponents(w http.ResponseWriter, r *http.Request) (*Components, bool) {
	c, err := s.components(r)
	if err != nil {
		s.log.Error("resolving user components", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "identity resolution failed"})
		return nil, false
	}
	return c, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps component sentinel errors onto HTTP statuses. Unknown
// errors are treated as remote-store failures.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, routine.ErrDayNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrGlobalExercise):
		status = http.StatusForbidden
	case errors.Is(err, routine.ErrIndexOutOfRange),
		errors.Is(err, session.ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrSessionInProgress),
		errors.Is(err, session.ErrEmptyDay):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseSince reads an optional since query parameter, RFC3339 or date-only.
// Absent means no lower bound.
func parseSince(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("since")
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		t, err = time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t, nil
}

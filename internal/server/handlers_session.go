package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/gymtrack/internal/models"
	"github.com/claude/gymtrack/internal/session"
	"github.com/google/uuid"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	active := c.Session.Active()
	if active == nil {
		writeJSON(w, http.StatusOK, map[string]any{"state": "idle"})
		return
	}
	total, _ := c.Session.TotalProgress()
	display, _ := c.Session.CurrentDisplaySetIndex()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":             "running",
		"session":           active,
		"total_progress":    total,
		"display_set_index": display,
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	var body struct {
		DayID uuid.UUID `json:"day_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DayID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day_id is required"})
		return
	}
	active, err := c.Session.Start(r.Context(), body.DayID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, active)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	exIndex, ok2 := parseIndex(w, r, "index")
	if !ok2 {
		return
	}
	setIndex, ok3 := parseIndex(w, r, "set")
	if !ok3 {
		return
	}
	var patch models.SetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := c.Session.UpdateSet(exIndex, setIndex, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	exIndex, ok2 := parseIndex(w, r, "index")
	if !ok2 {
		return
	}
	if err := c.Session.AddSet(exIndex); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleAddSessionExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	var body struct {
		ExerciseID       uuid.UUID `json:"exercise_id"`
		PersistToRoutine bool      `json:"persist_to_routine"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ExerciseID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id is required"})
		return
	}
	if err := c.Session.AddExercise(r.Context(), body.ExerciseID, body.PersistToRoutine); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleReplaceExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	exIndex, ok2 := parseIndex(w, r, "index")
	if !ok2 {
		return
	}
	var body struct {
		ExerciseID uuid.UUID `json:"exercise_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ExerciseID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id is required"})
		return
	}
	if err := c.Session.ReplaceExercise(exIndex, body.ExerciseID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "replaced"})
}

func (s *Server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	exIndex, ok2 := parseIndex(w, r, "index")
	if !ok2 {
		return
	}
	if err := c.Session.SaveExercise(r.Context(), exIndex); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	var body struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	var dir session.Direction
	switch body.Direction {
	case "next":
		dir = session.Next
	case "prev":
		dir = session.Prev
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "direction must be next or prev"})
		return
	}

	err := c.Session.Advance(r.Context(), dir)
	active := c.Session.Active()
	if err != nil {
		// navigation happened, the save did not: report both
		s.log.Warn("advance with failed save", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"session":    active,
			"save_error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": active})
}

func (s *Server) handleSessionNotes(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := c.Session.SetGeneralNotes(body.Notes); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	if err := c.Session.Finish(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "finished"})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	if err := c.Session.Cancel(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

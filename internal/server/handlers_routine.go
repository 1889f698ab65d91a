package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/claude/gymtrack/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	days, err := c.Plan.ListDays(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	dayID, ok2 := parseDayID(w, r)
	if !ok2 {
		return
	}
	day, err := c.Plan.Day(r.Context(), dayID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleRenameDay(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	dayID, ok2 := parseDayID(w, r)
	if !ok2 {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if err := c.Plan.RenameDay(r.Context(), dayID, body.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (s *Server) handleAddDayExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	dayID, ok2 := parseDayID(w, r)
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
	if err := c.Plan.AddExerciseToDay(r.Context(), dayID, body.ExerciseID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (s *Server) handleUpdateDayExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	dayID, ok2 := parseDayID(w, r)
	if !ok2 {
		return
	}
	index, ok3 := parseIndex(w, r, "index")
	if !ok3 {
		return
	}
	var patch models.TargetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := c.Plan.UpdateDayExercise(r.Context(), dayID, index, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleRemoveDayExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	dayID, ok2 := parseDayID(w, r)
	if !ok2 {
		return
	}
	index, ok3 := parseIndex(w, r, "index")
	if !ok3 {
		return
	}
	if err := c.Plan.RemoveExerciseFromDay(r.Context(), dayID, index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleMoveDayExercise(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	dayID, ok2 := parseDayID(w, r)
	if !ok2 {
		return
	}
	from, ok3 := parseIndex(w, r, "index")
	if !ok3 {
		return
	}
	var body struct {
		To int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := c.Plan.ReorderExerciseInDay(r.Context(), dayID, from, body.To); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

func parseDayID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day ID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseIndex(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + param})
		return 0, false
	}
	return n, true
}

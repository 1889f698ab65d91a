package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/claude/gymtrack/internal/history"
	"github.com/claude/gymtrack/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	since, err := parseSince(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := c.History.ListSessions(r.Context(), since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleRecordPastSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	var body struct {
		DayID       uuid.UUID              `json:"day_id"`
		Date        time.Time              `json:"date"`
		DurationMin int                    `json:"duration_min"`
		Notes       string                 `json:"notes"`
		Exercises   []history.PastExercise `json:"exercises"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.Date.IsZero() || len(body.Exercises) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date and exercises are required"})
		return
	}
	if err := c.History.RecordPastSession(r.Context(), body.DayID, body.Date, body.DurationMin, body.Notes, body.Exercises); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handlePersonalRecords(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	records, err := c.History.PersonalRecords(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handlePeriodStats(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	since, err := parseSince(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	stats, err := c.History.PeriodStats(r.Context(), since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExerciseSeries(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return
	}
	points, err := c.History.ExerciseSeries(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// handleExport assembles the full backup document: catalog, plan, history.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}

	exercises, err := c.Catalog.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := c.Plan.ListDays(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	sessions, err := c.History.ListSessions(r.Context(), time.Time{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.BackupDocument{
		Exercises:  exercises,
		Routine:    days,
		History:    sessions,
		ExportDate: time.Now().UTC(),
	})
}

// handleImport validates a backup document and applies it to the user's
// rows. Validation happens before any write, and the restore itself is
// transactional, so a malformed document can never half-overwrite live
// state.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mustComponents(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}

	doc, err := models.ParseBackup(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := c.Restore(r.Context(), doc); err != nil {
		s.log.Error("restore failed", "error", err)
		writeError(w, err)
		return
	}

	// Drop cached reads so the next request reflects the restored rows.
	c.Catalog.Reset()
	c.Plan.Reset()

	s.log.Info("backup restored",
		"exercises", len(doc.Exercises), "days", len(doc.Routine), "sessions", len(doc.History))
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

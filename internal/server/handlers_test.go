package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/claude/gymtrack/internal/catalog"
	"github.com/claude/gymtrack/internal/history"
	"github.com/claude/gymtrack/internal/identity"
	"github.com/claude/gymtrack/internal/models"
	"github.com/claude/gymtrack/internal/routine"
	"github.com/claude/gymtrack/internal/scratch"
	"github.com/claude/gymtrack/internal/session"
	"github.com/google/uuid"
)

// backend is an in-memory stand-in for the whole remote store, shared by
// every component of one test server.
type backend struct {
	exercises []models.ExerciseDefinition
	days      []models.RoutineDay
	sessions  []models.PerformedSession
}

func (b *backend) ListExercises(_ context.Context, userID int) ([]models.ExerciseDefinition, error) {
	var out []models.ExerciseDefinition
	for _, e := range b.exercises {
		if e.IsGlobal || e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (b *backend) InsertExercise(_ context.Context, e models.ExerciseDefinition) (models.ExerciseDefinition, error) {
	b.exercises = append(b.exercises, e)
	return e, nil
}

func (b *backend) UpdateExercise(_ context.Context, e models.ExerciseDefinition) error {
	for i := range b.exercises {
		if b.exercises[i].ID == e.ID {
			b.exercises[i] = e
			return nil
		}
	}
	return errors.New("no such exercise")
}

func (b *backend) DeleteExercise(_ context.Context, id uuid.UUID) error {
	for i := range b.exercises {
		if b.exercises[i].ID == id {
			b.exercises = append(b.exercises[:i], b.exercises[i+1:]...)
			return nil
		}
	}
	return nil
}

func (b *backend) CountRoutineDays(_ context.Context, userID int) (int, error) {
	n := 0
	for _, d := range b.days {
		if d.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (b *backend) InsertRoutineDays(_ context.Context, days []models.RoutineDay) error {
	b.days = append(b.days, days...)
	return nil
}

func (b *backend) ListRoutineDays(_ context.Context, userID int) ([]models.RoutineDay, error) {
	var out []models.RoutineDay
	for _, d := range b.days {
		if d.UserID == userID {
			day := d
			day.Exercises = append([]models.DayExerciseTarget(nil), d.Exercises...)
			out = append(out, day)
		}
	}
	return out, nil
}

func (b *backend) RenameRoutineDay(_ context.Context, dayID uuid.UUID, name string) error {
	for i := range b.days {
		if b.days[i].ID == dayID {
			b.days[i].Name = name
		}
	}
	return nil
}

func (b *backend) InsertDayTarget(_ context.Context, dayID uuid.UUID, t models.DayExerciseTarget) error {
	for i := range b.days {
		if b.days[i].ID == dayID && !b.days[i].ContainsExercise(t.ExerciseID) {
			b.days[i].Exercises = append(b.days[i].Exercises, t)
		}
	}
	return nil
}

func (b *backend) UpdateDayTarget(_ context.Context, t models.DayExerciseTarget) error {
	for i := range b.days {
		for j := range b.days[i].Exercises {
			if b.days[i].Exercises[j].ID == t.ID {
				b.days[i].Exercises[j] = t
			}
		}
	}
	return nil
}

func (b *backend) DeleteDayTarget(_ context.Context, id uuid.UUID) error {
	for i := range b.days {
		for j := range b.days[i].Exercises {
			if b.days[i].Exercises[j].ID == id {
				b.days[i].Exercises = append(b.days[i].Exercises[:j], b.days[i].Exercises[j+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (b *backend) UpdateTargetPositions(_ context.Context, targets []models.DayExerciseTarget) error {
	for _, t := range targets {
		for i := range b.days {
			for j := range b.days[i].Exercises {
				if b.days[i].Exercises[j].ID == t.ID {
					b.days[i].Exercises[j].Order = t.Order
				}
			}
		}
	}
	return nil
}

func (b *backend) InsertSession(_ context.Context, id uuid.UUID, userID int, dayID uuid.UUID, date time.Time) error {
	b.sessions = append(b.sessions, models.PerformedSession{
		ID: id, UserID: userID, SourceDayID: dayID, Date: date,
	})
	return nil
}

func (b *backend) UpdateSessionMeta(_ context.Context, id uuid.UUID, durationMin int, notes string) error {
	for i := range b.sessions {
		if b.sessions[i].ID == id {
			b.sessions[i].DurationMinutes = durationMin
			b.sessions[i].GeneralNotes = notes
			return nil
		}
	}
	return errors.New("no such session")
}

func (b *backend) InsertPerformedExercise(_ context.Context, sessionID uuid.UUID, e models.PerformedExercise) (uuid.UUID, error) {
	for i := range b.sessions {
		if b.sessions[i].ID == sessionID {
			e.ID = uuid.New()
			b.sessions[i].Exercises = append(b.sessions[i].Exercises, e)
			return e.ID, nil
		}
	}
	return uuid.Nil, errors.New("no such session")
}

func (b *backend) InsertPerformedSets(_ context.Context, performedExerciseID uuid.UUID, sets []models.PerformedSet) error {
	for i := range b.sessions {
		for j := range b.sessions[i].Exercises {
			if b.sessions[i].Exercises[j].ID == performedExerciseID {
				b.sessions[i].Exercises[j].Sets = sets
				return nil
			}
		}
	}
	return errors.New("no such performed exercise")
}

func (b *backend) ListSessions(_ context.Context, userID int, since time.Time) ([]models.PerformedSession, error) {
	var out []models.PerformedSession
	for _, s := range b.sessions {
		if s.UserID == userID && (since.IsZero() || !s.Date.Before(since)) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (b *backend) InsertPastSession(_ context.Context, s models.PerformedSession) error {
	b.sessions = append(b.sessions, s)
	return nil
}

// restore applies a backup document to the in-memory store the way the
// transactional restore does, scoped to one user: custom exercises upserted
// by id, days matched by weekday, sessions inserted unless present.
func (b *backend) restore(userID int, doc *models.BackupDocument) error {
	for _, e := range doc.Exercises {
		if e.IsGlobal {
			continue
		}
		e.UserID = userID
		replaced := false
		for i := range b.exercises {
			if b.exercises[i].ID == e.ID {
				b.exercises[i] = e
				replaced = true
			}
		}
		if !replaced {
			b.exercises = append(b.exercises, e)
		}
	}
	for _, day := range doc.Routine {
		matched := false
		for i := range b.days {
			if b.days[i].UserID == userID && b.days[i].Weekday == day.Weekday {
				b.days[i].Name = day.Name
				b.days[i].Exercises = append([]models.DayExerciseTarget(nil), day.Exercises...)
				matched = true
			}
		}
		if !matched {
			day.UserID = userID
			b.days = append(b.days, day)
		}
	}
	for _, s := range doc.History {
		exists := false
		for _, have := range b.sessions {
			if have.ID == s.ID {
				exists = true
			}
		}
		if !exists {
			s.UserID = userID
			b.sessions = append(b.sessions, s)
		}
	}
	return nil
}

// memScratch is an in-memory session.Scratch.
type memScratch struct{ m map[string][]byte }

func newMemScratch() *memScratch { return &memScratch{m: map[string][]byte{}} }

func (s *memScratch) Get(key string) ([]byte, error) {
	v, ok := s.m[key]
	if !ok {
		return nil, scratch.ErrNotFound
	}
	return v, nil
}
func (s *memScratch) Put(key string, value []byte) error { s.m[key] = value; return nil }
func (s *memScratch) Delete(key string) error            { delete(s.m, key); return nil }

type testEnv struct {
	srv     *Server
	backend *backend
	scratch *memScratch
	builds  int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{backend: &backend{}, scratch: newMemScratch()}

	nextUserID := 0
	factory := func(_ context.Context, login string) (*Components, error) {
		env.builds++
		nextUserID++
		uid := nextUserID
		cat := catalog.New(env.backend, uid, log)
		plan := routine.New(env.backend, uid, log)
		mgr := session.New(env.backend, plan, cat, env.scratch, uid, log)
		hist := history.New(env.backend, cat, uid, log)
		return &Components{
			UserID: uid, Login: login,
			Catalog: cat, Plan: plan, Session: mgr, History: hist,
			Restore: func(_ context.Context, doc *models.BackupDocument) error {
				return env.backend.restore(uid, doc)
			},
		}, nil
	}

	env.srv = New(factory, identity.New(log), "test-key", "dev@localhost", log)
	return env
}

// do runs a request through the full router and decodes the JSON response.
func (env *testEnv) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec
}

// TestMeDevIdentity verifies requests without Tailscale resolve to the
// configured dev user.
func TestMeDevIdentity(t *testing.T) {
	env := newTestEnv(t)
	var me struct {
		Login  string `json:"login"`
		UserID int    `json:"user_id"`
	}
	rec := env.do(t, http.MethodGet, "/api/v1/me", nil, &me)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if me.Login != "dev@localhost" || me.UserID != 1 {
		t.Errorf("me = %+v", me)
	}
}

// TestExerciseEndpoints verifies create, list, and the global read-only
// rejection through the HTTP surface.
func TestExerciseEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var created models.ExerciseDefinition
	rec := env.do(t, http.MethodPost, "/api/v1/exercises", models.ExerciseDraft{
		Name: "Remo con Barra", MuscleGroup: models.MuscleBack, Equipment: models.EquipBarbell,
	}, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}

	var list []models.ExerciseDefinition
	env.do(t, http.MethodGet, "/api/v1/exercises", nil, &list)
	if len(list) != 1 || list[0].Name != "Remo con Barra" {
		t.Errorf("list = %+v", list)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/exercises", models.ExerciseDraft{Name: "x", MuscleGroup: "glutes", Equipment: models.EquipBarbell}, nil)
	if rec.Code < 400 {
		t.Errorf("invalid draft status = %d, want an error", rec.Code)
	}

	global := models.ExerciseDefinition{ID: uuid.New(), Name: "Sentadilla", MuscleGroup: models.MuscleLegs, Equipment: models.EquipBarbell, IsGlobal: true}
	env.backend.exercises = append(env.backend.exercises, global)
	env.srv.cur.Catalog.Reset() // pick up the seeded row

	rec = env.do(t, http.MethodDelete, "/api/v1/exercises/"+global.ID.String(), nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("delete global status = %d, want 403", rec.Code)
	}
}

// TestWorkoutFlow walks the full happy path through the router: provision
// the routine, add an exercise, start a session, log sets, finish, then
// read history and records back.
func TestWorkoutFlow(t *testing.T) {
	env := newTestEnv(t)

	var created models.ExerciseDefinition
	env.do(t, http.MethodPost, "/api/v1/exercises", models.ExerciseDraft{
		Name: "Press de Banca", MuscleGroup: models.MuscleChest, Equipment: models.EquipBarbell,
	}, &created)

	var days []models.RoutineDay
	rec := env.do(t, http.MethodGet, "/api/v1/routine", nil, &days)
	if rec.Code != http.StatusOK || len(days) != 7 {
		t.Fatalf("routine: status %d, days %d", rec.Code, len(days))
	}
	dayID := days[1].ID

	rec = env.do(t, http.MethodPost, "/api/v1/routine/days/"+dayID.String()+"/exercises",
		map[string]any{"exercise_id": created.ID}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("add target status = %d: %s", rec.Code, rec.Body)
	}

	// empty day is rejected
	rec = env.do(t, http.MethodPost, "/api/v1/session/start", map[string]any{"day_id": days[2].ID}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("empty day start status = %d, want 409", rec.Code)
	}

	var active models.ActiveSession
	rec = env.do(t, http.MethodPost, "/api/v1/session/start", map[string]any{"day_id": dayID}, &active)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	if len(active.Exercises) != 1 || len(active.Exercises[0].Sets) != 3 {
		t.Fatalf("active = %+v", active)
	}

	for set, w := range map[string]float64{"0": 60, "1": 60} {
		rec = env.do(t, http.MethodPatch, "/api/v1/session/exercises/0/sets/"+set,
			map[string]any{"weight": w, "reps": 8, "completed": true}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("update set status = %d: %s", rec.Code, rec.Body)
		}
	}

	rec = env.do(t, http.MethodPost, "/api/v1/session/finish", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finish status = %d: %s", rec.Code, rec.Body)
	}

	var state struct {
		State string `json:"state"`
	}
	env.do(t, http.MethodGet, "/api/v1/session", nil, &state)
	if state.State != "idle" {
		t.Errorf("state after finish = %q", state.State)
	}

	var sessions []models.PerformedSession
	env.do(t, http.MethodGet, "/api/v1/history/sessions", nil, &sessions)
	if len(sessions) != 1 || len(sessions[0].Exercises) != 1 {
		t.Fatalf("history = %+v", sessions)
	}
	if got := len(sessions[0].Exercises[0].Sets); got != 2 {
		t.Errorf("archived sets = %d, want 2", got)
	}

	var records map[uuid.UUID]history.PersonalRecord
	env.do(t, http.MethodGet, "/api/v1/history/records", nil, &records)
	if pr := records[created.ID]; pr.Weight != 60 || pr.ExerciseName != "Press de Banca" {
		t.Errorf("pr = %+v", pr)
	}
}

// TestImportRestoresBackup verifies the import endpoint demands the API key
// and a complete three-section document, and that an accepted document is
// actually applied: the restored exercise and session are readable through
// the normal endpoints afterwards.
func TestImportRestoresBackup(t *testing.T) {
	env := newTestEnv(t)

	exID := uuid.New()
	doc := models.BackupDocument{
		Exercises: []models.ExerciseDefinition{
			{ID: exID, Name: "Peso Muerto", MuscleGroup: models.MuscleBack, Equipment: models.EquipBarbell},
		},
		Routine: []models.RoutineDay{},
		History: []models.PerformedSession{{
			ID:   uuid.New(),
			Date: time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC),
			Exercises: []models.PerformedExercise{{
				ID:           uuid.New(),
				ExerciseID:   exID,
				ExerciseName: "Peso Muerto",
				Sets:         []models.PerformedSet{{SetNumber: 1, Weight: 120, Reps: 5, Completed: true}},
			}},
		}},
	}
	body, _ := json.Marshal(doc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/import/", bytes.NewReader([]byte(`{"exercises":[]}`)))
	req.Header.Set("X-API-Key", "test-key")
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("partial doc status = %d, want 400", rec.Code)
	}
	if len(env.backend.sessions) != 0 {
		t.Fatal("rejected document reached the store")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/import/", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "test-key")
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}

	var list []models.ExerciseDefinition
	env.do(t, http.MethodGet, "/api/v1/exercises", nil, &list)
	if len(list) != 1 || list[0].ID != exID {
		t.Errorf("restored catalog = %+v", list)
	}

	var sessions []models.PerformedSession
	env.do(t, http.MethodGet, "/api/v1/history/sessions", nil, &sessions)
	if len(sessions) != 1 || len(sessions[0].Exercises) != 1 {
		t.Fatalf("restored history = %+v", sessions)
	}
	if got := sessions[0].Exercises[0].Sets[0].Weight; got != 120 {
		t.Errorf("restored weight = %v, want 120", got)
	}
}

// TestExportRoundTrip verifies the export document parses back through the
// import validator.
func TestExportRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", nil)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}

	if _, err := models.ParseBackup(rec.Body.Bytes()); err != nil {
		t.Errorf("export does not re-import: %v", err)
	}
}

// TestComponentsRebuildOnLoginChange verifies switching identity builds a
// fresh component set exactly once per switch.
func TestComponentsRebuildOnLoginChange(t *testing.T) {
	env := newTestEnv(t)

	asLogin := func(login string) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil)
		req = req.WithContext(context.WithValue(req.Context(), loginKey, login))
		rec := httptest.NewRecorder()
		// bypass the identity middleware: call the handler directly
		env.srv.handleListExercises(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status for %s = %d", login, rec.Code)
		}
	}

	asLogin("ana@example.com")
	asLogin("ana@example.com")
	if env.builds != 1 {
		t.Fatalf("builds = %d, want 1", env.builds)
	}

	asLogin("luis@example.com")
	if env.builds != 2 {
		t.Errorf("builds after switch = %d, want 2", env.builds)
	}
	if got := env.srv.cur.Login; got != "luis@example.com" {
		t.Errorf("current login = %q", got)
	}
}

// TestSessionPreconditions verifies idle-state operations are rejected with
// a conflict.
func TestSessionPreconditions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/session/finish", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("finish while idle = %d, want 409", rec.Code)
	}
	rec = env.do(t, http.MethodPatch, "/api/v1/session/exercises/0/sets/0", map[string]any{"reps": 5}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("updateSet while idle = %d, want 409", rec.Code)
	}
}

// Package session owns the single active workout: the Idle/Running state
// machine, incremental persistence of completed exercises into the remote
// archive, and the local scratch copy that lets a running session survive a
// restart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/claude/gymtrack/internal/models"
	"github.com/claude/gymtrack/internal/scratch"
	"github.com/google/uuid"
)

var (
	// ErrNoActiveSession is returned by operations valid only while Running.
	ErrNoActiveSession = errors.New("session: no active session")
	// ErrSessionInProgress is returned by Start while a session is Running.
	ErrSessionInProgress = errors.New("session: a session is already in progress")
	// ErrEmptyDay is returned by Start for a day with no target exercises.
	ErrEmptyDay = errors.New("session: day has no exercises")
	// ErrIndexOutOfRange is returned when an exercise or set index does not
	// address an existing row. Patches never create rows.
	ErrIndexOutOfRange = errors.New("session: index out of range")
)

// Direction selects which way Advance moves the current-exercise pointer.
type Direction int

const (
	Next Direction = iota
	Prev
)

// Archive is the remote store side the manager persists finished work to.
type Archive interface {
	InsertSession(ctx context.Context, id uuid.UUID, userID int, dayID uuid.UUID, date time.Time) error
	UpdateSessionMeta(ctx context.Context, id uuid.UUID, durationMin int, generalNotes string) error
	InsertPerformedExercise(ctx context.Context, sessionID uuid.UUID, e models.PerformedExercise) (uuid.UUID, error)
	InsertPerformedSets(ctx context.Context, performedExerciseID uuid.UUID, sets []models.PerformedSet) error
}

// PlanSource supplies the routine day a session starts from, and receives
// the one write the manager ever makes into the plan: persisting an ad-hoc
// exercise back to the source day.
type PlanSource interface {
	Day(ctx context.Context, dayID uuid.UUID) (models.RoutineDay, error)
	AddExerciseToDay(ctx context.Context, dayID, exerciseID uuid.UUID) error
}

// NameSource resolves exercise names for the save-time snapshot.
type NameSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.ExerciseDefinition, error)
}

// Scratch is the local durable store holding the serialized active session.
type Scratch interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Manager is the session lifecycle manager. Exactly zero or one active
// session exists at a time; all access goes through the manager.
type Manager struct {
	archive Archive
	plan    PlanSource
	names   NameSource
	scratch Scratch
	userID  int
	key     string
	log     *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	active *models.ActiveSession
}

// New creates a manager in the Idle state. Call Resume to pick up a session
// persisted by a previous run.
func New(archive Archive, plan PlanSource, names NameSource, sc Scratch, userID int, log *slog.Logger) *Manager {
	return &Manager{
		archive: archive,
		plan:    plan,
		names:   names,
		scratch: sc,
		userID:  userID,
		key:     scratch.ActiveSessionKey(userID),
		log:     log,
		now:     time.Now,
	}
}

// Resume restores a running session from local scratch. An absent value
// means Idle; a corrupt value is discarded rather than wedging startup.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.scratch.Get(m.key)
	if errors.Is(err, scratch.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading persisted session: %w", err)
	}

	var s models.ActiveSession
	if err := json.Unmarshal(data, &s); err != nil {
		m.log.Warn("discarding corrupt persisted session", "error", err)
		return m.scratch.Delete(m.key)
	}
	m.active = &s
	m.log.Info("resumed active session", "session", s.ID, "started", s.StartTime)
	return nil
}

// Active returns a copy of the current session, or nil when Idle.
func (m *Manager) Active() *models.ActiveSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	cp := *m.active
	cp.Exercises = make([]models.SessionExercise, len(m.active.Exercises))
	for i, e := range m.active.Exercises {
		cp.Exercises[i] = e
		cp.Exercises[i].Sets = append([]models.SessionSet(nil), e.Sets...)
	}
	return &cp
}

// Start begins a session from a routine day. The remote session row is
// created eagerly so incremental saves have a parent; if that insert fails
// the manager stays Idle. Each target exercise is materialized with its
// target count of default sets.
func (m *Manager) Start(ctx context.Context, dayID uuid.UUID) (*models.ActiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrSessionInProgress
	}

	day, err := m.plan.Day(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("reading routine day: %w", err)
	}
	if len(day.Exercises) == 0 {
		return nil, ErrEmptyDay
	}

	remoteID := uuid.New()
	startTime := m.now()
	if err := m.archive.InsertSession(ctx, remoteID, m.userID, dayID, startTime); err != nil {
		return nil, fmt.Errorf("creating remote session: %w", err)
	}

	s := &models.ActiveSession{
		ID:              uuid.New(),
		RemoteSessionID: remoteID,
		SourceDayID:     dayID,
		StartTime:       startTime,
	}
	for _, target := range day.Exercises {
		ex := models.SessionExercise{
			ExerciseID:  target.ExerciseID,
			TargetSets:  target.TargetSets,
			TargetReps:  target.TargetReps,
			RestSeconds: target.RestSeconds,
			SetType:     target.SetType,
			Notes:       target.Notes,
		}
		for i := 0; i < target.TargetSets; i++ {
			ex.Sets = append(ex.Sets, models.NewSessionSet(i+1))
		}
		s.Exercises = append(s.Exercises, ex)
	}

	m.active = s
	m.persist()
	m.log.Info("session started", "session", s.ID, "day", dayID, "exercises", len(s.Exercises))
	return m.copyActive(), nil
}

// UpdateSet merges a patch into the addressed set and persists the session
// locally. No remote write happens here; remote sync is deferred to
// exercise advance or finish.
func (m *Manager) UpdateSet(exerciseIndex, setIndex int, patch models.SetPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.active.Exercises) {
		return ErrIndexOutOfRange
	}
	ex := &m.active.Exercises[exerciseIndex]
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return ErrIndexOutOfRange
	}

	patch.Apply(&ex.Sets[setIndex])
	m.persist()
	return nil
}

// AddSet appends a set to the addressed exercise, carrying the previous
// set's weight forward.
func (m *Manager) AddSet(exerciseIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.active.Exercises) {
		return ErrIndexOutOfRange
	}
	ex := &m.active.Exercises[exerciseIndex]

	set := models.NewSessionSet(len(ex.Sets) + 1)
	if n := len(ex.Sets); n > 0 {
		set.Weight = ex.Sets[n-1].Weight
	}
	ex.Sets = append(ex.Sets, set)
	m.persist()
	return nil
}

// AddExercise appends an ad-hoc exercise with session defaults and one
// empty set. With persistToRoutine the exercise is also added to the
// session's source day, the only write the manager makes into the plan.
func (m *Manager) AddExercise(ctx context.Context, exerciseID uuid.UUID, persistToRoutine bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}

	ex := models.SessionExercise{
		ExerciseID:  exerciseID,
		TargetSets:  models.DefaultTargetSets,
		TargetReps:  models.DefaultTargetReps,
		RestSeconds: models.DefaultRestSeconds,
		SetType:     models.SetTypeNormal,
		IsExtra:     true,
		Sets:        []models.SessionSet{models.NewSessionSet(1)},
	}
	m.active.Exercises = append(m.active.Exercises, ex)
	m.persist()

	if persistToRoutine {
		if err := m.plan.AddExerciseToDay(ctx, m.active.SourceDayID, exerciseID); err != nil {
			return fmt.Errorf("persisting exercise to routine: %w", err)
		}
	}
	return nil
}

// ReplaceExercise swaps the identity of an existing exercise in place,
// keeping its sets and targets. The saved flag resets so the next save
// persists under the new identity; a row already saved for the old identity
// is left behind rather than deleted.
func (m *Manager) ReplaceExercise(exerciseIndex int, newExerciseID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.active.Exercises) {
		return ErrIndexOutOfRange
	}
	ex := &m.active.Exercises[exerciseIndex]

	if ex.SavedToDB {
		m.log.Warn("replacing already-saved exercise, remote row orphaned",
			"session", m.active.RemoteSessionID, "old_row", ex.DBPerformedExerciseID)
	}
	ex.ExerciseID = newExerciseID
	ex.SavedToDB = false
	ex.DBPerformedExerciseID = uuid.Nil
	m.persist()
	return nil
}

// SaveExercise persists one exercise and its meaningful sets under the
// session's remote row. No-op when already saved.
func (m *Manager) SaveExercise(ctx context.Context, exerciseIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.active.Exercises) {
		return ErrIndexOutOfRange
	}
	return m.saveExerciseLocked(ctx, exerciseIndex)
}

// saveExerciseLocked does the actual incremental save. Callers hold m.mu.
func (m *Manager) saveExerciseLocked(ctx context.Context, exerciseIndex int) error {
	ex := &m.active.Exercises[exerciseIndex]
	if ex.SavedToDB {
		return nil
	}

	name := "Unknown Exercise"
	if def, err := m.names.GetByID(ctx, ex.ExerciseID); err == nil {
		name = def.Name
	}

	rowID, err := m.archive.InsertPerformedExercise(ctx, m.active.RemoteSessionID, models.PerformedExercise{
		ExerciseID:   ex.ExerciseID,
		ExerciseName: name,
		Notes:        ex.Notes,
	})
	if err != nil {
		return fmt.Errorf("saving exercise %d: %w", exerciseIndex, err)
	}

	sets := make([]models.PerformedSet, 0, len(ex.Sets))
	for _, s := range ex.MeaningfulSets() {
		sets = append(sets, models.PerformedSet{
			SetNumber: s.SetNumber,
			Weight:    s.Weight,
			Reps:      s.Reps,
			RIR:       s.RIR,
			Completed: s.Completed,
		})
	}
	if err := m.archive.InsertPerformedSets(ctx, rowID, sets); err != nil {
		return fmt.Errorf("saving sets of exercise %d: %w", exerciseIndex, err)
	}

	ex.SavedToDB = true
	ex.DBPerformedExerciseID = rowID
	m.persist()
	return nil
}

// Advance moves the current-exercise pointer one step, clamped to the
// exercise range. Moving forward saves the exercise being left first; a
// failed save is surfaced but does not block the navigation.
func (m *Manager) Advance(ctx context.Context, dir Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}

	var saveErr error
	switch dir {
	case Next:
		if m.active.CurrentExercise < len(m.active.Exercises)-1 {
			saveErr = m.saveExerciseLocked(ctx, m.active.CurrentExercise)
			if saveErr != nil {
				m.log.Error("save on advance failed", "exercise", m.active.CurrentExercise, "error", saveErr)
			}
			m.active.CurrentExercise++
		}
	case Prev:
		if m.active.CurrentExercise > 0 {
			m.active.CurrentExercise--
		}
	}
	m.persist()
	return saveErr
}

// Finish saves every not-yet-saved exercise in session order, then writes
// the final duration and notes onto the remote session row, then clears the
// local session. Saves that fail do not abort the rest: every exercise is
// attempted, and the joined failures are reported while the session stays
// Running so a retry can pick up exactly the exercises that are missing.
func (m *Manager) Finish(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}

	var errs []error
	for i := range m.active.Exercises {
		if err := m.saveExerciseLocked(ctx, i); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		m.log.Error("finish saved partially", "failed", len(errs), "total", len(m.active.Exercises))
		return fmt.Errorf("finishing session: %w", errors.Join(errs...))
	}

	elapsed := m.now().Sub(m.active.StartTime)
	duration := int(math.Round(elapsed.Minutes()))
	if err := m.archive.UpdateSessionMeta(ctx, m.active.RemoteSessionID, duration, m.active.GeneralNotes); err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}

	m.log.Info("session finished", "session", m.active.ID, "duration_min", duration)
	m.clearLocked()
	return nil
}

// Cancel discards the local session unconditionally. Already-saved
// exercises and the eagerly-created session row stay behind as accepted
// debris; no remote cleanup is attempted.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}
	m.log.Info("session cancelled", "session", m.active.ID, "remote", m.active.RemoteSessionID)
	m.clearLocked()
	return nil
}

// SetGeneralNotes updates the session-level notes.
func (m *Manager) SetGeneralNotes(notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ErrNoActiveSession
	}
	m.active.GeneralNotes = notes
	m.persist()
	return nil
}

// Reset drops the in-memory session without touching the remote store or
// the scratch copy. Called when the signed-in user changes; the scratch copy
// stays behind so the outgoing user can resume when they come back.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
}

// Progress returns set completion for one exercise of the active session.
func (m *Manager) Progress(exerciseIndex int) (models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return models.Progress{}, ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.active.Exercises) {
		return models.Progress{}, ErrIndexOutOfRange
	}
	return m.active.ExerciseProgress(exerciseIndex), nil
}

// TotalProgress returns set completion summed over all exercises.
func (m *Manager) TotalProgress() (models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return models.Progress{}, ErrNoActiveSession
	}
	return m.active.TotalProgress(), nil
}

// CurrentDisplaySetIndex returns the first incomplete set index of the
// current exercise, or the set count when all are complete.
func (m *Manager) CurrentDisplaySetIndex() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return 0, ErrNoActiveSession
	}
	return m.active.DisplaySetIndex(m.active.CurrentExercise), nil
}

// clearLocked drops the active session and its scratch copy. Callers hold m.mu.
func (m *Manager) clearLocked() {
	m.active = nil
	if err := m.scratch.Delete(m.key); err != nil {
		m.log.Error("clearing persisted session failed", "error", err)
	}
}

// persist writes the active session to local scratch. Every mutation runs
// through here so a reload resumes exactly where the user left off. Callers
// hold m.mu.
func (m *Manager) persist() {
	data, err := json.Marshal(m.active)
	if err != nil {
		m.log.Error("serializing active session failed", "error", err)
		return
	}
	if err := m.scratch.Put(m.key, data); err != nil {
		m.log.Error("persisting active session failed", "error", err)
	}
}

// copyActive duplicates the active session for callers. Callers hold m.mu.
func (m *Manager) copyActive() *models.ActiveSession {
	cp := *m.active
	cp.Exercises = make([]models.SessionExercise, len(m.active.Exercises))
	for i, e := range m.active.Exercises {
		cp.Exercises[i] = e
		cp.Exercises[i].Sets = append([]models.SessionSet(nil), e.Sets...)
	}
	return &cp
}

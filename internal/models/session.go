package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionSet is one logged set of an in-progress exercise. SetNumber is
// 1-based and matches the set's position in the list.
type SessionSet struct {
	SetNumber int     `json:"set_number"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	RIR       int     `json:"rir"` // reps in reserve, -1 = failure
	Completed bool    `json:"completed"`
}

// Meaningful reports whether the set is worth persisting: either marked
// completed, or carrying non-zero weight and reps.
func (s SessionSet) Meaningful() bool {
	return s.Completed || (s.Weight > 0 && s.Reps > 0)
}

// NewSessionSet returns a default set at the given 1-based position.
// New sets start at RIR 2, the middle of the usable effort scale.
func NewSessionSet(setNumber int) SessionSet {
	return SessionSet{SetNumber: setNumber, RIR: 2}
}

// SessionExercise is one exercise of the active session. Targets are copied
// from the routine at start time; later plan edits do not reach a running
// session.
type SessionExercise struct {
	ExerciseID  uuid.UUID    `json:"exercise_id"`
	TargetSets  int          `json:"target_sets"`
	TargetReps  string       `json:"target_reps"`
	RestSeconds int          `json:"rest_seconds"`
	SetType     SetType      `json:"set_type"`
	Notes       string       `json:"notes,omitempty"`
	Sets        []SessionSet `json:"sets"`
	IsExtra     bool         `json:"is_extra"`

	// Incremental persistence bookkeeping.
	SavedToDB             bool      `json:"saved_to_db"`
	DBPerformedExerciseID uuid.UUID `json:"db_performed_exercise_id,omitempty"`
}

// MeaningfulSets returns the sets that pass the persistence filter.
func (e *SessionExercise) MeaningfulSets() []SessionSet {
	out := make([]SessionSet, 0, len(e.Sets))
	for _, s := range e.Sets {
		if s.Meaningful() {
			out = append(out, s)
		}
	}
	return out
}

// ActiveSession is the single in-progress workout. It is persisted to local
// scratch on every mutation so a restart resumes exactly where the user left
// off; the remote session row (created eagerly at start) plus any exercises
// already saved are the authoritative long-term record.
type ActiveSession struct {
	ID              uuid.UUID         `json:"id"`
	RemoteSessionID uuid.UUID         `json:"remote_session_id"`
	SourceDayID     uuid.UUID         `json:"source_day_id"`
	StartTime       time.Time         `json:"start_time"`
	Exercises       []SessionExercise `json:"exercises"`
	CurrentExercise int               `json:"current_exercise"`
	GeneralNotes    string            `json:"general_notes,omitempty"`
}

// SetPatch enumerates the mutable fields of a session set. Nil means
// "leave unchanged".
type SetPatch struct {
	Weight    *float64 `json:"weight,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
	RIR       *int     `json:"rir,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}

// Apply merges the patch into the set.
func (p SetPatch) Apply(s *SessionSet) {
	if p.Weight != nil {
		s.Weight = *p.Weight
	}
	if p.Reps != nil {
		s.Reps = *p.Reps
	}
	if p.RIR != nil {
		s.RIR = *p.RIR
	}
	if p.Completed != nil {
		s.Completed = *p.Completed
	}
}

// Progress counts completed vs total sets.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ExerciseProgress returns set completion for one exercise.
func (a *ActiveSession) ExerciseProgress(exerciseIndex int) Progress {
	if exerciseIndex < 0 || exerciseIndex >= len(a.Exercises) {
		return Progress{}
	}
	var p Progress
	for _, s := range a.Exercises[exerciseIndex].Sets {
		p.Total++
		if s.Completed {
			p.Completed++
		}
	}
	return p
}

// TotalProgress sums set completion over all exercises.
func (a *ActiveSession) TotalProgress() Progress {
	var p Progress
	for i := range a.Exercises {
		ep := a.ExerciseProgress(i)
		p.Completed += ep.Completed
		p.Total += ep.Total
	}
	return p
}

// DisplaySetIndex returns the index of the first incomplete set of the
// exercise, or the set count when every set is complete.
func (a *ActiveSession) DisplaySetIndex(exerciseIndex int) int {
	if exerciseIndex < 0 || exerciseIndex >= len(a.Exercises) {
		return 0
	}
	sets := a.Exercises[exerciseIndex].Sets
	for i, s := range sets {
		if !s.Completed {
			return i
		}
	}
	return len(sets)
}

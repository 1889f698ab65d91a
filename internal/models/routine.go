package models

import (
	"github.com/google/uuid"
)

// SetType tags the training intent of a day exercise target. It is derived
// from the rep range unless the user pins it to dropset or amrap.
type SetType string

const (
	SetTypeNormal      SetType = "normal"
	SetTypeStrength    SetType = "strength"
	SetTypeHypertrophy SetType = "hypertrophy"
	SetTypeDropset     SetType = "dropset"
	SetTypeAMRAP       SetType = "amrap"
)

// Valid reports whether t is one of the known set types.
func (t SetType) Valid() bool {
	switch t {
	case SetTypeNormal, SetTypeStrength, SetTypeHypertrophy, SetTypeDropset, SetTypeAMRAP:
		return true
	}
	return false
}

// Sticky reports whether t is user-chosen and exempt from rep-range
// auto-classification.
func (t SetType) Sticky() bool {
	return t == SetTypeDropset || t == SetTypeAMRAP
}

// Defaults applied when an exercise is added to a day or mid-session.
const (
	DefaultTargetSets  = 3
	DefaultTargetReps  = "8-12"
	DefaultRestSeconds = 90
)

// DayExerciseTarget is one planned exercise within a routine day. Order is
// 0-based and contiguous within the day; it defines both display and session
// sequence.
type DayExerciseTarget struct {
	ID          uuid.UUID `json:"id"`
	ExerciseID  uuid.UUID `json:"exercise_id"`
	Order       int       `json:"order"`
	TargetSets  int       `json:"target_sets"`
	TargetReps  string    `json:"target_reps"`
	RestSeconds int       `json:"rest_seconds"`
	SetType     SetType   `json:"set_type"`
	Notes       string    `json:"notes,omitempty"`
}

// RoutineDay is one weekday of the plan. A day with zero exercises is a
// valid rest day; days are provisioned once and never deleted.
type RoutineDay struct {
	ID        uuid.UUID           `json:"id"`
	UserID    int                 `json:"user_id"`
	Weekday   int                 `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	Name      string              `json:"name"`
	Exercises []DayExerciseTarget `json:"exercises"`
}

// ContainsExercise reports whether the day already targets the exercise.
// At most one target per exercise exists within a day.
func (d *RoutineDay) ContainsExercise(exerciseID uuid.UUID) bool {
	for _, t := range d.Exercises {
		if t.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// TargetPatch enumerates the fields a day-exercise update may change.
type TargetPatch struct {
	TargetSets  *int     `json:"target_sets,omitempty"`
	TargetReps  *string  `json:"target_reps,omitempty"`
	RestSeconds *int     `json:"rest_seconds,omitempty"`
	SetType     *SetType `json:"set_type,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// Apply merges the patch into the target. When the rep range changes and the
// current set type is not sticky, the set type is reclassified from the new
// range. An explicit SetType in the patch always wins.
func (p TargetPatch) Apply(t *DayExerciseTarget) {
	if p.TargetSets != nil {
		t.TargetSets = *p.TargetSets
	}
	if p.RestSeconds != nil {
		t.RestSeconds = *p.RestSeconds
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.TargetReps != nil {
		r := ParseRepRange(*p.TargetReps)
		t.TargetReps = r.String()
		if !t.SetType.Sticky() {
			t.SetType = ClassifySetType(r)
		}
	}
	if p.SetType != nil {
		t.SetType = *p.SetType
	}
}

// DefaultDayNames are the seed names for the seven weekdays, indexed by
// weekday (0=Sunday).
var DefaultDayNames = [7]string{
	"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado",
}

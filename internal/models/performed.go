package models

import (
	"time"

	"github.com/google/uuid"
)

// PerformedSet is one archived set. Only meaningful sets reach the archive.
type PerformedSet struct {
	SetNumber int     `json:"set_number"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	RIR       int     `json:"rir"`
	Completed bool    `json:"completed"`
}

// PerformedExercise is one archived exercise of a session. ExerciseName is a
// snapshot captured at save time, decoupling history from later catalog
// renames and deletions.
type PerformedExercise struct {
	ID           uuid.UUID      `json:"id"`
	ExerciseID   uuid.UUID      `json:"exercise_id"`
	ExerciseName string         `json:"exercise_name"`
	Notes        string         `json:"notes,omitempty"`
	Sets         []PerformedSet `json:"sets"`
}

// PerformedSession is one archived workout. Write-once after finish, except
// that the lifecycle manager may append further exercises while the
// originating active session remains open.
type PerformedSession struct {
	ID              uuid.UUID           `json:"id"`
	UserID          int                 `json:"user_id"`
	SourceDayID     uuid.UUID           `json:"source_day_id"`
	Date            time.Time           `json:"date"`
	DurationMinutes int                 `json:"duration_minutes"`
	GeneralNotes    string              `json:"general_notes,omitempty"`
	Exercises       []PerformedExercise `json:"exercises"`
}
